package tutorials

import (
	"context"

	"github.com/pkg/errors"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/users"
)

// Service exposes tutorial content. Readers only ever see published
// content; editing is restricted to admins.
type Service struct {
	repo Repo
}

func NewService(repo Repo) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] repo is required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) ListModules(ctx context.Context, category string) ([]*Module, error) {
	return s.repo.ListModules(ctx, category, true)
}

func (s *Service) GetModule(ctx context.Context, id int64) (*Module, error) {
	module, err := s.repo.GetModule(ctx, id)
	if err != nil {
		return nil, err
	}
	if !module.Published {
		return nil, apperrors.ErrNotFound
	}
	return module, nil
}

func (s *Service) ListLessons(ctx context.Context, moduleID int64) ([]*Lesson, error) {
	if _, err := s.GetModule(ctx, moduleID); err != nil {
		return nil, err
	}
	return s.repo.ListLessons(ctx, moduleID, true)
}

// SaveModule creates or updates a module. Admin only.
func (s *Service) SaveModule(ctx context.Context, actor *users.User, module *Module) (*Module, error) {
	if !actor.HasRole(users.RoleAdmin) {
		return nil, apperrors.ErrForbidden
	}
	return s.repo.UpsertModule(ctx, module)
}

// SaveLesson creates or updates a lesson. Admin only; the parent module
// must exist.
func (s *Service) SaveLesson(ctx context.Context, actor *users.User, lesson *Lesson) (*Lesson, error) {
	if !actor.HasRole(users.RoleAdmin) {
		return nil, apperrors.ErrForbidden
	}
	if _, err := s.repo.GetModule(ctx, lesson.ModuleID); err != nil {
		return nil, err
	}
	return s.repo.UpsertLesson(ctx, lesson)
}
