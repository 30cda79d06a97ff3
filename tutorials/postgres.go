package tutorials

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
)

// PostgresRepo implements Repo over a Postgres database.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

var _ Repo = (*PostgresRepo)(nil)

func (r *PostgresRepo) ListModules(ctx context.Context, category string, publishedOnly bool) ([]*Module, error) {
	query := `SELECT * FROM tutorial_modules WHERE ($1 = '' OR category = $1)`
	if publishedOnly {
		query += ` AND is_published`
	}
	query += ` ORDER BY display_order ASC, id ASC`

	modules := make([]*Module, 0)
	if err := r.db.SelectContext(ctx, &modules, query, category); err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.ListModules]")
	}
	return modules, nil
}

func (r *PostgresRepo) GetModule(ctx context.Context, id int64) (*Module, error) {
	var module Module
	err := r.db.GetContext(ctx, &module, `SELECT * FROM tutorial_modules WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetModule]")
	}
	return &module, nil
}

func (r *PostgresRepo) UpsertModule(ctx context.Context, module *Module) (*Module, error) {
	var stored Module
	var err error
	if module.ID == 0 {
		err = r.db.GetContext(ctx, &stored, `
			INSERT INTO tutorial_modules (title, description, category, difficulty, display_order, is_published, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING *`,
			module.Title, module.Description, module.Category, module.Difficulty, module.OrderIndex, module.Published)
	} else {
		err = r.db.GetContext(ctx, &stored, `
			UPDATE tutorial_modules
			SET title = $2, description = $3, category = $4, difficulty = $5,
			    display_order = $6, is_published = $7, updated_at = now()
			WHERE id = $1
			RETURNING *`,
			module.ID, module.Title, module.Description, module.Category, module.Difficulty, module.OrderIndex, module.Published)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.UpsertModule]")
	}
	return &stored, nil
}

func (r *PostgresRepo) ListLessons(ctx context.Context, moduleID int64, publishedOnly bool) ([]*Lesson, error) {
	query := `SELECT * FROM tutorial_lessons WHERE module_id = $1`
	if publishedOnly {
		query += ` AND is_published`
	}
	query += ` ORDER BY display_order ASC, id ASC`

	lessons := make([]*Lesson, 0)
	if err := r.db.SelectContext(ctx, &lessons, query, moduleID); err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.ListLessons]")
	}
	return lessons, nil
}

func (r *PostgresRepo) UpsertLesson(ctx context.Context, lesson *Lesson) (*Lesson, error) {
	var stored Lesson
	var err error
	if lesson.ID == 0 {
		err = r.db.GetContext(ctx, &stored, `
			INSERT INTO tutorial_lessons (module_id, title, content, type, display_order, is_published, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING *`,
			lesson.ModuleID, lesson.Title, lesson.Content, lesson.Type, lesson.OrderIndex, lesson.Published)
	} else {
		err = r.db.GetContext(ctx, &stored, `
			UPDATE tutorial_lessons
			SET title = $2, content = $3, type = $4, display_order = $5,
			    is_published = $6, updated_at = now()
			WHERE id = $1
			RETURNING *`,
			lesson.ID, lesson.Title, lesson.Content, lesson.Type, lesson.OrderIndex, lesson.Published)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.UpsertLesson]")
	}
	return &stored, nil
}
