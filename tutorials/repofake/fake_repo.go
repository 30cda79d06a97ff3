// Package repofake provides an in-memory tutorials.Repo for tests.
package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/tutorials"
)

var _ tutorials.Repo = (*FakeRepo)(nil)

type FakeRepo struct {
	mu           sync.RWMutex
	modules      map[int64]*tutorials.Module
	lessons      map[int64][]*tutorials.Lesson
	nextModuleID int64
	nextLessonID int64
}

func New() *FakeRepo {
	return &FakeRepo{
		modules:      make(map[int64]*tutorials.Module),
		lessons:      make(map[int64][]*tutorials.Lesson),
		nextModuleID: 1,
		nextLessonID: 1,
	}
}

func (r *FakeRepo) ListModules(_ context.Context, category string, publishedOnly bool) ([]*tutorials.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*tutorials.Module, 0, len(r.modules))
	for _, m := range r.modules {
		if category != "" && m.Category != category {
			continue
		}
		if publishedOnly && !m.Published {
			continue
		}
		copied := *m
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderIndex != list[j].OrderIndex {
			return list[i].OrderIndex < list[j].OrderIndex
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *FakeRepo) GetModule(_ context.Context, id int64) (*tutorials.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modules[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *FakeRepo) UpsertModule(_ context.Context, module *tutorials.Module) (*tutorials.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := *module
	if stored.ID == 0 {
		stored.ID = r.nextModuleID
		r.nextModuleID++
		stored.CreatedAt = now
	} else if _, ok := r.modules[stored.ID]; !ok {
		return nil, apperrors.ErrNotFound
	}
	stored.UpdatedAt = now
	r.modules[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (r *FakeRepo) ListLessons(_ context.Context, moduleID int64, publishedOnly bool) ([]*tutorials.Lesson, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*tutorials.Lesson, 0, len(r.lessons[moduleID]))
	for _, l := range r.lessons[moduleID] {
		if publishedOnly && !l.Published {
			continue
		}
		copied := *l
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].OrderIndex != list[j].OrderIndex {
			return list[i].OrderIndex < list[j].OrderIndex
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *FakeRepo) UpsertLesson(_ context.Context, lesson *tutorials.Lesson) (*tutorials.Lesson, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := *lesson
	if stored.ID == 0 {
		stored.ID = r.nextLessonID
		r.nextLessonID++
		stored.CreatedAt = now
		stored.UpdatedAt = now
		r.lessons[stored.ModuleID] = append(r.lessons[stored.ModuleID], &stored)
	} else {
		found := false
		for i, existing := range r.lessons[stored.ModuleID] {
			if existing.ID == stored.ID {
				stored.CreatedAt = existing.CreatedAt
				stored.UpdatedAt = now
				r.lessons[stored.ModuleID][i] = &stored
				found = true
				break
			}
		}
		if !found {
			return nil, apperrors.ErrNotFound
		}
	}

	copied := stored
	return &copied, nil
}
