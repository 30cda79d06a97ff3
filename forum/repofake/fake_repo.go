// Package repofake provides an in-memory forum.Repo for tests.
package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xquti/mdb-backend/forum"
	apperrors "github.com/xquti/mdb-backend/internal/errors"
)

var _ forum.Repo = (*FakeRepo)(nil)

type FakeRepo struct {
	mu           sync.RWMutex
	threads      map[int64]*forum.Thread
	posts        map[int64][]*forum.Post
	nextThreadID int64
	nextPostID   int64
	nowFunc      func() time.Time
}

func New() *FakeRepo {
	return &FakeRepo{
		threads:      make(map[int64]*forum.Thread),
		posts:        make(map[int64][]*forum.Post),
		nextThreadID: 1,
		nextPostID:   1,
		nowFunc:      time.Now,
	}
}

// SetNowFunc installs a fake clock for created/updated timestamps.
func (r *FakeRepo) SetNowFunc(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nowFunc = now
}

// Pin marks a thread pinned, for ordering tests.
func (r *FakeRepo) Pin(threadID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.threads[threadID]; ok {
		t.Pinned = true
	}
}

// Lock marks a thread locked.
func (r *FakeRepo) Lock(threadID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.threads[threadID]; ok {
		t.Locked = true
	}
}

func (r *FakeRepo) CreateThread(_ context.Context, thread *forum.Thread) (*forum.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *thread
	stored.ID = r.nextThreadID
	r.nextThreadID++
	stored.CreatedAt = r.nowFunc()
	stored.UpdatedAt = stored.CreatedAt
	r.threads[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (r *FakeRepo) GetThread(_ context.Context, id int64) (*forum.Thread, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *t
	copied.PostCount = int64(len(r.posts[id]))
	return &copied, nil
}

func (r *FakeRepo) ListThreads(_ context.Context, category string, offset, limit int) ([]*forum.Thread, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*forum.Thread, 0, len(r.threads))
	for _, t := range r.threads {
		if category != "" && t.Category != category {
			continue
		}
		copied := *t
		copied.PostCount = int64(len(r.posts[t.ID]))
		all = append(all, &copied)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Pinned != all[j].Pinned {
			return all[i].Pinned
		}
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *FakeRepo) DeleteThread(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.threads, id)
	delete(r.posts, id)
	return nil
}

func (r *FakeRepo) CreatePost(_ context.Context, post *forum.Post) (*forum.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.threads[post.ThreadID]; !ok {
		return nil, apperrors.ErrNotFound
	}

	stored := *post
	stored.ID = r.nextPostID
	r.nextPostID++
	stored.CreatedAt = r.nowFunc()
	stored.UpdatedAt = stored.CreatedAt
	r.posts[post.ThreadID] = append(r.posts[post.ThreadID], &stored)

	copied := stored
	return &copied, nil
}

func (r *FakeRepo) ListPosts(_ context.Context, threadID int64, offset, limit int) ([]*forum.Post, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := r.posts[threadID]
	total := int64(len(posts))
	if offset >= len(posts) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}

	page := make([]*forum.Post, 0, end-offset)
	for _, p := range posts[offset:end] {
		copied := *p
		page = append(page, &copied)
	}
	return page, total, nil
}
