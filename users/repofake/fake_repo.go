// Package repofake provides an in-memory users.Repo for tests.
package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/users"
)

var _ users.Repo = (*FakeRepo)(nil)

type FakeRepo struct {
	mu     sync.RWMutex
	byID   map[int64]*users.User
	nextID int64
}

func New() *FakeRepo {
	return &FakeRepo{
		byID:   make(map[int64]*users.User),
		nextID: 1,
	}
}

func (r *FakeRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *FakeRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *FakeRepo) UpsertFromProvider(_ context.Context, user *users.User) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			existing.Username = user.Username
			existing.AvatarURL = user.AvatarURL
			existing.UpdatedAt = now
			copied := *existing
			return &copied, nil
		}
	}

	stored := *user
	stored.ID = r.nextID
	r.nextID++
	if len(stored.Roles) == 0 {
		stored.Roles = pq.StringArray{users.RoleUser}
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.byID[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

func (r *FakeRepo) List(_ context.Context, offset, limit int) ([]*users.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*users.User, 0, len(r.byID))
	for _, u := range r.byID {
		copied := *u
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

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

func (r *FakeRepo) SetRoles(_ context.Context, email string, roles []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			u.Roles = pq.StringArray(roles)
			u.UpdatedAt = time.Now()
			return nil
		}
	}
	return apperrors.ErrUserNotFound
}
