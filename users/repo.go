package users

import "context"

// Repo is the persistence boundary for user accounts. Lookups return
// apperrors.ErrUserNotFound when no account matches.
type Repo interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)

	// UpsertFromProvider creates the account on first login and refreshes
	// the profile fields on subsequent ones. New accounts start with the
	// USER role; existing role grants are preserved.
	UpsertFromProvider(ctx context.Context, user *User) (*User, error)

	List(ctx context.Context, offset, limit int) ([]*User, int64, error)
	SetRoles(ctx context.Context, email string, roles []string) error
}
