package users

import (
	"context"

	"github.com/pkg/errors"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
)

// Resolver adapts the user repo to the role lookup the authentication
// pipeline needs.
type Resolver struct {
	repo Repo
}

func NewResolver(repo Repo) *Resolver {
	return &Resolver{repo: repo}
}

// RolesFor returns the roles of the account identified by subject
// (the account's email). An unknown subject is an error: a verified
// token for a user we never provisioned means something is wrong.
func (r *Resolver) RolesFor(ctx context.Context, subject string) ([]string, error) {
	user, err := r.repo.GetByEmail(ctx, subject)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Resolver.RolesFor]")
	}
	return user.Roles, nil
}
