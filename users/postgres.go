package users

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
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

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetByEmail]")
	}
	return &user, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetByID]")
	}
	return &user, nil
}

func (r *PostgresRepo) UpsertFromProvider(ctx context.Context, user *User) (*User, error) {
	roles := user.Roles
	if len(roles) == 0 {
		roles = pq.StringArray{RoleUser}
	}

	query := `
		INSERT INTO users (email, username, avatar_url, provider, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (email) DO UPDATE
		SET username = EXCLUDED.username,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = now()
		RETURNING *`

	var stored User
	err := r.db.GetContext(ctx, &stored, query, user.Email, user.Username, user.AvatarURL, user.Provider, roles)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.UpsertFromProvider]")
	}
	return &stored, nil
}

func (r *PostgresRepo) List(ctx context.Context, offset, limit int) ([]*User, int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM users`); err != nil {
		return nil, 0, errors.Wrap(err, "[PostgresRepo.List] count")
	}

	list := make([]*User, 0, limit)
	err := r.db.SelectContext(ctx, &list,
		`SELECT * FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[PostgresRepo.List]")
	}
	return list, total, nil
}

func (r *PostgresRepo) SetRoles(ctx context.Context, email string, roles []string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET roles = $1, updated_at = now() WHERE email = $2`,
		pq.StringArray(roles), email)
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.SetRoles]")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.SetRoles] RowsAffected")
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
