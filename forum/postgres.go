package forum

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

const threadColumns = `
	t.id, t.title, t.content, t.category, t.author_id,
	u.username AS author_name, t.is_pinned, t.is_locked,
	(SELECT count(*) FROM forum_posts p WHERE p.thread_id = t.id) AS post_count,
	t.created_at, t.updated_at`

func (r *PostgresRepo) CreateThread(ctx context.Context, thread *Thread) (*Thread, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO forum_threads (title, content, category, author_id, is_pinned, is_locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, false, false, now(), now())
		RETURNING id`,
		thread.Title, thread.Content, thread.Category, thread.AuthorID)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.CreateThread]")
	}
	return r.GetThread(ctx, id)
}

func (r *PostgresRepo) GetThread(ctx context.Context, id int64) (*Thread, error) {
	var thread Thread
	err := r.db.GetContext(ctx, &thread, `
		SELECT `+threadColumns+`
		FROM forum_threads t
		JOIN users u ON u.id = t.author_id
		WHERE t.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.GetThread]")
	}
	return &thread, nil
}

func (r *PostgresRepo) ListThreads(ctx context.Context, category string, offset, limit int) ([]*Thread, int64, error) {
	where := ``
	args := []any{offset, limit}
	if category != "" {
		where = `WHERE t.category = $3`
		args = append(args, category)
	}

	var total int64
	var err error
	if category != "" {
		err = r.db.GetContext(ctx, &total, `SELECT count(*) FROM forum_threads WHERE category = $1`, category)
	} else {
		err = r.db.GetContext(ctx, &total, `SELECT count(*) FROM forum_threads`)
	}
	if err != nil {
		return nil, 0, errors.Wrap(err, "[PostgresRepo.ListThreads] count")
	}

	threads := make([]*Thread, 0, limit)
	err = r.db.SelectContext(ctx, &threads, `
		SELECT `+threadColumns+`
		FROM forum_threads t
		JOIN users u ON u.id = t.author_id
		`+where+`
		ORDER BY t.is_pinned DESC, t.created_at DESC
		OFFSET $1 LIMIT $2`, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[PostgresRepo.ListThreads]")
	}
	return threads, total, nil
}

func (r *PostgresRepo) DeleteThread(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM forum_threads WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.DeleteThread]")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[PostgresRepo.DeleteThread] RowsAffected")
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) CreatePost(ctx context.Context, post *Post) (*Post, error) {
	var stored Post
	err := r.db.GetContext(ctx, &stored, `
		WITH inserted AS (
			INSERT INTO forum_posts (thread_id, content, author_id, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
			RETURNING *
		)
		SELECT i.id, i.thread_id, i.content, i.author_id,
		       u.username AS author_name, i.created_at, i.updated_at
		FROM inserted i
		JOIN users u ON u.id = i.author_id`,
		post.ThreadID, post.Content, post.AuthorID)
	if err != nil {
		return nil, errors.Wrap(err, "[PostgresRepo.CreatePost]")
	}
	return &stored, nil
}

func (r *PostgresRepo) ListPosts(ctx context.Context, threadID int64, offset, limit int) ([]*Post, int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total,
		`SELECT count(*) FROM forum_posts WHERE thread_id = $1`, threadID)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[PostgresRepo.ListPosts] count")
	}

	posts := make([]*Post, 0, limit)
	err = r.db.SelectContext(ctx, &posts, `
		SELECT p.id, p.thread_id, p.content, p.author_id,
		       u.username AS author_name, p.created_at, p.updated_at
		FROM forum_posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.thread_id = $1
		ORDER BY p.created_at ASC
		OFFSET $2 LIMIT $3`, threadID, offset, limit)
	if err != nil {
		return nil, 0, errors.Wrap(err, "[PostgresRepo.ListPosts]")
	}
	return posts, total, nil
}
