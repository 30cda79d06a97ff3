package forum

import "context"

// Repo is the persistence boundary for threads and posts. Lookups
// return apperrors.ErrNotFound when nothing matches.
type Repo interface {
	CreateThread(ctx context.Context, thread *Thread) (*Thread, error)
	GetThread(ctx context.Context, id int64) (*Thread, error)

	// ListThreads returns a page of threads, pinned first, then newest
	// first. An empty category matches all threads.
	ListThreads(ctx context.Context, category string, offset, limit int) ([]*Thread, int64, error)

	DeleteThread(ctx context.Context, id int64) error

	CreatePost(ctx context.Context, post *Post) (*Post, error)
	ListPosts(ctx context.Context, threadID int64, offset, limit int) ([]*Post, int64, error)
}
