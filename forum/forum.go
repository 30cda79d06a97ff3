// Package forum implements discussion threads and posts: creation,
// paginated listing with pinned-first ordering, locked threads, and the
// search/broadcast side effects of new content.
package forum

import "time"

type Thread struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	Category   string    `db:"category" json:"category,omitempty"`
	AuthorID   int64     `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName"`
	Pinned     bool      `db:"is_pinned" json:"isPinned"`
	Locked     bool      `db:"is_locked" json:"isLocked"`
	PostCount  int64     `db:"post_count" json:"postCount"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type Post struct {
	ID         int64     `db:"id" json:"id"`
	ThreadID   int64     `db:"thread_id" json:"threadId"`
	Content    string    `db:"content" json:"content"`
	AuthorID   int64     `db:"author_id" json:"authorId"`
	AuthorName string    `db:"author_name" json:"authorName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// Page is the standard paginated response envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int64 `json:"totalPages"`
}

// NewPage wraps content with pagination metadata. A nil slice becomes
// an empty one so the JSON is always an array.
func NewPage[T any](content []T, page, size int, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := int64(0)
	if size > 0 {
		totalPages = (total + int64(size) - 1) / int64(size)
	}
	return Page[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
