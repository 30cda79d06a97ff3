// Package tutorials manages the learning content: modules grouped by
// category and their ordered lessons.
package tutorials

import "time"

type Module struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category,omitempty"`
	Difficulty  string    `db:"difficulty" json:"difficulty,omitempty"`
	OrderIndex  int       `db:"display_order" json:"orderIndex"`
	Published   bool      `db:"is_published" json:"isPublished"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type Lesson struct {
	ID         int64     `db:"id" json:"id"`
	ModuleID   int64     `db:"module_id" json:"moduleId"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"` // markdown
	Type       string    `db:"type" json:"type,omitempty"`
	OrderIndex int       `db:"display_order" json:"orderIndex"`
	Published  bool      `db:"is_published" json:"isPublished"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
