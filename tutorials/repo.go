package tutorials

import "context"

// Repo is the persistence boundary for tutorial content. Lookups
// return apperrors.ErrNotFound when nothing matches.
type Repo interface {
	// ListModules returns modules sorted by order index. An empty
	// category matches all; publishedOnly hides drafts.
	ListModules(ctx context.Context, category string, publishedOnly bool) ([]*Module, error)
	GetModule(ctx context.Context, id int64) (*Module, error)
	UpsertModule(ctx context.Context, module *Module) (*Module, error)

	// ListLessons returns a module's lessons sorted by order index.
	ListLessons(ctx context.Context, moduleID int64, publishedOnly bool) ([]*Lesson, error)
	UpsertLesson(ctx context.Context, lesson *Lesson) (*Lesson, error)
}
