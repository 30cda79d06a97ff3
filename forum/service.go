package forum

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/users"
)

// Indexer receives new and deleted content for the search index.
type Indexer interface {
	IndexThread(thread *Thread) error
	IndexPost(post *Post) error
	RemoveThread(threadID int64) error
}

// Broadcaster fans new content out to connected clients.
type Broadcaster interface {
	ThreadCreated(thread *Thread)
	PostCreated(post *Post)
}

// Service applies the forum's rules on top of the repo and drives the
// search and broadcast side effects. Indexing and broadcasting are
// best-effort: a failure is logged, never surfaced to the author.
type Service struct {
	repo        Repo
	indexer     Indexer
	broadcaster Broadcaster
}

func NewService(repo Repo, indexer Indexer, broadcaster Broadcaster) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] repo is required")
	}
	if indexer == nil {
		return nil, errors.New("[NewService] indexer is required")
	}
	if broadcaster == nil {
		return nil, errors.New("[NewService] broadcaster is required")
	}
	return &Service{repo: repo, indexer: indexer, broadcaster: broadcaster}, nil
}

func (s *Service) CreateThread(ctx context.Context, author *users.User, title, content, category string) (*Thread, error) {
	thread, err := s.repo.CreateThread(ctx, &Thread{
		Title:    title,
		Content:  content,
		Category: category,
		AuthorID: author.ID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateThread]")
	}

	if err := s.indexer.IndexThread(thread); err != nil {
		log.Error().Err(err).Int64("thread_id", thread.ID).Msg("failed to index thread")
	}
	s.broadcaster.ThreadCreated(thread)
	return thread, nil
}

func (s *Service) GetThread(ctx context.Context, id int64) (*Thread, error) {
	return s.repo.GetThread(ctx, id)
}

func (s *Service) ListThreads(ctx context.Context, category string, page, size int) (Page[*Thread], error) {
	threads, total, err := s.repo.ListThreads(ctx, category, page*size, size)
	if err != nil {
		return Page[*Thread]{}, errors.Wrap(err, "[Service.ListThreads]")
	}
	return NewPage(threads, page, size, total), nil
}

// DeleteThread removes a thread. Only the author or an admin may
// delete.
func (s *Service) DeleteThread(ctx context.Context, actor *users.User, id int64) error {
	thread, err := s.repo.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if thread.AuthorID != actor.ID && !actor.HasRole(users.RoleAdmin) {
		return apperrors.ErrForbidden
	}

	if err := s.repo.DeleteThread(ctx, id); err != nil {
		return errors.Wrap(err, "[Service.DeleteThread]")
	}
	if err := s.indexer.RemoveThread(id); err != nil {
		log.Error().Err(err).Int64("thread_id", id).Msg("failed to remove thread from index")
	}
	return nil
}

// CreatePost appends a post to a thread. Locked threads reject new
// posts.
func (s *Service) CreatePost(ctx context.Context, author *users.User, threadID int64, content string) (*Post, error) {
	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Locked {
		return nil, apperrors.ErrThreadLocked
	}

	post, err := s.repo.CreatePost(ctx, &Post{
		ThreadID: threadID,
		Content:  content,
		AuthorID: author.ID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreatePost]")
	}

	if err := s.indexer.IndexPost(post); err != nil {
		log.Error().Err(err).Int64("post_id", post.ID).Msg("failed to index post")
	}
	s.broadcaster.PostCreated(post)
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, threadID int64, page, size int) (Page[*Post], error) {
	if _, err := s.repo.GetThread(ctx, threadID); err != nil {
		return Page[*Post]{}, err
	}
	posts, total, err := s.repo.ListPosts(ctx, threadID, page*size, size)
	if err != nil {
		return Page[*Post]{}, errors.Wrap(err, "[Service.ListPosts]")
	}
	return NewPage(posts, page, size, total), nil
}
