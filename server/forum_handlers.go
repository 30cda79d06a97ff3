package server

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/users"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type createThreadRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=200"`
	Content  string `json:"content" validate:"required,min=1,max=50000"`
	Category string `json:"category" validate:"omitempty,max=50"`
}

type createPostRequest struct {
	Content string `json:"content" validate:"required,min=1,max=50000"`
}

// currentUser loads the full account for the request identity. nil
// means anonymous (including a token whose account has vanished); an
// error means the lookup itself failed and the caller should answer
// with a server error, not a 401.
func (s *Server) currentUser(r *http.Request) (*users.User, error) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		return nil, nil
	}
	user, err := s.users.GetByEmail(r.Context(), identity.Subject)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

func pagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) listThreadsHandler(w http.ResponseWriter, r *http.Request) {
	page, size := pagination(r)
	result, err := s.forums.ListThreads(r.Context(), r.URL.Query().Get("category"), page, size)
	if err != nil {
		log.Error().Err(err).Msg("failed to list threads")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) getThreadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	thread, err := s.forums.GetThread(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load thread")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

func (s *Server) createThreadHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		log.Error().Err(err).Msg("failed to load request user")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		respondUnauthorized(w)
		return
	}

	var req createThreadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	thread, err := s.forums.CreateThread(r.Context(), user, req.Title, req.Content, req.Category)
	if err != nil {
		log.Error().Err(err).Msg("failed to create thread")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, thread)
}

func (s *Server) deleteThreadHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		log.Error().Err(err).Msg("failed to load request user")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		respondUnauthorized(w)
		return
	}

	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	err = s.forums.DeleteThread(r.Context(), user, id)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperrors.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case err != nil:
		log.Error().Err(err).Msg("failed to delete thread")
		respondError(w, http.StatusInternalServerError, "internal server error")
	default:
		respondJSON(w, http.StatusNoContent, nil)
	}
}

func (s *Server) listPostsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	page, size := pagination(r)
	result, err := s.forums.ListPosts(r.Context(), id, page, size)
	if errors.Is(err, apperrors.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to list posts")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) createPostHandler(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		log.Error().Err(err).Msg("failed to load request user")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		respondUnauthorized(w)
		return
	}

	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	post, err := s.forums.CreatePost(r.Context(), user, id, req.Content)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperrors.ErrThreadLocked):
		respondError(w, http.StatusConflict, "thread is locked")
	case err != nil:
		log.Error().Err(err).Msg("failed to create post")
		respondError(w, http.StatusInternalServerError, "internal server error")
	default:
		respondJSON(w, http.StatusCreated, post)
	}
}
