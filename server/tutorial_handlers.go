package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/tutorials"
)

type saveModuleRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"omitempty,max=50"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	OrderIndex  int    `json:"orderIndex" validate:"gte=0"`
	Published   bool   `json:"isPublished"`
}

type saveLessonRequest struct {
	Title      string `json:"title" validate:"required,min=3,max=200"`
	Content    string `json:"content" validate:"required"`
	Type       string `json:"type" validate:"omitempty,oneof=text video interactive"`
	OrderIndex int    `json:"orderIndex" validate:"gte=0"`
	Published  bool   `json:"isPublished"`
}

func (s *Server) listModulesHandler(w http.ResponseWriter, r *http.Request) {
	modules, err := s.tutorials.ListModules(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		log.Error().Err(err).Msg("failed to list modules")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, modules)
}

func (s *Server) getModuleHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	module, err := s.tutorials.GetModule(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load module")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, module)
}

func (s *Server) listLessonsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	lessons, err := s.tutorials.ListLessons(r.Context(), id)
	if errors.Is(err, apperrors.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to list lessons")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, lessons)
}

// saveModuleHandler serves both create (POST, no id) and update (PUT
// with id).
func (s *Server) saveModuleHandler(w http.ResponseWriter, r *http.Request) {
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

	var req saveModuleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	module := &tutorials.Module{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  req.Difficulty,
		OrderIndex:  req.OrderIndex,
		Published:   req.Published,
	}
	status := http.StatusCreated
	if r.Method == http.MethodPut {
		id, ok := pathID(r)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}
		module.ID = id
		status = http.StatusOK
	}

	stored, err := s.tutorials.SaveModule(r.Context(), user, module)
	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case err != nil:
		log.Error().Err(err).Msg("failed to save module")
		respondError(w, http.StatusInternalServerError, "internal server error")
	default:
		respondJSON(w, status, stored)
	}
}

func (s *Server) saveLessonHandler(w http.ResponseWriter, r *http.Request) {
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

	moduleID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	var req saveLessonRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	lesson, err := s.tutorials.SaveLesson(r.Context(), user, &tutorials.Lesson{
		ModuleID:   moduleID,
		Title:      req.Title,
		Content:    req.Content,
		Type:       req.Type,
		OrderIndex: req.OrderIndex,
		Published:  req.Published,
	})
	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case err != nil:
		log.Error().Err(err).Msg("failed to save lesson")
		respondError(w, http.StatusInternalServerError, "internal server error")
	default:
		respondJSON(w, http.StatusCreated, lesson)
	}
}
