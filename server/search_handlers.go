package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xquti/mdb-backend/realtime"
	"github.com/xquti/mdb-backend/search"
)

const maxSearchResults = 50

func (s *Server) searchThreadsHandler(w http.ResponseWriter, r *http.Request) {
	s.searchHandler(w, r, func(q string) ([]search.Hit, error) {
		return s.search.SearchThreads(q, maxSearchResults)
	})
}

func (s *Server) searchPostsHandler(w http.ResponseWriter, r *http.Request) {
	s.searchHandler(w, r, func(q string) ([]search.Hit, error) {
		return s.search.SearchPosts(q, maxSearchResults)
	})
}

func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request, run func(q string) ([]search.Hit, error)) {
	if s.search == nil {
		respondError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	hits, err := run(q)
	if err != nil {
		log.Error().Err(err).Str("query", q).Msg("search failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": hits})
}

// websocketHandler attaches the client to the broadcast hub.
func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "realtime is not configured")
		return
	}
	realtime.ServeWS(s.hub, w, r, s.config.GetAllowedOrigins().IsAllowedOrigin)
}
