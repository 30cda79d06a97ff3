// Package server is the HTTP surface: route registration, the ordered
// request-security pipeline, and the JSON handlers.
package server

import (
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/xquti/mdb-backend/auth"
	"github.com/xquti/mdb-backend/forum"
	"github.com/xquti/mdb-backend/internal/config"
	"github.com/xquti/mdb-backend/ratelimit"
	"github.com/xquti/mdb-backend/realtime"
	"github.com/xquti/mdb-backend/search"
	"github.com/xquti/mdb-backend/tutorials"
	"github.com/xquti/mdb-backend/users"
)

// OidcConfig carries the pieces of the upstream identity provider
// integration. It is optional; without it the oauth2 routes answer 503.
type OidcConfig struct {
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
	Verifier     *oidc.IDTokenVerifier
}

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	limiter   *ratelimit.Limiter
	users     users.Repo
	forums    *forum.Service
	tutorials *tutorials.Service
	search    *search.Index
	hub       *realtime.Hub
	validate  *validator.Validate
	oidc      *OidcConfig
}

type Option func(*Server)

// WithOIDC wires the upstream identity provider.
func WithOIDC(cfg *OidcConfig) Option {
	return func(s *Server) {
		s.oidc = cfg
	}
}

func New(
	cfg config.Config,
	authService *auth.Service,
	limiter *ratelimit.Limiter,
	userRepo users.Repo,
	forumService *forum.Service,
	tutorialService *tutorials.Service,
	searchIndex *search.Index,
	hub *realtime.Hub,
	options ...Option,
) (*Server, error) {
	if authService == nil {
		return nil, errors.New("[Server.New] auth service is required")
	}
	if limiter == nil {
		return nil, errors.New("[Server.New] rate limiter is required")
	}
	if userRepo == nil {
		return nil, errors.New("[Server.New] user repo is required")
	}
	if forumService == nil {
		return nil, errors.New("[Server.New] forum service is required")
	}
	if tutorialService == nil {
		return nil, errors.New("[Server.New] tutorial service is required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		limiter:   limiter,
		users:     userRepo,
		forums:    forumService,
		tutorials: tutorialService,
		search:    searchIndex,
		hub:       hub,
		validate:  validator.New(),
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	api := s.pipeline(ratelimit.PolicyAPI, "api")
	authPolicy := s.pipeline(ratelimit.PolicyAuth, "auth")
	postPolicy := s.pipeline(ratelimit.PolicyForumPost, "forum_post")

	s.RegisterRouteFunc("GET /health", ChainMiddleware(s.healthHandler, s.SecurityHeadersMiddleware))

	s.RegisterRouteFunc("GET /api/auth/me", ChainMiddleware(s.meHandler, api...))
	s.RegisterRouteFunc("POST /api/auth/refresh", ChainMiddleware(s.refreshHandler, authPolicy...))
	s.RegisterRouteFunc("POST /api/auth/logout", ChainMiddleware(s.logoutHandler, authPolicy...))
	s.RegisterRouteFunc("POST /api/auth/logout-all", ChainMiddleware(s.logoutAllHandler, authPolicy...))

	s.RegisterRouteFunc("GET /oauth2/authorize", ChainMiddleware(s.oauthAuthorizeHandler, authPolicy...))
	s.RegisterRouteFunc("GET /oauth2/callback", ChainMiddleware(s.oauthCallbackHandler, authPolicy...))

	s.RegisterRouteFunc("GET /api/forums/threads", ChainMiddleware(s.listThreadsHandler, api...))
	s.RegisterRouteFunc("POST /api/forums/threads", ChainMiddleware(s.createThreadHandler, postPolicy...))
	s.RegisterRouteFunc("GET /api/forums/threads/{id}", ChainMiddleware(s.getThreadHandler, api...))
	s.RegisterRouteFunc("DELETE /api/forums/threads/{id}", ChainMiddleware(s.deleteThreadHandler, api...))
	s.RegisterRouteFunc("GET /api/forums/threads/{id}/posts", ChainMiddleware(s.listPostsHandler, api...))
	s.RegisterRouteFunc("POST /api/forums/threads/{id}/posts", ChainMiddleware(s.createPostHandler, postPolicy...))

	s.RegisterRouteFunc("GET /api/tutorials/modules", ChainMiddleware(s.listModulesHandler, api...))
	s.RegisterRouteFunc("GET /api/tutorials/modules/{id}", ChainMiddleware(s.getModuleHandler, api...))
	s.RegisterRouteFunc("GET /api/tutorials/modules/{id}/lessons", ChainMiddleware(s.listLessonsHandler, api...))
	s.RegisterRouteFunc("POST /api/tutorials/modules", ChainMiddleware(s.saveModuleHandler, api...))
	s.RegisterRouteFunc("PUT /api/tutorials/modules/{id}", ChainMiddleware(s.saveModuleHandler, api...))
	s.RegisterRouteFunc("POST /api/tutorials/modules/{id}/lessons", ChainMiddleware(s.saveLessonHandler, api...))

	s.RegisterRouteFunc("GET /api/search/threads", ChainMiddleware(s.searchThreadsHandler, api...))
	s.RegisterRouteFunc("GET /api/search/posts", ChainMiddleware(s.searchPostsHandler, api...))

	s.RegisterRouteFunc("GET /ws/forum", ChainMiddleware(s.websocketHandler, s.wsPipeline()...))
}

// pipeline is the ordered security chain wrapped around every API
// route. Security headers and CORS are outermost so even a rate-limit
// or validation short-circuit carries them; then the rate limit check,
// input validation, and identity extraction, in that order.
func (s *Server) pipeline(policy ratelimit.Policy, class string) []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.RecoverMiddleware,
		s.LoggingMiddleware,
		s.SecurityHeadersMiddleware,
		s.CorsMiddleware,
		s.RateLimitMiddleware(policy, class),
		s.InputValidationMiddleware,
		s.AuthenticationMiddleware,
	}
}

// wsPipeline skips the body validation that makes no sense on a
// websocket upgrade but keeps the security headers, rate limit and
// identity steps, so even a rejected upgrade is a labeled response.
func (s *Server) wsPipeline() []func(http.HandlerFunc) http.HandlerFunc {
	return []func(http.HandlerFunc) http.HandlerFunc{
		s.RecoverMiddleware,
		s.LoggingMiddleware,
		s.SecurityHeadersMiddleware,
		s.RateLimitMiddleware(ratelimit.PolicyAPI, "api"),
		s.AuthenticationMiddleware,
	}
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Debug().Str("method", parts[0]).Str("path", parts[1]).Msg("route registered")
		} else {
			log.Debug().Str("path", parts[0]).Msg("route registered")
		}
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}
