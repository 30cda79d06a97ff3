package server

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
)

const refreshCookieName = "mdb_refresh"

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// meHandler returns the authenticated user's profile.
func (s *Server) meHandler(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondUnauthorized(w)
		return
	}

	user, err := s.users.GetByEmail(r.Context(), identity.Subject)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		// The account vanished after the token was issued.
		respondUnauthorized(w)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to load authenticated user")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// refreshHandler exchanges the refresh cookie for a new access token.
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		respondUnauthorized(w)
		return
	}

	access, expiresAt, err := s.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		respondUnauthorized(w)
		return
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}

// logoutHandler revokes the presented access token and the refresh
// cookie, then clears the cookie. It succeeds even for anonymous
// callers so logout is idempotent.
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	rawAccess := bearerToken(r)

	rawRefresh := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		rawRefresh = cookie.Value
	}

	if err := s.auth.Logout(r.Context(), rawAccess, rawRefresh); err != nil {
		log.Error().Err(err).Msg("logout revocation failed")
	}

	s.clearRefreshCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// logoutAllHandler writes the user's logout watermark, invalidating
// every outstanding token.
func (s *Server) logoutAllHandler(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondUnauthorized(w)
		return
	}

	if err := s.auth.LogoutAll(r.Context(), identity.Subject); err != nil {
		log.Error().Err(err).Msg("logout-all failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.clearRefreshCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out everywhere"})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.config.IsHTTPSOnly(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.IsHTTPSOnly(),
		SameSite: http.SameSiteStrictMode,
	})
}
