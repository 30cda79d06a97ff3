package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xquti/mdb-backend/users"
)

const (
	stateCookieName    = "mdb_oauth_state"
	redirectCookieName = "mdb_oauth_redirect"
	stateCookieTTL     = 10 * time.Minute
)

// oauthAuthorizeHandler starts the provider login: it stores the CSRF
// state and the validated post-login redirect in short-lived cookies
// and sends the user-agent to the identity provider.
func (s *Server) oauthAuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		respondError(w, http.StatusServiceUnavailable, "login is not configured")
		return
	}

	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		var ok bool
		if redirectURI, ok = s.defaultRedirectURI(); !ok {
			respondError(w, http.StatusServiceUnavailable, "login is not configured")
			return
		}
	}
	if !s.isAuthorizedRedirect(redirectURI) {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	state, err := randomToken()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.setFlowCookie(w, stateCookieName, state)
	s.setFlowCookie(w, redirectCookieName, redirectURI)

	http.Redirect(w, r, s.oidc.OAuth2Config.AuthCodeURL(state), http.StatusFound)
}

// oauthCallbackHandler completes the provider login: verify state,
// exchange the code, verify the ID token, provision the user, issue a
// token pair and hand the access token back to the frontend via the
// allow-listed redirect.
func (s *Server) oauthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if s.oidc == nil {
		respondError(w, http.StatusServiceUnavailable, "login is not configured")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		respondUnauthorized(w)
		return
	}
	s.clearFlowCookie(w, stateCookieName)

	redirectURI, ok := s.defaultRedirectURI()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "login is not configured")
		return
	}
	if cookie, err := r.Cookie(redirectCookieName); err == nil && s.isAuthorizedRedirect(cookie.Value) {
		redirectURI = cookie.Value
	}
	s.clearFlowCookie(w, redirectCookieName)

	oauthToken, err := s.oidc.OAuth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("code exchange failed")
		respondUnauthorized(w)
		return
	}

	rawIDToken, ok := oauthToken.Extra("id_token").(string)
	if !ok {
		respondUnauthorized(w)
		return
	}
	idToken, err := s.oidc.Verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		log.Error().Err(err).Msg("id token verification failed")
		respondUnauthorized(w)
		return
	}

	var claims struct {
		Email    string `json:"email"`
		Verified bool   `json:"email_verified"`
		Name     string `json:"name"`
		Picture  string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil || claims.Email == "" {
		respondUnauthorized(w)
		return
	}

	user, err := s.users.UpsertFromProvider(r.Context(), &users.User{
		Email:     claims.Email,
		Username:  claims.Name,
		AvatarURL: claims.Picture,
		Provider:  idToken.Issuer,
	})
	if err != nil {
		log.Error().Err(err).Msg("user provisioning failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	pair, err := s.auth.IssuePair(user.Email)
	if err != nil {
		log.Error().Err(err).Msg("token issue failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresAt)

	target, _ := url.Parse(redirectURI)
	query := target.Query()
	query.Set("token", pair.AccessToken)
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

// defaultRedirectURI is the first allow-listed post-login target. An
// empty allow-list means the login flow cannot complete.
func (s *Server) defaultRedirectURI() (string, bool) {
	uris := s.config.GetAuthorizedRedirectURIs()
	if len(uris) == 0 {
		return "", false
	}
	return uris[0], true
}

func (s *Server) isAuthorizedRedirect(redirectURI string) bool {
	for _, allowed := range s.config.GetAuthorizedRedirectURIs() {
		if redirectURI == allowed {
			return true
		}
	}
	return false
}

func (s *Server) setFlowCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/oauth2",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.config.IsHTTPSOnly(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearFlowCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/oauth2",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.IsHTTPSOnly(),
		SameSite: http.SameSiteLaxMode,
	})
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(buf), nil
}
