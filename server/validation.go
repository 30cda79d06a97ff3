package server

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20 // 1MB

// Signature patterns for obviously hostile input. These are a coarse
// outer screen, not a substitute for parameterized queries and output
// encoding further in.
var (
	sqlInjectionPattern  = regexp.MustCompile(`(?i)(\bunion\b.+\bselect\b|\bselect\b.+\bfrom\b|\binsert\b\s+\binto\b|\bdelete\b\s+\bfrom\b|\bdrop\b\s+\btable\b|\bupdate\b.+\bset\b|--\s|;\s*--|\bor\b\s+\d+\s*=\s*\d+|'\s*or\s*')`)
	xssPattern           = regexp.MustCompile(`(?i)(<\s*script|javascript\s*:|\bon\w+\s*=|<\s*iframe|<\s*object|<\s*embed|expression\s*\()`)
	pathTraversalPattern = regexp.MustCompile(`(\.\./|\.\.\\|%2e%2e%2f|%2e%2e/|\.\.%2f)`)
)

// Headers whose values legitimately contain characters the signature
// patterns would flag.
var skippedHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"User-Agent":    {},
}

// InputValidationMiddleware screens query parameters, headers and the
// request body for injection signatures and control characters. All
// rejections are a generic 400 so the response leaks nothing about
// which pattern fired.
func (s *Server) InputValidationMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.validateHeaders(r) || !s.validateQuery(r) {
			respondError(w, http.StatusBadRequest, "invalid request")
			return
		}

		if r.Body != nil && r.ContentLength != 0 {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
			if err != nil {
				respondError(w, http.StatusBadRequest, "invalid request")
				return
			}
			if len(body) > maxBodyBytes {
				respondError(w, http.StatusBadRequest, "invalid request")
				return
			}
			if unsafeInput(string(body)) {
				log.Warn().Str("path", r.URL.Path).Msg("request body failed input screening")
				respondError(w, http.StatusBadRequest, "invalid request")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		next(w, r)
	}
}

func (s *Server) validateHeaders(r *http.Request) bool {
	for name, values := range r.Header {
		if _, skip := skippedHeaders[name]; skip {
			continue
		}
		for _, value := range values {
			if strings.ContainsAny(value, "\r\n\x00") {
				log.Warn().Str("header", name).Msg("header failed input screening")
				return false
			}
			if unsafeInput(value) {
				log.Warn().Str("header", name).Msg("header failed input screening")
				return false
			}
		}
	}
	return true
}

func (s *Server) validateQuery(r *http.Request) bool {
	for _, values := range r.URL.Query() {
		for _, value := range values {
			if unsafeInput(value) {
				log.Warn().Str("path", r.URL.Path).Msg("query parameter failed input screening")
				return false
			}
		}
	}
	return true
}

func unsafeInput(value string) bool {
	if strings.ContainsRune(value, '\x00') {
		return true
	}
	return sqlInjectionPattern.MatchString(value) ||
		xssPattern.MatchString(value) ||
		pathTraversalPattern.MatchString(value)
}
