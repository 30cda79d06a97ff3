// Package auth verifies bearer credentials and manages the token
// lifecycle: issuing access/refresh pairs, refreshing, and revoking on
// logout.
package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/token"
)

// RoleResolver maps an authenticated subject to its roles. The resolver
// is consulted only after the credential has fully verified.
type RoleResolver interface {
	RolesFor(ctx context.Context, subject string) ([]string, error)
}

// Identity is the result of a successful authentication.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole reports whether the identity carries the named role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Pair is a freshly issued access/refresh credential pair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Service ties the codec, the blacklist and the role resolver into the
// verification pipeline used by every protected request.
type Service struct {
	codec      *token.Codec
	blacklist  *token.Blacklist
	roles      RoleResolver
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(codec *token.Codec, blacklist *token.Blacklist, roles RoleResolver, accessTTL, refreshTTL time.Duration, options ...ServiceOption) (*Service, error) {
	if codec == nil {
		return nil, errors.New("[NewService] codec is required")
	}
	if blacklist == nil {
		return nil, errors.New("[NewService] blacklist is required")
	}
	if roles == nil {
		return nil, errors.New("[NewService] role resolver is required")
	}

	s := &Service{
		codec:      codec,
		blacklist:  blacklist,
		roles:      roles,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Authenticate verifies an access token end to end. The checks run in a
// fixed order: claim verification, then individual revocation, then the
// per-user logout watermark, and only then role resolution. Revocation
// lookups fail secure, so a store outage rejects the request rather
// than letting a possibly revoked token through.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Identity, error) {
	claims, err := s.verify(ctx, raw, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	roles, err := s.roles.RolesFor(ctx, claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Authenticate] RolesFor")
	}

	return &Identity{Subject: claims.Subject, Roles: roles}, nil
}

// AuthenticateAs verifies the token and additionally requires it to
// belong to expectedSubject. The comparison is constant-time so the
// check leaks nothing about the token's actual subject.
func (s *Service) AuthenticateAs(ctx context.Context, raw, expectedSubject string) (*Identity, error) {
	claims, err := s.verify(ctx, raw, token.TypeAccess)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(expectedSubject)) != 1 {
		return nil, apperrors.ErrInvalidToken
	}

	roles, err := s.roles.RolesFor(ctx, claims.Subject)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.AuthenticateAs] RolesFor")
	}

	return &Identity{Subject: claims.Subject, Roles: roles}, nil
}

// IssuePair mints a new access/refresh pair for subject.
func (s *Service) IssuePair(subject string) (*Pair, error) {
	access, err := s.codec.Issue(subject, token.TypeAccess, s.accessTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.IssuePair] access")
	}
	refresh, err := s.codec.Issue(subject, token.TypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.IssuePair] refresh")
	}

	now := s.nowFunc()
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(s.accessTTL),
		RefreshExpiresAt: now.Add(s.refreshTTL),
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token itself stays valid until it expires or the user logs
// out.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (string, time.Time, error) {
	claims, err := s.verify(ctx, rawRefresh, token.TypeRefresh)
	if err != nil {
		return "", time.Time{}, err
	}

	access, err := s.codec.Issue(claims.Subject, token.TypeAccess, s.accessTTL)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[Service.Refresh] Issue")
	}
	return access, s.nowFunc().Add(s.accessTTL), nil
}

// Logout revokes the presented tokens. Both revocations are attempted
// even if the first fails; the first error is reported.
func (s *Service) Logout(ctx context.Context, rawAccess, rawRefresh string) error {
	var firstErr error
	for _, raw := range []string{rawAccess, rawRefresh} {
		if raw == "" {
			continue
		}
		claims, err := s.codec.Parse(raw)
		if err != nil {
			// Expired or garbage tokens have nothing left to revoke.
			continue
		}
		if err := s.blacklist.Revoke(ctx, raw, claims.ExpiresAt); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "[Service.Logout] Revoke")
		}
	}
	return firstErr
}

// LogoutAll invalidates every outstanding token for subject via the
// logout watermark.
func (s *Service) LogoutAll(ctx context.Context, subject string) error {
	if err := s.blacklist.RevokeAllForUser(ctx, subject); err != nil {
		return errors.Wrap(err, "[Service.LogoutAll] RevokeAllForUser")
	}
	return nil
}

// verify runs the shared checks: parse and validate claims, require the
// expected token type, then consult the blacklist and the watermark.
func (s *Service) verify(ctx context.Context, raw string, want token.Type) (*token.Claims, error) {
	claims, err := s.codec.Parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.Type != want {
		return nil, apperrors.ErrWrongTokenType
	}
	if s.blacklist.IsRevoked(ctx, raw) {
		return nil, apperrors.ErrRevokedToken
	}
	if s.blacklist.IssuedBeforeWatermark(ctx, claims.Subject, claims.IssuedAt) {
		return nil, apperrors.ErrRevokedToken
	}
	return claims, nil
}
