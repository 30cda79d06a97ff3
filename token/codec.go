// Package token implements the credential core: a Codec that issues and
// verifies signed tokens, and a Blacklist that tracks revocations in a
// shared key-value store.
package token

import (
	"crypto/sha256"
	"io"
	"regexp"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
)

// Type distinguishes short-lived access credentials from long-lived
// refresh credentials.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const (
	minSecretLength  = 64
	signingKeyLength = 32
	typeClaim        = "type"
)

// hkdfInfo binds the derived key to its purpose so the same operator
// secret can never yield the same key for a different use.
const hkdfInfo = "mdb-token-signing"

// simplePattern matches short all-alphanumeric secrets that offer no
// meaningful entropy even when they pass the placeholder checks.
var simplePattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,20}$`)

// placeholderFragments are substrings of shipped-by-default secrets.
var placeholderFragments = []string{
	"please-change-this",
	"super-secret",
	"CHANGE_THIS",
	"default",
}

// Claims is the decoded, fully verified content of a credential. Parse
// never returns a partially populated Claims.
type Claims struct {
	ID        string // jti
	Subject   string
	Type      Type
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

// Codec derives a signing key from the configured secret and issues and
// parses signed tokens. It is constructed once at startup by the
// composition root and passed to every component needing it.
type Codec struct {
	signingKey []byte
	issuer     string
	audience   string
	nowFunc    func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec validates the operator-supplied secret and derives the
// signing key from it. A weak or missing secret is a fatal
// configuration error.
func NewCodec(secret, issuer, audience string, options ...CodecOption) (*Codec, error) {
	key, err := DeriveSigningKey(secret)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		signingKey: key,
		issuer:     issuer,
		audience:   audience,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// DeriveSigningKey turns the raw secret into a fixed-length key via
// HKDF-SHA256. The signing primitive never sees the operator-supplied
// secret material directly.
func DeriveSigningKey(secret string) ([]byte, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.Wrap(apperrors.ErrWeakSecret, "[DeriveSigningKey] secret is empty")
	}
	if len(secret) < minSecretLength {
		return nil, errors.Wrapf(apperrors.ErrWeakSecret, "[DeriveSigningKey] secret shorter than %d characters", minSecretLength)
	}
	for _, fragment := range placeholderFragments {
		if strings.Contains(secret, fragment) {
			return nil, errors.Wrap(apperrors.ErrWeakSecret, "[DeriveSigningKey] secret contains a placeholder value")
		}
	}
	if simplePattern.MatchString(secret) {
		return nil, errors.Wrap(apperrors.ErrWeakSecret, "[DeriveSigningKey] secret matches a simple pattern")
	}

	key := make([]byte, signingKeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Wrap(err, "[DeriveSigningKey] hkdf")
	}
	return key, nil
}

// Issue creates a signed credential for subject. Issued-at and
// not-before are both set to the current time; expiry to now+ttl.
func (c *Codec) Issue(subject string, typ Type, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("[Codec.Issue] subject cannot be empty")
	}

	now := c.nowFunc()
	claims := jwtlib.MapClaims{
		"iss":     c.issuer,
		"aud":     c.audience,
		"sub":     subject,
		typeClaim: string(typ),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
		"jti":     uuid.New().String(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.Issue] SignedString")
	}
	return signed, nil
}

// Parse verifies the token's signature, issuer, audience and time
// claims and returns the decoded claims. Callers only ever see a fully
// validated result; every failure is mapped to one of the sentinel
// token errors.
func (c *Codec) Parse(raw string) (*Claims, error) {
	parser := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(c.issuer),
		jwtlib.WithAudience(c.audience),
		jwtlib.WithIssuedAt(),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(c.nowFunc),
	)

	parsed, err := parser.Parse(raw, func(t *jwtlib.Token) (any, error) {
		return c.signingKey, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	return c.claimsFromMap(mapClaims)
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return apperrors.ErrMalformedToken
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return apperrors.ErrExpiredToken
	default:
		// Signature mismatch, wrong issuer/audience, future iat, nbf —
		// all collapse to "invalid".
		return apperrors.ErrInvalidToken
	}
}

func (c *Codec) claimsFromMap(m jwtlib.MapClaims) (*Claims, error) {
	sub, _ := m["sub"].(string)
	if sub == "" {
		return nil, apperrors.ErrInvalidToken
	}

	iat, ok := m["iat"].(float64)
	if !ok {
		// WithIssuedAt only validates iat when present; absence is still
		// a rejection because the watermark check depends on it.
		return nil, apperrors.ErrInvalidToken
	}
	exp, ok := m["exp"].(float64)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}

	claims := &Claims{
		Subject:   sub,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}
	if jti, ok := m["jti"].(string); ok {
		claims.ID = jti
	}
	if iss, ok := m["iss"].(string); ok {
		claims.Issuer = iss
	}
	if aud, err := m.GetAudience(); err == nil && len(aud) > 0 {
		claims.Audience = aud[0]
	}
	if nbf, ok := m["nbf"].(float64); ok {
		claims.NotBefore = time.Unix(int64(nbf), 0)
	}

	typ, _ := m[typeClaim].(string)
	switch Type(typ) {
	case TypeAccess, TypeRefresh:
		claims.Type = Type(typ)
	default:
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
