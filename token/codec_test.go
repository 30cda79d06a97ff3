package token_test

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xquti/mdb-backend/internal/errors"
	"github.com/xquti/mdb-backend/token"
)

const (
	testSecret   = "a-long-and-sufficiently-random-signing-secret-for-tests-0123456789"
	testIssuer   = "mdb-platform"
	testAudience = "mdb-users"
)

func newTestCodec(t *testing.T, now time.Time) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(testSecret, testIssuer, testAudience,
		token.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)
	return codec
}

func TestNewCodecRejectsWeakSecrets(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too short", "short-secret"},
		{"placeholder please-change-this", "please-change-this-" + strings.Repeat("x", 64)},
		{"placeholder super-secret", "super-secret-" + strings.Repeat("x", 64)},
		{"placeholder CHANGE_THIS", "CHANGE_THIS-" + strings.Repeat("x", 64)},
		{"placeholder default", "default-" + strings.Repeat("x", 64)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := token.NewCodec(test.secret, testIssuer, testAudience)
			require.ErrorIs(t, err, apperrors.ErrWeakSecret)
		})
	}
}

func TestNewCodecAcceptsStrongSecret(t *testing.T) {
	_, err := token.NewCodec(testSecret, testIssuer, testAudience)
	require.NoError(t, err)
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	raw, err := codec.Issue("alice@example.com", token.TypeAccess, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Subject)
	require.Equal(t, token.TypeAccess, claims.Type)
	require.Equal(t, testIssuer, claims.Issuer)
	require.Equal(t, testAudience, claims.Audience)
	require.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	require.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	require.NotEmpty(t, claims.ID)
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	codec := newTestCodec(t, time.Now())
	_, err := codec.Issue("  ", token.TypeAccess, time.Hour)
	require.Error(t, err)
}

func TestParseRejectsMalformedToken(t *testing.T) {
	codec := newTestCodec(t, time.Now())

	for _, raw := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := codec.Parse(raw)
		require.ErrorIs(t, err, apperrors.ErrMalformedToken, "input %q", raw)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, issuedAt)

	raw, err := codec.Issue("alice@example.com", token.TypeAccess, time.Hour)
	require.NoError(t, err)

	later, err := token.NewCodec(testSecret, testIssuer, testAudience,
		token.WithNowFunc(func() time.Time { return issuedAt.Add(2 * time.Hour) }))
	require.NoError(t, err)

	_, err = later.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrExpiredToken)
}

func TestParseRejectsWrongSignature(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)

	other, err := token.NewCodec(testSecret+"-different", testIssuer, testAudience,
		token.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)

	raw, err := other.Issue("alice@example.com", token.TypeAccess, time.Hour)
	require.NoError(t, err)

	_, err = codec.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseRejectsWrongIssuerAndAudience(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)

	foreignIssuer, err := token.NewCodec(testSecret, "someone-else", testAudience,
		token.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)
	raw, err := foreignIssuer.Issue("alice@example.com", token.TypeAccess, time.Hour)
	require.NoError(t, err)
	_, err = codec.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)

	foreignAudience, err := token.NewCodec(testSecret, testIssuer, "other-audience",
		token.WithNowFunc(func() time.Time { return now }))
	require.NoError(t, err)
	raw, err = foreignAudience.Issue("alice@example.com", token.TypeAccess, time.Hour)
	require.NoError(t, err)
	_, err = codec.Parse(raw)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseRejectsUnsignedAlgorithm(t *testing.T) {
	codec := newTestCodec(t, time.Now())

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{
		"iss":  testIssuer,
		"aud":  testAudience,
		"sub":  "alice@example.com",
		"type": "access",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Parse(raw)
	require.Error(t, err)
	require.NotErrorIs(t, err, apperrors.ErrExpiredToken)
}

func TestParseRejectsMissingClaims(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)
	key := signingKeyFor(t)

	tests := []struct {
		name   string
		claims jwtlib.MapClaims
	}{
		{
			"missing exp",
			jwtlib.MapClaims{"iss": testIssuer, "aud": testAudience, "sub": "alice", "type": "access", "iat": now.Unix()},
		},
		{
			"missing iat",
			jwtlib.MapClaims{"iss": testIssuer, "aud": testAudience, "sub": "alice", "type": "access", "exp": now.Add(time.Hour).Unix()},
		},
		{
			"missing sub",
			jwtlib.MapClaims{"iss": testIssuer, "aud": testAudience, "type": "access", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()},
		},
		{
			"unknown type",
			jwtlib.MapClaims{"iss": testIssuer, "aud": testAudience, "sub": "alice", "type": "session", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()},
		},
		{
			"missing type",
			jwtlib.MapClaims{"iss": testIssuer, "aud": testAudience, "sub": "alice", "iat": now.Unix(), "exp": now.Add(time.Hour).Unix()},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, test.claims).SignedString(key)
			require.NoError(t, err)
			_, err = codec.Parse(raw)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}

// signingKeyFor exposes the derived key so tests can hand-craft tokens
// with deliberately broken claim sets.
func signingKeyFor(t *testing.T) []byte {
	t.Helper()
	key, err := token.DeriveSigningKey(testSecret)
	require.NoError(t, err)
	return key
}
