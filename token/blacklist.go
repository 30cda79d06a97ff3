package token

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xquti/mdb-backend/kvstore"
)

const (
	blacklistKeyPrefix = "jwt:blacklist:"
	watermarkKeyPrefix = "jwt:user:"

	// watermarkTTL only needs to outlive the longest-lived credential a
	// user could still hold; refresh tokens live seven days.
	watermarkTTL = 7 * 24 * time.Hour
)

// Blacklist records revoked tokens and per-user logout watermarks in the
// shared store. Lookups fail secure: when the store cannot answer, a
// token is treated as revoked.
type Blacklist struct {
	store   kvstore.Store
	nowFunc func() time.Time
}

type BlacklistOption func(*Blacklist)

// WithBlacklistNowFunc sets the clock (primarily for testing).
func WithBlacklistNowFunc(now func() time.Time) BlacklistOption {
	return func(b *Blacklist) {
		b.nowFunc = now
	}
}

func NewBlacklist(store kvstore.Store, options ...BlacklistOption) *Blacklist {
	b := &Blacklist{
		store:   store,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// fingerprint is the stored identifier for a token. Hashing keeps raw
// credentials out of the store.
func fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Revoke marks the token unusable until its natural expiry. Tokens that
// have already expired are skipped; the verifier rejects them anyway and
// a zero-TTL entry would linger forever.
func (b *Blacklist) Revoke(ctx context.Context, raw string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.nowFunc())
	if ttl <= 0 {
		return nil
	}
	if err := b.store.SetWithTTL(ctx, blacklistKeyPrefix+fingerprint(raw), "revoked", ttl); err != nil {
		return err
	}
	return nil
}

// IsRevoked reports whether the token has been individually revoked.
// A store failure reports true.
func (b *Blacklist) IsRevoked(ctx context.Context, raw string) bool {
	found, err := b.store.Exists(ctx, blacklistKeyPrefix+fingerprint(raw))
	if err != nil {
		log.Error().Err(err).Msg("blacklist lookup failed, treating token as revoked")
		return true
	}
	return found
}

// RevokeAllForUser writes a logout watermark for subject: every token
// issued at or before now is dead, without enumerating them.
func (b *Blacklist) RevokeAllForUser(ctx context.Context, subject string) error {
	now := strconv.FormatInt(b.nowFunc().Unix(), 10)
	if err := b.store.SetWithTTL(ctx, watermarkKeyPrefix+subject, now, watermarkTTL); err != nil {
		return err
	}
	return nil
}

// IssuedBeforeWatermark reports whether a token issued at issuedAt
// predates the subject's logout watermark. A store failure or an
// unreadable watermark reports true.
func (b *Blacklist) IssuedBeforeWatermark(ctx context.Context, subject string, issuedAt time.Time) bool {
	value, found, err := b.store.Get(ctx, watermarkKeyPrefix+subject)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("watermark lookup failed, treating token as revoked")
		return true
	}
	if !found {
		return false
	}
	watermark, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("unreadable logout watermark, treating token as revoked")
		return true
	}
	// A token minted in the same second as the logout is also rejected.
	return issuedAt.Unix() <= watermark
}
