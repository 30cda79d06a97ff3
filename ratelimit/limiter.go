// Package ratelimit enforces fixed-window request limits keyed on
// endpoint class and client IP, backed by the shared key-value store so
// limits hold across server instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xquti/mdb-backend/kvstore"
)

const keyPrefix = "rate_limit:"

// Policy is a fixed-window limit: at most Limit requests per Window.
type Policy struct {
	Limit  int64
	Window time.Duration
}

// Endpoint classes and their limits. Authentication endpoints are kept
// tight to slow down credential stuffing; forum posting is limited to
// curb spam.
var (
	PolicyAuth      = Policy{Limit: 5, Window: time.Minute}
	PolicyForumPost = Policy{Limit: 10, Window: 5 * time.Minute}
	PolicyAPI       = Policy{Limit: 60, Window: time.Minute}
)

// Decision is the outcome of a limit check. RetryAfter is only set when
// the request is denied.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter counts requests per (class, client) pair in the store. A
// store failure denies the request: an attacker must not be able to
// bypass limits by degrading the store.
type Limiter struct {
	store kvstore.Store
}

func NewLimiter(store kvstore.Store) *Limiter {
	return &Limiter{store: store}
}

// Allow records one request from client against the class's policy and
// reports whether it may proceed. The count and the window TTL are
// maintained by a single atomic store operation: the increment opens
// the window on the first request and concurrent requests each observe
// a distinct count, so the limit cannot be overshot.
func (l *Limiter) Allow(ctx context.Context, class, client string, policy Policy) Decision {
	deny := Decision{Allowed: false, RetryAfter: policy.Window}
	key := fmt.Sprintf("%s%s:%s", keyPrefix, class, client)

	count, err := l.store.IncrWithTTL(ctx, key, policy.Window)
	if err != nil {
		log.Error().Err(err).Str("class", class).Msg("rate limit increment failed, denying request")
		return deny
	}
	if count > policy.Limit {
		return deny
	}
	return Decision{Allowed: true}
}
