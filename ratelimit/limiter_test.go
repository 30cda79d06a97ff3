package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xquti/mdb-backend/kvstore/storefake"
	"github.com/xquti/mdb-backend/ratelimit"
)

func TestAllowCountsWithinWindow(t *testing.T) {
	store := storefake.New()
	limiter := ratelimit.NewLimiter(store)
	ctx := context.Background()
	policy := ratelimit.Policy{Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		decision := limiter.Allow(ctx, "api", "203.0.113.7", policy)
		require.True(t, decision.Allowed, "request %d should be allowed", i+1)
	}

	decision := limiter.Allow(ctx, "api", "203.0.113.7", policy)
	require.False(t, decision.Allowed)
	require.Equal(t, time.Minute, decision.RetryAfter)
}

func TestAllowIsolatesClientsAndClasses(t *testing.T) {
	store := storefake.New()
	limiter := ratelimit.NewLimiter(store)
	ctx := context.Background()
	policy := ratelimit.Policy{Limit: 1, Window: time.Minute}

	require.True(t, limiter.Allow(ctx, "auth", "203.0.113.7", policy).Allowed)
	require.False(t, limiter.Allow(ctx, "auth", "203.0.113.7", policy).Allowed)

	// Different client, same class.
	require.True(t, limiter.Allow(ctx, "auth", "203.0.113.8", policy).Allowed)

	// Same client, different class.
	require.True(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)
}

func TestAllowResetsAfterWindowExpires(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := storefake.New()
	store.SetNowFunc(func() time.Time { return now })
	limiter := ratelimit.NewLimiter(store)
	ctx := context.Background()
	policy := ratelimit.Policy{Limit: 1, Window: time.Minute}

	require.True(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)
	require.False(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)

	now = now.Add(61 * time.Second)
	require.True(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)
}

func TestAllowReArmsWindowAfterExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := storefake.New()
	store.SetNowFunc(func() time.Time { return now })
	limiter := ratelimit.NewLimiter(store)
	ctx := context.Background()
	policy := ratelimit.Policy{Limit: 2, Window: time.Minute}

	require.True(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)
	require.True(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)

	// Hammering past the limit must not extend the open window.
	for i := 0; i < 5; i++ {
		require.False(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)
	}
	ttl, ok := store.TTL("rate_limit:api:203.0.113.7")
	require.True(t, ok)
	require.Equal(t, time.Minute, ttl)

	// Once the window elapses the counter is recreated with a fresh
	// TTL, so the next window also resets on schedule.
	now = now.Add(61 * time.Second)
	require.True(t, limiter.Allow(ctx, "api", "203.0.113.7", policy).Allowed)

	ttl, ok = store.TTL("rate_limit:api:203.0.113.7")
	require.True(t, ok)
	require.Equal(t, time.Minute, ttl)
}

func TestAllowDeniesOnStoreFailure(t *testing.T) {
	store := storefake.New()
	store.FailAll = true
	limiter := ratelimit.NewLimiter(store)

	decision := limiter.Allow(context.Background(), "api", "203.0.113.7", ratelimit.PolicyAPI)
	require.False(t, decision.Allowed)
	require.Equal(t, ratelimit.PolicyAPI.Window, decision.RetryAfter)
}

func TestDefaultPolicies(t *testing.T) {
	require.Equal(t, int64(5), ratelimit.PolicyAuth.Limit)
	require.Equal(t, time.Minute, ratelimit.PolicyAuth.Window)
	require.Equal(t, int64(10), ratelimit.PolicyForumPost.Limit)
	require.Equal(t, 5*time.Minute, ratelimit.PolicyForumPost.Window)
	require.Equal(t, int64(60), ratelimit.PolicyAPI.Limit)
	require.Equal(t, time.Minute, ratelimit.PolicyAPI.Window)
}
