// Package kvstore abstracts the shared key-value store used by the token
// blacklist and the rate limiter. The store is external and centralized;
// all cross-request coordination relies on the atomicity of its
// operations (INCR, SET with TTL), not on in-process locking.
package kvstore

import (
	"context"
	"time"
)

// Store is a minimal Redis-shaped key-value interface. Every call is
// context-bound; implementations must apply a short timeout so a dead
// store cannot stall request handling. Callers treat any returned error
// (including timeouts) as "store unavailable" and make their own
// fail-secure or fail-closed decision.
type Store interface {
	// Get returns the value for key, with found=false when the key does
	// not exist.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// SetWithTTL writes key=value and arranges for the key to expire
	// after ttl.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrWithTTL atomically increments the integer value at key and
	// returns the new value. Incrementing a missing key creates it at 1.
	// The TTL is armed only when the key has none, so repeated
	// increments never extend an open window.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the underlying connection.
	Close() error
}
