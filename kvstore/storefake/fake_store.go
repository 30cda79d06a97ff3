// Package storefake provides an in-memory Store for tests, with
// injectable failures and a controllable clock so TTL expiry and
// store-outage behavior can be exercised deterministically.
package storefake

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// FakeStore is an in-memory kvstore.Store.
type FakeStore struct {
	mu      sync.Mutex
	data    map[string]entry
	nowFunc func() time.Time

	// FailAll makes every operation return an error, simulating a store
	// outage.
	FailAll bool
}

func New() *FakeStore {
	return &FakeStore{
		data:    make(map[string]entry),
		nowFunc: time.Now,
	}
}

// SetNowFunc installs a fake clock used for TTL expiry checks.
func (s *FakeStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFunc = now
}

func (s *FakeStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll {
		return "", false, errors.New("fake store failure")
	}
	e, ok := s.liveEntry(key)
	if !ok {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *FakeStore) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll {
		return errors.New("fake store failure")
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.nowFunc().Add(ttl)
	}
	s.data[key] = e
	return nil
}

func (s *FakeStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll {
		return 0, errors.New("fake store failure")
	}
	e, ok := s.liveEntry(key)
	n := int64(0)
	if ok {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, errors.New("value is not an integer")
		}
		n = parsed
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	// TTL semantics follow EXPIRE NX: armed only when the key has none.
	if e.expiresAt.IsZero() && ttl > 0 {
		e.expiresAt = s.nowFunc().Add(ttl)
	}
	s.data[key] = e
	return n, nil
}

func (s *FakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAll {
		return false, errors.New("fake store failure")
	}
	_, ok := s.liveEntry(key)
	return ok, nil
}

func (s *FakeStore) Close() error { return nil }

// TTL returns the remaining lifetime of key, for assertions.
func (s *FakeStore) TTL(key string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveEntry(key)
	if !ok || e.expiresAt.IsZero() {
		return 0, ok
	}
	return e.expiresAt.Sub(s.nowFunc()), true
}

// Keys returns all live keys, for assertions about what is stored.
func (s *FakeStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if _, ok := s.liveEntry(k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// liveEntry returns the entry for key, lazily evicting it when expired.
// Callers must hold s.mu.
func (s *FakeStore) liveEntry(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !s.nowFunc().Before(e.expiresAt) {
		delete(s.data, key)
		return entry{}, false
	}
	return e, true
}
