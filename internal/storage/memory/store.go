package memory

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/core/service"
)

var _ service.Store = (*Store)(nil)

// SnapshotConfig holds the snapshot location reported by CONFIG GET.
// Nothing is read from or written to it.
type SnapshotConfig struct {
	Dir        string
	DBFilename string
}

type entry struct {
	value     []byte
	expiresAt time.Time
	hasExpiry bool
}

// expired reports whether the entry's expiry has been reached at now.
// An expiry equal to now counts as reached, so a zero TTL never survives
// the next read.
func (e entry) expired(now time.Time) bool {
	return e.hasExpiry && !now.Before(e.expiresAt)
}

// Stats is a point-in-time view of the store.
type Stats struct {
	Keys    int    // entries held, including expired ones not yet removed
	Expired uint64 // entries removed by lazy expiry since start
}

// Store is an expiring key-value map shared by all connections.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	// Set once by New and never mutated.
	snapshot *SnapshotConfig
	now      func() time.Time

	expired atomic.Uint64
}

// Option configures the Store.
type Option func(*Store)

// WithSnapshotConfig supplies the snapshot location. Without it ConfigGet
// fails with domain.ErrConfigUnavailable.
func WithSnapshotConfig(cfg SnapshotConfig) Option {
	return func(s *Store) {
		s.snapshot = &cfg
	}
}

// WithClock replaces time.Now. Tests use it to step over expiries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored at key. An entry whose expiry has been
// reached is removed and reported absent. The returned slice must not be
// modified.
func (s *Store) Get(_ context.Context, key []byte) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.entries[string(key)]
	if !ok {
		s.mu.RUnlock()
		return nil, false
	}
	if !e.expired(s.now()) {
		s.mu.RUnlock()
		return e.value, true
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// The entry may have been replaced while no lock was held.
	e, ok = s.entries[string(key)]
	if !ok {
		return nil, false
	}
	if !e.expired(s.now()) {
		return e.value, true
	}
	delete(s.entries, string(key))
	s.expired.Add(1)
	return nil, false
}

// Set stores value at key, replacing any entry and clearing its expiry.
func (s *Store) Set(_ context.Context, key, value []byte) {
	e := entry{value: bytes.Clone(value)}
	if e.value == nil {
		e.value = []byte{}
	}

	s.mu.Lock()
	s.entries[string(key)] = e
	s.mu.Unlock()
}

// SetWithExpiry stores value at key, expiring ttl from now. A ttl of zero
// expires on the next read.
func (s *Store) SetWithExpiry(_ context.Context, key, value []byte, ttl time.Duration) {
	e := entry{value: bytes.Clone(value), hasExpiry: true}
	if e.value == nil {
		e.value = []byte{}
	}

	s.mu.Lock()
	e.expiresAt = s.now().Add(ttl)
	s.entries[string(key)] = e
	s.mu.Unlock()
}

// ConfigGet returns the configured snapshot parameter called name.
func (s *Store) ConfigGet(_ context.Context, name string) (string, error) {
	if s.snapshot == nil {
		return "", domain.ErrConfigUnavailable
	}
	switch name {
	case domain.ConfigDir:
		return s.snapshot.Dir, nil
	case domain.ConfigDBFilename:
		return s.snapshot.DBFilename, nil
	default:
		return "", domain.ErrConfigParamNotFound.WithDetails(name)
	}
}

// Len returns the number of entries held, including expired entries that
// no read has removed yet.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns a snapshot of store counters.
func (s *Store) Stats() Stats {
	return Stats{
		Keys:    s.Len(),
		Expired: s.expired.Load(),
	}
}
