// Package memory is a single process Store backed by a map.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-proxy/store"
)

// DefaultSweepInterval is how often expired entries are removed when no interval is given.
const DefaultSweepInterval = time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store keeps entries in memory. Expiry is checked on every read and a background
// goroutine periodically removes entries nobody came back for.
type Store struct {
	lock    sync.RWMutex
	entries map[string]entry
	nowTime func() time.Time

	stopSweep chan struct{}
	sweepDone chan struct{}
	closeOnce sync.Once
}

var _ store.Store = (*Store)(nil)

type Option func(*Store)

// WithNowTime overrides the clock, for tests.
func WithNowTime(nowTime func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowTime
	}
}

// New creates a Store and starts its sweeper. A non-positive interval uses DefaultSweepInterval.
func New(sweepInterval time.Duration, opts ...Option) *Store {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	s := &Store{
		entries:   make(map[string]entry),
		nowTime:   time.Now,
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweepLoop(sweepInterval)
	return s
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.nowTime().Add(ttl)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries[key] = e
	return nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e, ok := s.entries[key]
	if !ok || e.expired(s.nowTime()) {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Take(_ context.Context, key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	delete(s.entries, key)
	if e.expired(s.nowTime()) {
		return nil, store.ErrNotFound
	}
	return e.value, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of entries held, including expired ones not yet swept.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.entries)
}

// Close stops the sweeper. It is safe to call more than once.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopSweep)
		<-s.sweepDone
	})
	return nil
}

func (s *Store) sweepLoop(interval time.Duration) {
	defer close(s.sweepDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("swept expired store entries")
			}
		case <-s.stopSweep:
			return
		}
	}
}

// Sweep removes every expired entry and returns how many were removed.
// Keys are collected under the read lock so request handlers are only held up by the delete pass.
func (s *Store) Sweep() int {
	now := s.nowTime()

	s.lock.RLock()
	var expired []string
	for key, e := range s.entries {
		if e.expired(now) {
			expired = append(expired, key)
		}
	}
	s.lock.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	removed := 0
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, key := range expired {
		// re-check, the key may have been rewritten since the read pass
		if e, ok := s.entries[key]; ok && e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
