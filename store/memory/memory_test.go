package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/store"
	"github.com/jrsteele09/go-auth-proxy/store/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*memory.Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := memory.New(time.Hour, memory.WithNowTime(c.Now))
	t.Cleanup(func() { _ = s.Close() })
	return s, c
}

func TestPutGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	// Get does not consume
	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTakeIsSingleUse(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))
	v, err := s.Take(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	_, err = s.Take(ctx, "k")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTakeConcurrentOnlyOneWins(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "code", []byte("v"), time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "code"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func TestLazyExpiry(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))
	c.Advance(time.Minute)

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Take(ctx, "k")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, 0, s.Len())
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "client", []byte("v"), 0))
	c.Advance(24 * 365 * time.Hour)
	_, err := s.Get(ctx, "client")
	require.NoError(t, err)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s, c := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, s.Put(ctx, "long", []byte("b"), time.Hour))
	require.NoError(t, s.Put(ctx, "forever", []byte("c"), 0))
	c.Advance(2 * time.Minute)

	require.Equal(t, 1, s.Sweep())
	require.Equal(t, 2, s.Len())
	_, err := s.Get(ctx, "long")
	require.NoError(t, err)
}

func TestSweeperRunsInBackground(t *testing.T) {
	s := memory.New(10 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Millisecond))
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	s := memory.New(time.Minute)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestDeleteAbsentKey(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Delete(context.Background(), "nothing"))
}
