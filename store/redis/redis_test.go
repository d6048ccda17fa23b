package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/store"
	"github.com/jrsteele09/go-auth-proxy/store/redis"
)

func newTestStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewWithClient(client, "test:"), mr
}

func TestPutGetUsesPrefix(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "pending:abc", []byte(`{"a":1}`), time.Minute))
	require.True(t, mr.Exists("test:pending:abc"))

	v, err := s.Get(ctx, "pending:abc")
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(v))
}

func TestTakeIsSingleUse(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "code:1", []byte("v"), time.Minute))
	v, err := s.Take(ctx, "code:1")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)
	require.False(t, mr.Exists("test:code:1"))

	_, err = s.Take(ctx, "code:1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTakeConcurrentOnlyOneWins(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "code:race", []byte("v"), time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(ctx, "code:race"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func TestExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(time.Minute + time.Second)

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestZeroTTLPersists(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "client:1", []byte("v"), 0))
	require.Equal(t, time.Duration(0), mr.TTL("test:client:1"))
}

func TestDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, s.Delete(ctx, "k"))
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := redis.New(ctx, redis.Options{Addr: addr})
	require.Error(t, err)
}

func TestNewOwnsClient(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := redis.New(context.Background(), redis.Options{Addr: mr.Addr(), KeyPrefix: "p:"})
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "k", []byte("v"), time.Minute))
	require.True(t, mr.Exists("p:k"))
	require.NoError(t, s.Close())
}
