// Package redis is a Store shared between processes, backed by Redis.
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-auth-proxy/store"
)

// Store keeps entries in Redis under a common key prefix. Expiry is delegated to Redis
// and Take uses GETDEL so a key is handed out at most once across all replicas.
type Store struct {
	client    goredis.UniversalClient
	keyPrefix string
	owned     bool
}

var _ store.Store = (*Store)(nil)

type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// New connects to Redis and checks the connection with a PING.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "[redis.New] ping %s", opts.Addr)
	}
	s := NewWithClient(client, opts.KeyPrefix)
	s.owned = true
	return s, nil
}

// NewWithClient wraps an existing client. The caller keeps ownership of it.
func NewWithClient(client goredis.UniversalClient, keyPrefix string) *Store {
	return &Store{client: client, keyPrefix: keyPrefix}
}

func (s *Store) key(k string) string {
	return s.keyPrefix + k
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return errors.Wrap(err, "[redis.Put]")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[redis.Get]")
	}
	return v, nil
}

func (s *Store) Take(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.GetDel(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[redis.Take]")
	}
	return v, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return errors.Wrap(err, "[redis.Delete]")
	}
	return nil
}

// Close closes the client only when this Store created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
