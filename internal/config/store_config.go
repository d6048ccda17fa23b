package config

import "time"

type StoreConfig interface {
	GetStoreType() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
	GetSweepInterval() time.Duration
}

type Store struct{ *source }

var _ StoreConfig = Store{}

// GetStoreType selects "memory" (single process) or "redis" (shared across replicas).
func (s Store) GetStoreType() string {
	return s.get("STORE_TYPE", "memory")
}

func (s Store) GetRedisAddr() string {
	return s.get("REDIS_ADDR", "localhost:6379")
}

func (s Store) GetRedisPassword() string {
	return s.get("REDIS_PASSWORD", "")
}

func (s Store) GetRedisDB() int {
	return s.getInt("REDIS_DB", 0)
}

func (s Store) GetRedisKeyPrefix() string {
	return s.get("REDIS_KEY_PREFIX", "authproxy:")
}

func (s Store) GetSweepInterval() time.Duration {
	return s.getDuration("SWEEP_INTERVAL", time.Minute)
}
