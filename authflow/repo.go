package authflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	autherrors "github.com/jrsteele09/go-auth-proxy/internal/errors"
	"github.com/jrsteele09/go-auth-proxy/store"
)

const (
	pendingPrefix = "pending:"
	codePrefix    = "code:"
)

// Repo stores flow records. Take methods are atomic: for a given key at most one
// caller gets the record back. Absent records yield errors.ErrNotFound and records
// past their ExpiresAt yield errors.ErrExpired, whether or not the store has reaped them.
type Repo interface {
	SavePending(ctx context.Context, p *PendingAuthorization) error
	TakePending(ctx context.Context, stateToken string) (*PendingAuthorization, error)
	DeletePending(ctx context.Context, stateToken string) error

	SaveCode(ctx context.Context, c *IssuedCode) error
	GetCode(ctx context.Context, code string) (*IssuedCode, error)
	TakeCode(ctx context.Context, code string) (*IssuedCode, error)
	DeleteCode(ctx context.Context, code string) error
}

// StoreRepo implements Repo as JSON documents in a store.Store.
type StoreRepo struct {
	store   store.Store
	nowTime func() time.Time
}

var _ Repo = (*StoreRepo)(nil)

type Option func(*StoreRepo)

func WithNowTime(nowTime func() time.Time) Option {
	return func(r *StoreRepo) {
		r.nowTime = nowTime
	}
}

func NewStoreRepo(s store.Store, opts ...Option) *StoreRepo {
	r := &StoreRepo{store: s, nowTime: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *StoreRepo) SavePending(ctx context.Context, p *PendingAuthorization) error {
	if p == nil || p.StateToken == "" {
		return errors.New("[SavePending] state token cannot be empty")
	}
	return r.put(ctx, pendingPrefix+p.StateToken, p, p.ExpiresAt)
}

func (r *StoreRepo) TakePending(ctx context.Context, stateToken string) (*PendingAuthorization, error) {
	var p PendingAuthorization
	if err := r.take(ctx, pendingPrefix+stateToken, &p); err != nil {
		return nil, err
	}
	if expired(p.ExpiresAt, r.nowTime()) {
		return nil, autherrors.ErrExpired
	}
	return &p, nil
}

func (r *StoreRepo) DeletePending(ctx context.Context, stateToken string) error {
	return errors.Wrap(r.store.Delete(ctx, pendingPrefix+stateToken), "[DeletePending]")
}

func (r *StoreRepo) SaveCode(ctx context.Context, c *IssuedCode) error {
	if c == nil || c.Code == "" {
		return errors.New("[SaveCode] code cannot be empty")
	}
	return r.put(ctx, codePrefix+c.Code, c, c.ExpiresAt)
}

func (r *StoreRepo) GetCode(ctx context.Context, code string) (*IssuedCode, error) {
	if code == "" {
		return nil, autherrors.ErrNotFound
	}
	data, err := r.store.Get(ctx, codePrefix+code)
	if err != nil {
		return nil, mapStoreError(err, "[GetCode]")
	}
	var c IssuedCode
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "[GetCode] decode")
	}
	if expired(c.ExpiresAt, r.nowTime()) {
		return nil, autherrors.ErrExpired
	}
	return &c, nil
}

func (r *StoreRepo) TakeCode(ctx context.Context, code string) (*IssuedCode, error) {
	var c IssuedCode
	if err := r.take(ctx, codePrefix+code, &c); err != nil {
		return nil, err
	}
	if expired(c.ExpiresAt, r.nowTime()) {
		return nil, autherrors.ErrExpired
	}
	return &c, nil
}

func (r *StoreRepo) DeleteCode(ctx context.Context, code string) error {
	return errors.Wrap(r.store.Delete(ctx, codePrefix+code), "[DeleteCode]")
}

func (r *StoreRepo) put(ctx context.Context, key string, v any, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.nowTime())
	if ttl <= 0 {
		return errors.Errorf("[authflow.put] %s already expired", key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "[authflow.put] encode")
	}
	return errors.Wrap(r.store.Put(ctx, key, data, ttl), "[authflow.put]")
}

func (r *StoreRepo) take(ctx context.Context, key string, v any) error {
	if key == pendingPrefix || key == codePrefix {
		return autherrors.ErrNotFound
	}
	data, err := r.store.Take(ctx, key)
	if err != nil {
		return mapStoreError(err, "[authflow.take]")
	}
	return errors.Wrap(json.Unmarshal(data, v), "[authflow.take] decode")
}

func mapStoreError(err error, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return autherrors.ErrNotFound
	}
	return errors.Wrap(err, op)
}
