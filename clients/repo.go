package clients

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	autherrors "github.com/jrsteele09/go-auth-proxy/internal/errors"
	"github.com/jrsteele09/go-auth-proxy/store"
)

type Repo interface {
	Create(ctx context.Context, client *Client) error
	Get(ctx context.Context, clientID string) (*Client, error)
}

const clientPrefix = "client:"

// StoreRepo keeps clients in a store.Store without expiry.
type StoreRepo struct {
	store store.Store
}

var _ Repo = (*StoreRepo)(nil)

func NewStoreRepo(s store.Store) *StoreRepo {
	return &StoreRepo{store: s}
}

func (r *StoreRepo) Create(ctx context.Context, client *Client) error {
	if client == nil || client.ID == "" {
		return errors.New("[clients.Create] client id cannot be empty")
	}
	data, err := json.Marshal(client)
	if err != nil {
		return errors.Wrap(err, "[clients.Create] encode")
	}
	return errors.Wrap(r.store.Put(ctx, clientPrefix+client.ID, data, 0), "[clients.Create]")
}

// Get returns errors.ErrNotFound for unknown client ids.
func (r *StoreRepo) Get(ctx context.Context, clientID string) (*Client, error) {
	if clientID == "" {
		return nil, autherrors.ErrNotFound
	}
	data, err := r.store.Get(ctx, clientPrefix+clientID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, autherrors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[clients.Get]")
	}
	var c Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "[clients.Get] decode")
	}
	return &c, nil
}
