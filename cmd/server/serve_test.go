package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/internal/config"
	"github.com/jrsteele09/go-auth-proxy/store/memory"
	"github.com/jrsteele09/go-auth-proxy/store/redis"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, err := newStore(ctx, config.NewFromValues(map[string]string{"STORE_TYPE": "memory"}))
	require.NoError(t, err)
	require.IsType(t, &memory.Store{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = newStore(ctx, config.NewFromValues(map[string]string{"STORE_TYPE": "redis", "REDIS_ADDR": mr.Addr()}))
	require.NoError(t, err)
	require.IsType(t, &redis.Store{}, s)
	require.NoError(t, s.Close())

	_, err = newStore(ctx, config.NewFromValues(map[string]string{"STORE_TYPE": "etcd"}))
	require.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := newProvider(ctx, config.NewFromValues(map[string]string{
		"UPSTREAM_TYPE":       "hosted",
		"UPSTREAM_URL":        "https://idp.example.com",
		"UPSTREAM_PROVIDER":   "github",
		"UPSTREAM_JWT_SECRET": "secret",
	}))
	require.NoError(t, err)
	require.IsType(t, &upstream.HostedProvider{}, p)
	require.Equal(t, "hosted:github", p.Name())

	_, err = newProvider(ctx, config.NewFromValues(map[string]string{"UPSTREAM_TYPE": "hosted"}))
	require.Error(t, err)

	_, err = newProvider(ctx, config.NewFromValues(map[string]string{"UPSTREAM_TYPE": "saml"}))
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "authproxy version dev\n", out.String())
}
