package upstream_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/upstream"
)

const testOIDCClientID = "proxy-client"

type fakeOIDCServer struct {
	*httptest.Server
	key   *rsa.PrivateKey
	nonce string
}

func newFakeOIDCServer(t *testing.T) *fakeOIDCServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &fakeOIDCServer{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.URL,
			"authorization_endpoint":                f.URL + "/authorize",
			"token_endpoint":                        f.URL + "/token",
			"userinfo_endpoint":                     f.URL + "/userinfo",
			"jwks_uri":                              f.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("GET /keys", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "k1",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "oidc-code" || r.PostForm.Get("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "oidc-at",
			"token_type":    "Bearer",
			"expires_in":    600,
			"refresh_token": "oidc-rt",
			"id_token":      f.idToken(t, "u1", f.nonce),
		})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer oidc-at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"sub": "u1", "email": "u1@example.com"})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeOIDCServer) idToken(t *testing.T, sub, nonce string) string {
	claims := jwt.MapClaims{
		"iss":   f.URL,
		"sub":   sub,
		"aud":   testOIDCClientID,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	if nonce != "" {
		claims["nonce"] = nonce
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "k1"
	s, err := token.SignedString(f.key)
	require.NoError(t, err)
	return s
}

func newOIDCProvider(t *testing.T, f *fakeOIDCServer) *upstream.OIDCProvider {
	t.Helper()
	p, err := upstream.NewOIDCProvider(context.Background(), upstream.OIDCConfig{
		Issuer:       f.URL,
		ClientID:     testOIDCClientID,
		ClientSecret: "proxy-secret",
		RedirectURL:  "https://proxy.example.com/callback",
	})
	require.NoError(t, err)
	return p
}

func TestOIDCAuthorizationURL(t *testing.T) {
	f := newFakeOIDCServer(t)
	p := newOIDCProvider(t, f)

	raw, err := p.AuthorizationURL("state-1", "chal", upstream.WithNonce("n-1"))
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "chal", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, "n-1", q.Get("nonce"))
	require.Equal(t, testOIDCClientID, q.Get("client_id"))
	require.Equal(t, "https://proxy.example.com/callback", q.Get("redirect_uri"))
}

func TestOIDCExchangeAndVerify(t *testing.T) {
	f := newFakeOIDCServer(t)
	f.nonce = "n-1"
	p := newOIDCProvider(t, f)
	ctx := context.Background()

	tokens, err := p.ExchangeCode(ctx, "oidc-code", "verifier")
	require.NoError(t, err)
	require.Equal(t, "oidc-at", tokens.AccessToken)
	require.Equal(t, "oidc-rt", tokens.RefreshToken)
	require.NotEmpty(t, tokens.IDToken)

	id, err := p.ResolveIdentity(ctx, tokens, upstream.WithExpectedNonce("n-1"))
	require.NoError(t, err)
	require.Equal(t, "u1", id.Subject)
	require.Equal(t, "u1@example.com", id.Email)

	_, err = p.ResolveIdentity(ctx, tokens, upstream.WithExpectedNonce("other"))
	require.ErrorIs(t, err, upstream.ErrNonceMismatch)

	_, err = p.ExchangeCode(ctx, "bad-code", "verifier")
	require.Error(t, err)
}

func TestOIDCResolveIdentityFromUserInfo(t *testing.T) {
	f := newFakeOIDCServer(t)
	p := newOIDCProvider(t, f)
	ctx := context.Background()

	id, err := p.ResolveIdentity(ctx, &upstream.Tokens{AccessToken: "oidc-at"})
	require.NoError(t, err)
	require.Equal(t, "u1", id.Subject)

	_, err = p.ResolveIdentity(ctx, &upstream.Tokens{AccessToken: "forged"})
	require.ErrorIs(t, err, upstream.ErrInvalidToken)
}

func TestOIDCRejectsForeignIDToken(t *testing.T) {
	f := newFakeOIDCServer(t)
	other := newFakeOIDCServer(t)
	p := newOIDCProvider(t, f)

	_, err := p.ResolveIdentity(context.Background(), &upstream.Tokens{IDToken: other.idToken(t, "u9", "")})
	require.ErrorIs(t, err, upstream.ErrInvalidToken)
}
