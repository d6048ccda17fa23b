package upstream_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-auth-proxy/pkce"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

type fakeHostedService struct {
	*httptest.Server
	challenge string
}

func newFakeHostedService(t *testing.T) *fakeHostedService {
	t.Helper()
	f := &fakeHostedService{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "pkce" || r.Header.Get("apikey") != "anon-key" {
			http.Error(w, `{"error":"bad_request"}`, http.StatusBadRequest)
			return
		}
		var body struct {
			AuthCode     string `json:"auth_code"`
			CodeVerifier string `json:"code_verifier"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.AuthCode != "good-code" || !pkce.Verify(body.CodeVerifier, f.challenge, pkce.MethodS256) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "hosted-at",
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "hosted-rt",
			"user":          map[string]string{"id": "u1", "email": "u1@example.com"},
		})
	})
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hosted-at" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "u1", "email": "u1@example.com"})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newHostedProvider(t *testing.T, baseURL string, verifier *upstream.JWTVerifier) *upstream.HostedProvider {
	t.Helper()
	p, err := upstream.NewHostedProvider(upstream.HostedConfig{
		BaseURL:       baseURL,
		APIKey:        "anon-key",
		LoginProvider: "google",
		CallbackURL:   "https://proxy.example.com/callback",
		Verifier:      verifier,
	})
	require.NoError(t, err)
	return p
}

func TestHostedAuthorizationURL(t *testing.T) {
	p := newHostedProvider(t, "https://project.example.co/", nil)

	raw, err := p.AuthorizationURL("state-123", "challenge-abc")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "project.example.co", u.Host)
	require.Equal(t, "/auth/v1/authorize", u.Path)
	require.Equal(t, "google", u.Query().Get("provider"))
	require.Equal(t, "challenge-abc", u.Query().Get("code_challenge"))
	require.Equal(t, "s256", u.Query().Get("code_challenge_method"))

	redirectTo, err := url.Parse(u.Query().Get("redirect_to"))
	require.NoError(t, err)
	require.Equal(t, "/callback", redirectTo.Path)
	require.Equal(t, "state-123", redirectTo.Query().Get("state"))

	_, err = p.AuthorizationURL("", "c")
	require.Error(t, err)
}

func TestHostedExchangeCode(t *testing.T) {
	svc := newFakeHostedService(t)
	verifier, err := pkce.NewVerifier()
	require.NoError(t, err)
	svc.challenge, _ = pkce.Challenge(verifier, pkce.MethodS256)
	p := newHostedProvider(t, svc.URL, nil)
	ctx := context.Background()

	tokens, err := p.ExchangeCode(ctx, "good-code", verifier)
	require.NoError(t, err)
	require.Equal(t, "hosted-at", tokens.AccessToken)
	require.Equal(t, "hosted-rt", tokens.RefreshToken)
	require.InDelta(t, 3600, tokens.ExpiresIn(time.Now()), 5)

	id, err := p.ResolveIdentity(ctx, tokens)
	require.NoError(t, err)
	require.Equal(t, "u1", id.Subject)

	_, err = p.ExchangeCode(ctx, "good-code", "wrong-verifier")
	require.Error(t, err)
}

func TestHostedResolveIdentityWithUserEndpoint(t *testing.T) {
	svc := newFakeHostedService(t)
	p := newHostedProvider(t, svc.URL, nil)
	ctx := context.Background()

	id, err := p.ResolveIdentity(ctx, &upstream.Tokens{AccessToken: "hosted-at"})
	require.NoError(t, err)
	require.Equal(t, "u1@example.com", id.Email)

	_, err = p.ResolveIdentity(ctx, &upstream.Tokens{AccessToken: "forged"})
	require.ErrorIs(t, err, upstream.ErrInvalidToken)

	_, err = p.ResolveIdentity(ctx, &upstream.Tokens{})
	require.ErrorIs(t, err, upstream.ErrInvalidToken)
}

func TestHostedResolveIdentityWithJWT(t *testing.T) {
	v, err := upstream.NewJWTVerifier(testJWTSecret, "")
	require.NoError(t, err)
	// no server: verification must be local
	p := newHostedProvider(t, "http://127.0.0.1:1", v)

	token := signHS256(t, testJWTSecret, jwt.MapClaims{"sub": "u2", "exp": time.Now().Add(time.Hour).Unix()})
	id, err := p.ResolveIdentity(context.Background(), &upstream.Tokens{AccessToken: token})
	require.NoError(t, err)
	require.Equal(t, "u2", id.Subject)
}

func TestNewHostedProviderValidation(t *testing.T) {
	_, err := upstream.NewHostedProvider(upstream.HostedConfig{CallbackURL: "https://x/cb"})
	require.Error(t, err)
	_, err = upstream.NewHostedProvider(upstream.HostedConfig{BaseURL: "https://x"})
	require.Error(t, err)
}
