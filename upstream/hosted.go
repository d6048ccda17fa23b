package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const maxResponseBody = 1 << 20

// HostedConfig configures the hosted identity service (a GoTrue style REST API).
type HostedConfig struct {
	// BaseURL of the service, e.g. https://project.example.co
	BaseURL string

	// APIKey is the public anon key sent as the apikey header.
	APIKey string

	// LoginProvider is the social login requested, e.g. "google".
	LoginProvider string

	// CallbackURL is where the service sends the browser back to; the state token is appended.
	CallbackURL string

	// Verifier checks access tokens locally. When nil tokens are checked with a /user call.
	Verifier *JWTVerifier

	HTTPClient *http.Client
}

// HostedProvider authenticates users with the hosted identity service.
type HostedProvider struct {
	cfg    HostedConfig
	client *http.Client
}

var _ Provider = (*HostedProvider)(nil)

func NewHostedProvider(cfg HostedConfig) (*HostedProvider, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("[NewHostedProvider] base url is required")
	}
	if cfg.CallbackURL == "" {
		return nil, errors.New("[NewHostedProvider] callback url is required")
	}
	if cfg.LoginProvider == "" {
		cfg.LoginProvider = "google"
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HostedProvider{cfg: cfg, client: client}, nil
}

func (p *HostedProvider) Name() string {
	return "hosted:" + p.cfg.LoginProvider
}

// AuthorizationURL points at the service's authorize endpoint. The post-login redirect carries
// our state token as a query parameter so the callback can find the pending authorization.
func (p *HostedProvider) AuthorizationURL(state, codeChallenge string, _ ...AuthorizationOption) (string, error) {
	if state == "" {
		return "", errors.New("[HostedProvider.AuthorizationURL] state is required")
	}
	callback, err := url.Parse(p.cfg.CallbackURL)
	if err != nil {
		return "", errors.Wrap(err, "[HostedProvider.AuthorizationURL] callback url")
	}
	cq := callback.Query()
	cq.Set("state", state)
	callback.RawQuery = cq.Encode()

	q := url.Values{}
	q.Set("provider", p.cfg.LoginProvider)
	q.Set("redirect_to", callback.String())
	if codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "s256")
	}
	return p.cfg.BaseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

type hostedTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// ExchangeCode redeems the PKCE auth code issued by the service.
func (p *HostedProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Tokens, error) {
	body, err := json.Marshal(map[string]string{"auth_code": code, "code_verifier": codeVerifier})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/auth/v1/token?grant_type=pkce", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[HostedProvider.ExchangeCode]")
	}
	req.Header.Set("Content-Type", "application/json")

	var tr hostedTokenResponse
	if err := p.do(req, &tr); err != nil {
		return nil, errors.Wrap(err, "[HostedProvider.ExchangeCode]")
	}
	if tr.AccessToken == "" {
		return nil, errors.New("[HostedProvider.ExchangeCode] no access token in response")
	}

	tokens := &Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
	}
	switch {
	case tr.ExpiresAt > 0:
		tokens.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		tokens.ExpiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if tr.User != nil && tr.User.ID != "" {
		tokens.identity = &Identity{Subject: tr.User.ID, Email: tr.User.Email}
	}
	return tokens, nil
}

// ResolveIdentity returns the user behind tokens.AccessToken.
func (p *HostedProvider) ResolveIdentity(ctx context.Context, tokens *Tokens, _ ...IdentityOption) (*Identity, error) {
	if tokens == nil || tokens.AccessToken == "" {
		return nil, ErrInvalidToken
	}
	if tokens.identity != nil {
		return tokens.identity, nil
	}
	if p.cfg.Verifier != nil {
		return p.cfg.Verifier.Verify(tokens.AccessToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[HostedProvider.ResolveIdentity]")
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := p.do(req, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{Subject: user.ID, Email: user.Email}, nil
}

func (p *HostedProvider) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("apikey", p.cfg.APIKey)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Wrapf(ErrInvalidToken, "status %d", resp.StatusCode)
	case resp.StatusCode >= 300:
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return json.Unmarshal(data, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
