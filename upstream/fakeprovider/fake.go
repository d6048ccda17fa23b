// Package fakeprovider is an in-process upstream.Provider for tests.
package fakeprovider

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jrsteele09/go-auth-proxy/pkce"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

const AuthorizeURL = "https://idp.example.com/authorize"

type authorization struct {
	challenge string
}

type grant struct {
	user      upstream.Identity
	challenge string
}

// Provider simulates an identity provider. Login stands in for the user signing in.
type Provider struct {
	lock           sync.Mutex
	authorizations map[string]authorization // by state
	codes          map[string]grant
	accessTokens   map[string]upstream.Identity

	// TokenLifetime is the lifetime given to issued access tokens.
	TokenLifetime time.Duration

	// ExchangeErr, when set, is returned from ExchangeCode.
	ExchangeErr error

	// ExchangeCalls counts ExchangeCode invocations.
	ExchangeCalls int
}

var _ upstream.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{
		authorizations: make(map[string]authorization),
		codes:          make(map[string]grant),
		accessTokens:   make(map[string]upstream.Identity),
		TokenLifetime:  time.Hour,
	}
}

func (p *Provider) Name() string {
	return "fake"
}

func (p *Provider) AuthorizationURL(state, codeChallenge string, opts ...upstream.AuthorizationOption) (string, error) {
	if state == "" {
		return "", fmt.Errorf("state is required")
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.authorizations[state] = authorization{challenge: codeChallenge}
	q := url.Values{"state": {state}, "code_challenge": {codeChallenge}, "code_challenge_method": {"S256"}}
	return AuthorizeURL + "?" + q.Encode(), nil
}

// Login simulates the user signing in for the flow identified by state and returns the
// upstream code the provider would append to the callback.
func (p *Provider) Login(state string, user upstream.Identity) (string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	a, ok := p.authorizations[state]
	if !ok {
		return "", fmt.Errorf("unknown state %q", state)
	}
	code := "up-" + uuid.NewString()
	p.codes[code] = grant{user: user, challenge: a.challenge}
	return code, nil
}

// IssueTokens returns tokens for user as an implicit style provider would put them in the browser.
func (p *Provider) IssueTokens(user upstream.Identity) *upstream.Tokens {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.issueLocked(user)
}

func (p *Provider) issueLocked(user upstream.Identity) *upstream.Tokens {
	at := "at-" + uuid.NewString()
	p.accessTokens[at] = user
	return &upstream.Tokens{
		AccessToken:  at,
		RefreshToken: "rt-" + uuid.NewString(),
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(p.TokenLifetime),
	}
}

func (p *Provider) ExchangeCode(_ context.Context, code, codeVerifier string) (*upstream.Tokens, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.ExchangeCalls++
	if p.ExchangeErr != nil {
		return nil, p.ExchangeErr
	}
	g, ok := p.codes[code]
	if !ok {
		return nil, fmt.Errorf("unknown upstream code")
	}
	delete(p.codes, code)
	if g.challenge != "" && !pkce.Verify(codeVerifier, g.challenge, pkce.MethodS256) {
		return nil, fmt.Errorf("upstream pkce verification failed")
	}
	return p.issueLocked(g.user), nil
}

func (p *Provider) ResolveIdentity(_ context.Context, tokens *upstream.Tokens, _ ...upstream.IdentityOption) (*upstream.Identity, error) {
	if tokens == nil {
		return nil, upstream.ErrInvalidToken
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	user, ok := p.accessTokens[tokens.AccessToken]
	if !ok {
		return nil, upstream.ErrInvalidToken
	}
	return &user, nil
}

// Revoke makes an access token unknown to the provider.
func (p *Provider) Revoke(accessToken string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.accessTokens, accessToken)
}
