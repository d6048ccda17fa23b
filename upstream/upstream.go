// Package upstream talks to the identity provider that actually authenticates users.
package upstream

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidToken is returned when an upstream token fails verification.
	ErrInvalidToken = errors.New("upstream token is invalid")

	// ErrNonceMismatch is returned when an ID token carries a different nonce than the flow recorded.
	ErrNonceMismatch = errors.New("id token nonce does not match")
)

// Provider is an upstream identity provider.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// AuthorizationURL builds the URL the user's browser is sent to.
	// state: our internal state token, returned to the callback
	// codeChallenge: S256 challenge for the upstream leg of the flow
	AuthorizationURL(state, codeChallenge string, opts ...AuthorizationOption) (string, error)

	// ExchangeCode exchanges an upstream authorization code for tokens.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*Tokens, error)

	// ResolveIdentity verifies tokens with the provider and returns the user they belong to.
	// Tokens that arrived through the browser must always go through here before being trusted.
	ResolveIdentity(ctx context.Context, tokens *Tokens, opts ...IdentityOption) (*Identity, error)
}

// AuthorizationOption configures authorization URL generation.
type AuthorizationOption func(*authorizationOptions)

type authorizationOptions struct {
	nonce string
}

// WithNonce sets the OIDC nonce parameter for replay protection.
// Providers that are not OIDC ignore it.
func WithNonce(nonce string) AuthorizationOption {
	return func(o *authorizationOptions) {
		o.nonce = nonce
	}
}

func applyAuthorizationOptions(opts []AuthorizationOption) authorizationOptions {
	var o authorizationOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IdentityOption configures identity resolution.
type IdentityOption func(*identityOptions)

type identityOptions struct {
	expectedNonce string
}

// WithExpectedNonce requires the ID token, when there is one, to carry nonce.
func WithExpectedNonce(nonce string) IdentityOption {
	return func(o *identityOptions) {
		o.expectedNonce = nonce
	}
}

func applyIdentityOptions(opts []IdentityOption) identityOptions {
	var o identityOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tokens are the credentials the upstream provider issued for a user.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string

	// ExpiresAt is zero when the provider did not say.
	ExpiresAt time.Time

	// identity is filled in when the provider returned the user together with the tokens
	// over a direct back channel call.
	identity *Identity
}

// Identity is a verified upstream user.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// ExpiresIn returns the remaining lifetime in whole seconds, or 0 when unknown or past.
func (t *Tokens) ExpiresIn(now time.Time) int {
	if t == nil || t.ExpiresAt.IsZero() {
		return 0
	}
	d := t.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
