package upstream

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// OIDCProvider authenticates users with any OpenID Connect provider found through discovery.
type OIDCProvider struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
}

var _ Provider = (*OIDCProvider)(nil)

// NewOIDCProvider fetches the issuer's discovery document.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	if cfg.Issuer == "" || cfg.ClientID == "" {
		return nil, errors.New("[NewOIDCProvider] issuer and client id are required")
	}
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, errors.Wrapf(err, "[NewOIDCProvider] discovery for %s", cfg.Issuer)
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "email", "profile"}
	}
	return &OIDCProvider{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
	}, nil
}

func (p *OIDCProvider) Name() string {
	return "oidc:" + p.oauth2.ClientID
}

func (p *OIDCProvider) AuthorizationURL(state, codeChallenge string, opts ...AuthorizationOption) (string, error) {
	if state == "" {
		return "", errors.New("[OIDCProvider.AuthorizationURL] state is required")
	}
	o := applyAuthorizationOptions(opts)

	authOpts := []oauth2.AuthCodeOption{}
	if codeChallenge != "" {
		authOpts = append(authOpts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	if o.nonce != "" {
		authOpts = append(authOpts, oidc.Nonce(o.nonce))
	}
	return p.oauth2.AuthCodeURL(state, authOpts...), nil
}

func (p *OIDCProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Tokens, error) {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}
	token, err := p.oauth2.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "[OIDCProvider.ExchangeCode]")
	}
	tokens := &Tokens{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresAt:    token.Expiry,
	}
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		tokens.IDToken = rawIDToken
	}
	return tokens, nil
}

// ResolveIdentity verifies the ID token when present, otherwise asks the UserInfo endpoint.
func (p *OIDCProvider) ResolveIdentity(ctx context.Context, tokens *Tokens, opts ...IdentityOption) (*Identity, error) {
	if tokens == nil || (tokens.AccessToken == "" && tokens.IDToken == "") {
		return nil, ErrInvalidToken
	}
	o := applyIdentityOptions(opts)

	if tokens.IDToken != "" {
		idToken, err := p.verifier.Verify(ctx, tokens.IDToken)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidToken, err.Error())
		}
		var claims struct {
			Nonce string `json:"nonce"`
			Sub   string `json:"sub"`
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			return nil, errors.Wrap(err, "[OIDCProvider.ResolveIdentity] claims")
		}
		if o.expectedNonce != "" && claims.Nonce != o.expectedNonce {
			return nil, ErrNonceMismatch
		}
		return &Identity{Subject: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
	}

	info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: tokens.AccessToken}))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	return &Identity{Subject: info.Subject, Email: info.Email}, nil
}
