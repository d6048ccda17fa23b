package oauthmodel

import (
	"net/http"
	"net/url"
)

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the form body sent to the /token endpoint.
type TokenRequest struct {
	// GrantType must be "authorization_code".
	GrantType string

	// ClientID identifies the OAuth2 client making the request.
	// Optional for public clients, where the code already records it.
	ClientID string

	// ClientSecret is the secret credential for confidential clients.
	// Security: Never log or expose this value
	ClientSecret string

	// UsedBasicAuth is true when the credentials came from the Authorization header.
	UsedBasicAuth bool

	// Code is the authorization code received on the client's redirect_uri.
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string

	// RedirectURI must be byte-identical to the one sent to /authorize.
	RedirectURI string

	// CodeVerifier is the PKCE code verifier that matches the code_challenge.
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	CodeVerifier string
}

// ParseTokenRequest reads the token request from a parsed form and the request's Basic auth header.
func ParseTokenRequest(r *http.Request) TokenRequest {
	tr := tokenRequestFromValues(r.PostForm)
	if id, secret, ok := r.BasicAuth(); ok {
		// RFC 6749 section 2.3.1: credentials are form-urlencoded before being placed in the header
		if unescaped, err := url.QueryUnescape(id); err == nil {
			id = unescaped
		}
		if unescaped, err := url.QueryUnescape(secret); err == nil {
			secret = unescaped
		}
		tr.ClientID = id
		tr.ClientSecret = secret
		tr.UsedBasicAuth = true
	}
	return tr
}

func tokenRequestFromValues(v url.Values) TokenRequest {
	return TokenRequest{
		GrantType:    v.Get("grant_type"),
		ClientID:     v.Get("client_id"),
		ClientSecret: v.Get("client_secret"),
		Code:         v.Get("code"),
		RedirectURI:  v.Get("redirect_uri"),
		CodeVerifier: v.Get("code_verifier"),
	}
}
