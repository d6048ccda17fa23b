package oauthmodel

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/pkce"
)

// AuthorizationParameters holds parameters for the OAuth2 authorization request.
// These are received as query parameters at the /authorize endpoint.
type AuthorizationParameters struct {
	// ClientID identifies the application requesting authorization.
	// Required: No, a configured default is recorded when omitted
	// Example: "9b0c1f0e-3c1d-4a7e-9d3e-2a54b1f3c0aa"
	ClientID string

	// ResponseType specifies what the authorization endpoint should return.
	// Required: Yes
	// Example: "code" (only supported value)
	ResponseType oauth2.ResponseType

	// RedirectURI is where the authorization response will be sent.
	// Required: Yes
	// Example: "https://myapp.com/callback"
	// Security: Must exactly match a registered URI when the client is registered
	RedirectURI string

	// ResponseMode controls how the code is returned (query/fragment/form_post).
	// Required: No (defaults to "query")
	ResponseMode oauth2.ResponseModeType

	// Scope is opaque to this server and echoed back on the token response.
	// Example: "openid profile email"
	Scope string

	// State is an opaque value the client uses to correlate request and callback.
	// Echoed back verbatim with the code.
	State string

	// CodeChallenge is the PKCE challenge derived from code_verifier.
	// Example: BASE64URL(SHA256(code_verifier))
	// Length: 43-128 characters
	CodeChallenge string

	// CodeChallengeMethod specifies how code_challenge was derived.
	// Example: "S256" or "plain"
	// Default: "plain" if not specified
	CodeChallengeMethod string
}

// ParseAuthorizationParameters reads the parameters from an /authorize query string.
func ParseAuthorizationParameters(q url.Values) AuthorizationParameters {
	return AuthorizationParameters{
		ClientID:            strings.TrimSpace(q.Get("client_id")),
		ResponseType:        oauth2.ResponseType(q.Get("response_type")),
		RedirectURI:         q.Get("redirect_uri"),
		ResponseMode:        oauth2.ResponseModeType(q.Get("response_mode")),
		Scope:               q.Get("scope"),
		State:               q.Get("state"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
	}
}

// HasPKCE reports whether the client sent any PKCE parameter at all.
func (p *AuthorizationParameters) HasPKCE() bool {
	return p.CodeChallenge != "" || p.CodeChallengeMethod != ""
}

// Validate checks the request shape. It does not look at registered clients.
// The order matters: redirect_uri problems must be reported before anything is
// redirected anywhere.
func (p *AuthorizationParameters) Validate() error {
	if strings.TrimSpace(p.RedirectURI) == "" {
		return ErrMissingRedirectURI
	}
	if !RedirectURIValid(p.RedirectURI) {
		return ErrInvalidRedirectURI
	}
	if !responseTypeValid(p.ResponseType) {
		return ErrInvalidResponseType
	}
	if !responseModeValid(p.ResponseMode) {
		return ErrInvalidResponseMode
	}
	return nil
}

// ValidatePKCE checks the code_challenge parameters. allowPlain permits method "plain".
func (p *AuthorizationParameters) ValidatePKCE(allowPlain bool) error {
	if p.CodeChallenge == "" {
		return ErrMissingCodeChallenge
	}
	method, err := pkce.ParseMethod(p.CodeChallengeMethod)
	if err != nil {
		return ErrInvalidCodeChallengeMethod
	}
	if method == pkce.MethodPlain && !allowPlain {
		return ErrInvalidCodeChallengeMethod
	}
	if !pkce.ValidFormat(p.CodeChallenge) {
		return ErrInvalidCodeChallenge
	}
	return nil
}

// GetResponseMode returns the requested response mode, defaulting to query.
func (p *AuthorizationParameters) GetResponseMode() oauth2.ResponseModeType {
	if p.ResponseMode == "" {
		return oauth2.QueryResponseMode
	}
	return p.ResponseMode
}

// RedirectURIValid reports whether uri is an absolute http(s) URL with a host and no fragment.
func RedirectURIValid(uri string) bool {
	if strings.Contains(uri, "#") {
		return false
	}
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func responseModeValid(responseMode oauth2.ResponseModeType) bool {
	if strings.TrimSpace(string(responseMode)) == "" {
		return true
	}
	switch responseMode {
	case oauth2.QueryResponseMode, oauth2.FormPostResponseMode, oauth2.FragmentResponseMode:
		return true
	}
	return false
}

func responseTypeValid(responseType oauth2.ResponseType) bool {
	return responseType == oauth2.CodeResponseType
}
