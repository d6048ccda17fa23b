package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// The only response type this server issues.
	// Example: /authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// ResponseModeType denotes how the authorization response parameters are returned to the client.
// Determines the mechanism used to send the auth code/error back to the redirect_uri.
type ResponseModeType string

const (
	// QueryResponseMode returns parameters in the URL query string.
	// Example: https://client.example.com/callback?code=ABC123&state=xyz
	// Default for the code flow.
	QueryResponseMode ResponseModeType = "query"

	// FragmentResponseMode returns parameters in the URL fragment (after #).
	// Example: https://client.example.com/callback#code=ABC123&state=xyz
	// Fragment is not sent to the client's server, only readable by script.
	FragmentResponseMode ResponseModeType = "fragment"

	// FormPostResponseMode returns parameters via HTTP POST with an auto-submitting HTML form.
	// Parameters never appear in a URL, so they stay out of browser history.
	FormPostResponseMode ResponseModeType = "form_post"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri, code_verifier, client_id
	// Returns: the upstream access_token and refresh_token
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// TokenEndpointAuthMethod is how a client authenticates at the token endpoint (RFC 7591 section 2).
type TokenEndpointAuthMethod string

const (
	// AuthMethodNone is used by public clients, which prove possession with PKCE alone.
	AuthMethodNone TokenEndpointAuthMethod = "none"

	// AuthMethodClientSecretPost sends client_id and client_secret in the form body.
	AuthMethodClientSecretPost TokenEndpointAuthMethod = "client_secret_post"

	// AuthMethodClientSecretBasic sends client_id and client_secret with HTTP Basic auth.
	AuthMethodClientSecretBasic TokenEndpointAuthMethod = "client_secret_basic"
)

// IsConfidential reports whether the method needs a client secret.
func (m TokenEndpointAuthMethod) IsConfidential() bool {
	return m == AuthMethodClientSecretPost || m == AuthMethodClientSecretBasic
}

// BearerTokenType is the only token_type returned.
const BearerTokenType = "Bearer"
