package oauth2

// TokenResponse represents the response from an OAuth2 token request (RFC 6749 section 5.1).
// The tokens are the ones the upstream identity provider issued for the user; this server
// mints no tokens of its own.
type TokenResponse struct {
	// AccessToken is the upstream bearer token used to access the protected resource.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token (always "Bearer").
	TokenType string `json:"token_type"`

	// ExpiresIn is the remaining lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is the upstream refresh token, when the upstream issued one.
	// Refreshing is done directly against the upstream provider.
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope is the scope string the client originally requested, echoed back.
	Scope string `json:"scope,omitempty"`
}
