package auth

import (
	"crypto/subtle"

	"github.com/jrsteele09/go-auth-proxy/clients"
	autherrors "github.com/jrsteele09/go-auth-proxy/internal/errors"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/oauthmodel"
)

// Validator holds the request checks for the authorization and token endpoints.
// Every failure is an *oauth2.Error safe to return to the caller.
type Validator struct {
	policy Policy
}

// NewValidator creates a new Validator instance
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// ValidateAuthorizationRequest checks the request shape. redirect_uri problems come first so
// that nothing is ever redirected to an unchecked address.
func (v *Validator) ValidateAuthorizationRequest(params *oauthmodel.AuthorizationParameters) error {
	if err := params.Validate(); err != nil {
		switch {
		case autherrors.Is(err, oauthmodel.ErrInvalidResponseType):
			return oauth2.NewError(oauth2.ErrCodeUnsupportedResponseType, "response_type must be code")
		default:
			return oauth2.InvalidRequest(err.Error())
		}
	}
	return nil
}

// ValidatePKCE checks the PKCE parameters when the client sent any.
func (v *Validator) ValidatePKCE(params *oauthmodel.AuthorizationParameters) error {
	if err := params.ValidatePKCE(v.policy.AllowPKCEPlain); err != nil {
		return oauth2.InvalidRequest(err.Error())
	}
	return nil
}

// ValidateClientRedirect checks a registered client's redirect_uri. client is nil for
// client ids that were never registered.
func (v *Validator) ValidateClientRedirect(client *clients.Client, redirectURI string) error {
	if client == nil {
		if v.policy.StrictClients {
			return oauth2.InvalidRequest("unknown client_id")
		}
		return nil
	}
	if !client.HasRedirectURI(redirectURI) {
		return oauth2.InvalidRequest("redirect_uri is not registered for this client")
	}
	return nil
}

// ValidateClientCredentials authenticates the caller of the token endpoint.
// client is nil when the presented client_id is not registered.
func (v *Validator) ValidateClientCredentials(req *oauthmodel.TokenRequest, client *clients.Client) error {
	if client == nil {
		if req.ClientSecret != "" || req.UsedBasicAuth {
			return oauth2.InvalidClient("client authentication failed")
		}
		if v.policy.StrictClients && req.ClientID != "" {
			return oauth2.InvalidClient("unknown client_id")
		}
		return nil
	}

	// Public clients don't have secrets
	if client.IsPublic() {
		if req.ClientSecret != "" {
			return oauth2.InvalidClient("public clients must not provide client_secret")
		}
		return nil
	}

	switch client.AuthMethod {
	case oauth2.AuthMethodClientSecretBasic:
		if !req.UsedBasicAuth {
			return oauth2.InvalidClient("client must authenticate with HTTP Basic")
		}
	case oauth2.AuthMethodClientSecretPost:
		if req.UsedBasicAuth {
			return oauth2.InvalidClient("client must authenticate with client_secret_post")
		}
	}
	if !client.CheckSecret(req.ClientSecret) {
		return oauth2.InvalidClient("client authentication failed")
	}
	return nil
}

// redirectURIMatches is a byte-for-byte comparison, so a trailing slash or scheme change fails.
func redirectURIMatches(recorded, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(recorded), []byte(presented)) == 1
}
