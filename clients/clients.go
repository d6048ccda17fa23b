package clients

import (
	"crypto/subtle"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
)

// Client is a dynamically registered OAuth client. It is immutable once saved.
//
// AuthMethod is the discriminator: SecretHash is set only for the confidential
// methods and is always empty for AuthMethodNone.
type Client struct {
	ID           string                         `json:"id"`
	Name         string                         `json:"name,omitempty"`
	RedirectURIs []string                       `json:"redirectURIs"`
	GrantTypes   []oauth2.GrantType             `json:"grantTypes"`
	AuthMethod   oauth2.TokenEndpointAuthMethod `json:"authMethod"`
	SecretHash   []byte                         `json:"secretHash,omitempty"`
	IssuedAt     time.Time                      `json:"issuedAt"`
}

// IsPublic returns true if the client authenticates with PKCE only
func (c *Client) IsPublic() bool {
	return !c.AuthMethod.IsConfidential()
}

// SetSecret stores a bcrypt hash of secret. The cleartext is not kept.
func (c *Client) SetSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.SecretHash = hash
	return nil
}

// CheckSecret reports whether secret matches the stored hash.
// Public clients never match.
func (c *Client) CheckSecret(secret string) bool {
	if c.IsPublic() || len(c.SecretHash) == 0 || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(c.SecretHash, []byte(secret)) == nil
}

// HasRedirectURI checks for a byte-identical match against the registered URIs.
func (c *Client) HasRedirectURI(redirectURI string) bool {
	for _, uri := range c.RedirectURIs {
		if subtle.ConstantTimeCompare([]byte(uri), []byte(redirectURI)) == 1 {
			return true
		}
	}
	return false
}

// HasGrantType checks if the client registered for a grant type
func (c *Client) HasGrantType(grantType oauth2.GrantType) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}
