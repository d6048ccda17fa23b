// Package registration implements OAuth 2.0 Dynamic Client Registration (RFC 7591).
// Clients register themselves without any pre-shared credential.
package registration

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-auth-proxy/clients"
	"github.com/jrsteele09/go-auth-proxy/internal/utils"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
)

// Validation limits to keep request sizes bounded.
const (
	MaxRedirectURICount = 10
	MaxClientNameLength = 256
)

// Request is a registration request per RFC 7591 section 2.
type Request struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
}

// Response is the registration document per RFC 7591 section 3.2.1.
// ClientSecret is only ever populated in the response to the registering call.
type Response struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt   *int64   `json:"client_secret_expires_at,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
}

// SupportedAuthMethods is advertised in discovery and accepted at registration.
var SupportedAuthMethods = []oauth2.TokenEndpointAuthMethod{
	oauth2.AuthMethodNone,
	oauth2.AuthMethodClientSecretPost,
	oauth2.AuthMethodClientSecretBasic,
}

// SupportedGrantTypes is advertised in discovery and accepted at registration.
var SupportedGrantTypes = []oauth2.GrantType{oauth2.AuthorizationCodeGrant}

type Registrar struct {
	repo    clients.Repo
	nowTime func() time.Time
}

type Option func(*Registrar)

func WithNowTime(nowTime func() time.Time) Option {
	return func(r *Registrar) {
		r.nowTime = nowTime
	}
}

func NewRegistrar(repo clients.Repo, opts ...Option) (*Registrar, error) {
	if repo == nil {
		return nil, errors.New("[NewRegistrar] client repo is required")
	}
	r := &Registrar{repo: repo, nowTime: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Register validates req and persists a new client. Validation failures are returned as
// *oauth2.Error and nothing is stored.
func (r *Registrar) Register(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, oauth2.NewError(oauth2.ErrCodeInvalidClientMetadata, "empty registration request")
	}
	if err := validateRedirectURIs(req.RedirectURIs); err != nil {
		return nil, err
	}
	if len(req.ClientName) > MaxClientNameLength {
		return nil, oauth2.NewError(oauth2.ErrCodeInvalidClientMetadata, "client_name too long (maximum 256 characters)")
	}
	grantTypes, err := validateGrantTypes(req.GrantTypes)
	if err != nil {
		return nil, err
	}
	if err := validateResponseTypes(req.ResponseTypes); err != nil {
		return nil, err
	}
	authMethod, err := validateAuthMethod(req.TokenEndpointAuthMethod)
	if err != nil {
		return nil, err
	}

	client := &clients.Client{
		ID:           uuid.New().String(),
		Name:         req.ClientName,
		RedirectURIs: slices.Clone(req.RedirectURIs),
		GrantTypes:   grantTypes,
		AuthMethod:   authMethod,
		IssuedAt:     r.nowTime().UTC(),
	}

	var secret string
	if authMethod.IsConfidential() {
		if secret, err = newClientSecret(); err != nil {
			return nil, errors.Wrap(err, "[Register] generate secret")
		}
		if err := client.SetSecret(secret); err != nil {
			return nil, errors.Wrap(err, "[Register] hash secret")
		}
	}

	if err := r.repo.Create(ctx, client); err != nil {
		return nil, errors.Wrap(err, "[Register] save client")
	}

	resp := &Response{
		ClientID:                client.ID,
		ClientIDIssuedAt:        client.IssuedAt.Unix(),
		RedirectURIs:            client.RedirectURIs,
		ClientName:              client.Name,
		TokenEndpointAuthMethod: string(client.AuthMethod),
		ResponseTypes:           []string{string(oauth2.CodeResponseType)},
	}
	resp.GrantTypes = utils.ToStrings(client.GrantTypes)
	if secret != "" {
		resp.ClientSecret = secret
		resp.ClientSecretExpiresAt = utils.Ptr(int64(0)) // never
	}
	return resp, nil
}

func validateRedirectURIs(uris []string) error {
	if len(uris) == 0 {
		return oauth2.NewError(oauth2.ErrCodeInvalidRedirectURI, "redirect_uris is required")
	}
	if len(uris) > MaxRedirectURICount {
		return oauth2.NewError(oauth2.ErrCodeInvalidRedirectURI, "too many redirect_uris (maximum 10)")
	}
	for _, uri := range uris {
		if err := ValidateRedirectURI(uri); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRedirectURI accepts absolute https URIs, and http only for loopback hosts (RFC 8252 section 7.3).
func ValidateRedirectURI(uri string) error {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return oauth2.NewError(oauth2.ErrCodeInvalidRedirectURI, "redirect_uri must be an absolute URI")
	}
	if u.Fragment != "" || u.RawFragment != "" {
		return oauth2.NewError(oauth2.ErrCodeInvalidRedirectURI, "redirect_uri must not contain a fragment")
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopback(u.Hostname()) {
			return nil
		}
		return oauth2.NewError(oauth2.ErrCodeInvalidRedirectURI, "http redirect_uri is only allowed for loopback hosts")
	}
	return oauth2.NewError(oauth2.ErrCodeInvalidRedirectURI, "redirect_uri must use http or https")
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func validateGrantTypes(requested []string) ([]oauth2.GrantType, error) {
	if len(requested) == 0 {
		return slices.Clone(SupportedGrantTypes), nil
	}
	var grantTypes []oauth2.GrantType
	for _, g := range requested {
		gt := oauth2.GrantType(g)
		if !slices.Contains(SupportedGrantTypes, gt) {
			return nil, oauth2.NewError(oauth2.ErrCodeInvalidGrantType, "unsupported grant type: "+g)
		}
		if !slices.Contains(grantTypes, gt) {
			grantTypes = append(grantTypes, gt)
		}
	}
	return grantTypes, nil
}

func validateResponseTypes(requested []string) error {
	for _, rt := range requested {
		if rt != string(oauth2.CodeResponseType) {
			return oauth2.NewError(oauth2.ErrCodeInvalidClientMetadata, "unsupported response type: "+rt)
		}
	}
	return nil
}

func validateAuthMethod(requested string) (oauth2.TokenEndpointAuthMethod, error) {
	if requested == "" {
		return oauth2.AuthMethodNone, nil
	}
	m := oauth2.TokenEndpointAuthMethod(requested)
	if !slices.Contains(SupportedAuthMethods, m) {
		return "", oauth2.NewError(oauth2.ErrCodeInvalidClientMetadata, "unsupported token_endpoint_auth_method: "+requested)
	}
	return m, nil
}

func newClientSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
