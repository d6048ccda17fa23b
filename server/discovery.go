package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-auth-proxy/internal/utils"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/pkce"
	"github.com/jrsteele09/go-auth-proxy/registration"
)

// AuthorizationServerMetadata is the RFC 8414 document.
type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	ResponseModesSupported            []string `json:"response_modes_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
}

// ProtectedResourceMetadata tells a client which authorization server guards the resource.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	ResourceName           string   `json:"resource_name,omitempty"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}

func (s *Server) authorizationServerMetadata() AuthorizationServerMetadata {
	challengeMethods := []string{string(pkce.MethodS256)}
	if s.config.GetAllowPKCEPlain() {
		challengeMethods = append(challengeMethods, string(pkce.MethodPlain))
	}

	return AuthorizationServerMetadata{
		Issuer:                s.config.GetBaseURL(),
		AuthorizationEndpoint: s.endpoint(RouteAuthorize),
		TokenEndpoint:         s.endpoint(RouteToken),
		RegistrationEndpoint:  s.endpoint(RouteRegister),
		ResponseTypesSupported: []string{
			string(oauth2.CodeResponseType),
		},
		ResponseModesSupported: []string{
			string(oauth2.QueryResponseMode),
			string(oauth2.FragmentResponseMode),
			string(oauth2.FormPostResponseMode),
		},
		GrantTypesSupported:               utils.ToStrings(registration.SupportedGrantTypes),
		CodeChallengeMethodsSupported:     challengeMethods,
		TokenEndpointAuthMethodsSupported: utils.ToStrings(registration.SupportedAuthMethods),
	}
}

func (s *Server) protectedResourceMetadataDocument() ProtectedResourceMetadata {
	return ProtectedResourceMetadata{
		Resource:               s.resourceURL,
		ResourceName:           s.config.GetAppName(),
		AuthorizationServers:   []string{s.config.GetBaseURL()},
		BearerMethodsSupported: []string{"header"},
	}
}

func marshalMetadata(doc any) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// WellKnownAuthorizationServer serves the metadata marshalled at startup.
func (s *Server) WellKnownAuthorizationServer() http.HandlerFunc {
	return serveDocument(s.authServerMetadata)
}

func (s *Server) WellKnownProtectedResource() http.HandlerFunc {
	return serveDocument(s.protectedResourceMetadata)
}

func serveDocument(body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
