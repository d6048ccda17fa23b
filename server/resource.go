package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/upstream"
)

// Headers set on requests forwarded to the resource server. Incoming values are dropped.
const (
	HeaderUserID    = "X-Auth-User-Id"
	HeaderUserEmail = "X-Auth-User-Email"
)

type identityContextKey struct{}

// IdentityFromContext returns the caller identity established by RequireBearer.
func IdentityFromContext(ctx context.Context) (*upstream.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*upstream.Identity)
	return id, ok
}

// RequireBearer admits requests carrying an upstream access token the provider accepts.
// Rejections point the caller at the protected resource metadata.
func (s *Server) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	challenge := fmt.Sprintf(`Bearer resource_metadata="%s"`, s.endpoint(RouteWellKnownProtectedResource))

	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", challenge)
			writeJSONError(w, oauth2.ErrCodeInvalidRequest, "bearer token required", http.StatusUnauthorized)
			return
		}

		identity, err := s.auth.Provider().ResolveIdentity(r.Context(), &upstream.Tokens{
			AccessToken: token,
			TokenType:   oauth2.BearerTokenType,
		})
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("bearer token rejected")
			w.Header().Set("WWW-Authenticate", challenge+`, error="invalid_token"`)
			writeJSONError(w, oauth2.ErrCodeInvalidToken, "the access token is invalid or expired", http.StatusUnauthorized)
			return
		}

		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderUserEmail)
		r.Header.Set(HeaderUserID, identity.Subject)
		if identity.Email != "" {
			r.Header.Set(HeaderUserEmail, identity.Email)
		}
		next(w, r.WithContext(context.WithValue(r.Context(), identityContextKey{}, identity)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Resource forwards to the resource server once RequireBearer has let the request through.
func (s *Server) Resource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.resourceProxy.ServeHTTP(w, r)
	}
}

// Health reports liveness.
func (s *Server) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
