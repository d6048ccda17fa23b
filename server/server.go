package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-auth-proxy/auth"
	"github.com/jrsteele09/go-auth-proxy/internal/config"
	"github.com/jrsteele09/go-auth-proxy/oauth2"
	"github.com/jrsteele09/go-auth-proxy/registration"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.AuthorizationService
	registrar *registration.Registrar
	metrics   *Metrics
	limiter   *ipRateLimiter

	authServerMetadata        []byte
	protectedResourceMetadata []byte
	resourceURL               string
	resourceProxy             http.Handler
}

type Option func(*Server)

// WithResourceHandler serves h behind the bearer gate at /mcp in place of the configured upstream.
func WithResourceHandler(h http.Handler) Option {
	return func(s *Server) {
		s.resourceProxy = h
	}
}

func New(cfg config.Config, authService *auth.AuthorizationService, registrar *registration.Registrar, opts ...Option) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] authorization service is required")
	}
	if registrar == nil {
		return nil, fmt.Errorf("[Server New] registrar is required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		registrar: registrar,
		metrics:   NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.GetEnableRateLimiting() {
		s.limiter = newIPRateLimiter(cfg.GetRegistrationRatePerMinute())
	}

	s.resourceURL = cfg.GetResourceURL()
	if s.resourceURL == "" {
		s.resourceURL = cfg.GetBaseURL() + RouteMCP
	}
	if s.resourceProxy == nil && cfg.GetResourceUpstream() != "" {
		target, err := url.Parse(cfg.GetResourceUpstream())
		if err != nil || target.Scheme == "" || target.Host == "" {
			return nil, fmt.Errorf("[Server New] invalid resource upstream %q", cfg.GetResourceUpstream())
		}
		s.resourceProxy = newResourceProxy(target)
	}

	var err error
	if s.authServerMetadata, err = marshalMetadata(s.authorizationServerMetadata()); err != nil {
		return nil, fmt.Errorf("[Server New] authorization server metadata: %w", err)
	}
	if s.protectedResourceMetadata, err = marshalMetadata(s.protectedResourceMetadataDocument()); err != nil {
		return nil, fmt.Errorf("[Server New] protected resource metadata: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func (s *Server) endpoint(path string) string {
	return s.config.GetBaseURL() + path
}

func newResourceProxy(target *url.URL) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Err(err).Str("path", r.URL.Path).Msg("resource upstream unavailable")
		writeJSONError(w, oauth2.ErrCodeTemporarilyUnavailable, "the resource server is unavailable", http.StatusBadGateway)
	}
	return proxy
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
