package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 Routes
	RouteAuthorize = "/authorize"
	RouteCallback  = "/callback"
	RouteToken     = "/token"
	RouteRegister  = "/register"

	// Discovery Routes
	RouteWellKnownAuthServer        = "/.well-known/oauth-authorization-server"
	RouteWellKnownProtectedResource = "/.well-known/oauth-protected-resource"

	// Resource Routes
	RouteMCP = "/mcp"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
