package server

func (s *Server) initRoutes() {
	// OAuth2 authorization code flow
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.Callback(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteCallback, ChainMiddleware(s.Callback(), s.HTMLMiddleWare()...)) // Tokens re-posted from the fragment
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.Register(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteRegister, ChainMiddleware(s.Register(), s.APIMiddleware()...))

	// Discovery
	s.RegisterRouteHandler("GET "+RouteWellKnownAuthServer, ChainMiddleware(s.WellKnownAuthorizationServer(), s.DiscoveryMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteWellKnownAuthServer, ChainMiddleware(s.WellKnownAuthorizationServer(), s.DiscoveryMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWellKnownProtectedResource, ChainMiddleware(s.WellKnownProtectedResource(), s.DiscoveryMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteWellKnownProtectedResource, ChainMiddleware(s.WellKnownProtectedResource(), s.DiscoveryMiddleware()...))

	// Protected resource
	if s.resourceProxy != nil {
		s.RegisterRouteHandler(RouteMCP, ChainMiddleware(s.Resource(), s.APIMiddleware(s.RequireBearer)...))
		s.RegisterRouteHandler(RouteMCP+"/", ChainMiddleware(s.Resource(), s.APIMiddleware(s.RequireBearer)...))
	}

	// Operational
	s.RegisterRouteFunc("GET "+RouteHealth, s.Health())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}
