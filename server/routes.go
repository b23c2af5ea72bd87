package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteAuthStart, ChainMiddleware(s.StartHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.CallbackHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSignOut, ChainMiddleware(s.SignOutHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), append(s.AuthMiddleware(), s.RequireSessionMiddleware)...))
}
