package server

const (
	RouteAuthStart    = "/auth/{provider}/start"
	RouteAuthCallback = "/auth/callback"
	RouteAuthSignOut  = "/auth/signout"
	RouteAuthMe       = "/auth/me"
)
