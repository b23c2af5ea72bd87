// Package server is the HTTP front for the authentication flow. It adapts
// cookies and query parameters onto the auth.Authenticator and stays thin:
// every decision lives in the auth package.
package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nanoauth/nanoauth/auth"
	"github.com/nanoauth/nanoauth/internal/config"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	auth   *auth.Authenticator
	errors *auth.ErrorTable
	log    zerolog.Logger
}

// New wires an Authenticator behind the HTTP routes.
func New(cfg *config.Config, authenticator *auth.Authenticator) (*Server, error) {
	if authenticator == nil {
		return nil, fmt.Errorf("[server.New] authenticator is required")
	}

	s := &Server{
		env:    cfg.Env,
		mux:    http.NewServeMux(),
		auth:   authenticator,
		errors: auth.NewErrorTable(nil),
		log:    zlog.Logger,
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

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
