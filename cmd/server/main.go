package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/nanoauth/nanoauth/auth"
	"github.com/nanoauth/nanoauth/internal/config"
	"github.com/nanoauth/nanoauth/providers"
	"github.com/nanoauth/nanoauth/server"
	"github.com/nanoauth/nanoauth/session"
	"github.com/nanoauth/nanoauth/statetoken"
	"github.com/nanoauth/nanoauth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.New()
	if err != nil {
		return errors.Wrap(err, "config.New")
	}
	displayAppname(cfg.AppName)

	handler, err := buildServer(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.Addr(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// noProviders satisfies auth.ProviderSource when dev bypass runs without a
// single configured provider.
type noProviders struct{}

func (noProviders) Get(string) (providers.Client, error) {
	return nil, providers.ErrUnknownProvider
}

func buildServer(cfg *config.Config) (*server.Server, error) {
	creds := cfg.ProviderCredentials()

	var source auth.ProviderSource
	var ids []string
	switch {
	case len(creds) > 0:
		registry, err := providers.NewRegistry(cfg.CallbackURL, creds)
		if err != nil {
			return nil, errors.Wrap(err, "providers.NewRegistry")
		}
		source = registry
		ids = registry.IDs()
	case cfg.DevBypass:
		source = noProviders{}
	default:
		return nil, errors.New("no provider credentials configured")
	}

	sessions, err := session.New([]byte(cfg.SigningKey))
	if err != nil {
		return nil, errors.Wrap(err, "session.New")
	}

	// The in-memory repository is a stand-in; real deployments embed the
	// library and bring their own users.Repo.
	repo := users.NewInMemoryRepo()

	authCfg := auth.Config{
		Providers:       source,
		Codec:           statetoken.New(ids...),
		Sessions:        sessions,
		Users:           repo,
		ErrorRedirect:   cfg.ErrorRedirect,
		SignOutRedirect: cfg.SignOutRedirect,
	}
	if cfg.DevBypass {
		authCfg.DevBypass = true
		authCfg.DevUser = users.User{
			"id":    "dev-local",
			"name":  "Local Developer",
			"email": "dev@localhost",
		}
		log.Warn().Msg("dev bypass enabled: provider sign-in is skipped")
	}

	authenticator, err := auth.New(authCfg)
	if err != nil {
		return nil, errors.Wrap(err, "auth.New")
	}

	return server.New(cfg, authenticator)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
