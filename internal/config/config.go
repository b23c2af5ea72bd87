// Package config loads the server configuration from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/nanoauth/nanoauth/providers"
	"github.com/pkg/errors"
)

// Config is the full environment-driven configuration for the example
// server. Provider credentials are optional per provider; a provider with
// incomplete credentials is simply not offered.
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"NanoAuth"`
	Env     string `env:"ENV" envDefault:"DEV"`

	SigningKey  string `env:"SIGNING_KEY,required"`
	CallbackURL string `env:"OAUTH_CALLBACK_URL,required"`

	ErrorRedirect   string `env:"ERROR_REDIRECT" envDefault:"/signin"`
	SignOutRedirect string `env:"SIGNOUT_REDIRECT" envDefault:"/"`

	// DevBypass signs in a stand-in user without any provider round trip.
	// Never enable outside local development.
	DevBypass bool `env:"DEV_BYPASS" envDefault:"false"`

	GitHubClientID      string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret  string `env:"GITHUB_CLIENT_SECRET"`
	GoogleClientID      string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret  string `env:"GOOGLE_CLIENT_SECRET"`
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
}

// New parses the environment into a Config.
func New() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "[config.New] env.Parse")
	}
	return cfg, nil
}

// Addr returns the listen address for net/http.
func (c *Config) Addr() string {
	if len(c.Port) > 0 && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

// IsDev reports whether the server runs in the development environment.
func (c *Config) IsDev() bool {
	return c.Env == "DEV"
}

// ProviderCredentials returns the providers with a complete credential pair.
func (c *Config) ProviderCredentials() map[string]providers.Credentials {
	creds := make(map[string]providers.Credentials)
	add := func(id, clientID, clientSecret string) {
		if clientID != "" && clientSecret != "" {
			creds[id] = providers.Credentials{ClientID: clientID, ClientSecret: clientSecret}
		}
	}
	add("github", c.GitHubClientID, c.GitHubClientSecret)
	add("google", c.GoogleClientID, c.GoogleClientSecret)
	add("discord", c.DiscordClientID, c.DiscordClientSecret)
	return creds
}
