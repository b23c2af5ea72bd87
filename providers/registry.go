package providers

import (
	"net/http"
	"sort"

	"github.com/pkg/errors"
)

// catalog lists every provider this package knows how to talk to.
func catalog() map[string]settings {
	return map[string]settings{
		"discord": discordSettings(),
		"github":  githubSettings(),
		"google":  googleSettings(),
	}
}

// Registry holds one constructed Client per configured provider, all bound
// to the same callback redirect URI. Immutable after construction.
type Registry struct {
	clients map[string]Client
}

// RegistryOption configures optional registry behavior.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	httpClient *http.Client
}

// WithHTTPClient overrides the HTTP client used for provider calls
// (primarily for testing).
func WithHTTPClient(c *http.Client) RegistryOption {
	return func(rc *registryConfig) {
		rc.httpClient = c
	}
}

// NewRegistry constructs one Client per credentials entry. Identifiers the
// catalog does not know are a configuration error, not a silent skip.
func NewRegistry(redirectURI string, creds map[string]Credentials, options ...RegistryOption) (*Registry, error) {
	if redirectURI == "" {
		return nil, errors.New("[NewRegistry] redirect URI is required")
	}
	if len(creds) == 0 {
		return nil, errors.New("[NewRegistry] at least one provider is required")
	}

	rc := registryConfig{}
	for _, opt := range options {
		opt(&rc)
	}

	known := catalog()
	clients := make(map[string]Client, len(creds))
	for id, c := range creds {
		s, ok := known[id]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownProvider, "[NewRegistry] %q", id)
		}
		if c.ClientID == "" || c.ClientSecret == "" {
			return nil, errors.Errorf("[NewRegistry] incomplete credentials for %q", id)
		}
		clients[id] = newClient(s, c, redirectURI, rc.httpClient)
	}

	return &Registry{clients: clients}, nil
}

// Get returns the client for an identifier. Absent identifiers fail closed.
func (r *Registry) Get(id string) (Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProvider, "%q", id)
	}
	return c, nil
}

// IDs returns the configured provider identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
