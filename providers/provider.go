// Package providers implements the per-provider OAuth2 strategies used for
// "login with provider" sign-in. Every provider exposes the same three
// operations (grant URL, code exchange, profile fetch); variants differ only
// in endpoints, scopes, token-exchange body encoding, and how the profile
// response maps into an Identity.
package providers

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownProvider is returned by the registry for identifiers that
	// were never configured. Lookups fail closed; there is no default.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrExchangeFailed is returned when the authorization code could not
	// be exchanged for an access token.
	ErrExchangeFailed = errors.New("authorization code exchange failed")
)

// Identity is the normalized result of a successful profile fetch. It lives
// only for the duration of one callback invocation; persisting users is the
// host repository's job.
type Identity struct {
	ProviderUserID string
	FullName       string
	Email          string
	EmailVerified  bool
}

// Client is the capability set every provider strategy implements.
type Client interface {
	// ID returns the provider identifier this client was registered under.
	ID() string

	// BuildGrantURL returns the provider authorization URL carrying the
	// opaque state string unmodified.
	BuildGrantURL(state string) string

	// ExchangeCode trades an authorization code for an access token.
	// Network failures, non-2xx responses, and responses without an
	// access token all return ErrExchangeFailed.
	ExchangeCode(ctx context.Context, code string) (string, error)

	// FetchProfile resolves the provider profile for an access token.
	// A nil result means "could not authenticate": the provider account
	// may be in a transient bad state, so failures are not fatal errors.
	FetchProfile(ctx context.Context, accessToken string) *Identity
}

// Credentials are the per-provider client id and secret issued by the
// identity provider when the host application was registered.
type Credentials struct {
	ClientID     string
	ClientSecret string
}
