package users

import (
	"context"

	"github.com/nanoauth/nanoauth/providers"
)

// Repo is the host-supplied user repository. Identities are keyed by the
// composite "provider-providerUserID" string so numeric id collisions across
// providers can never alias two accounts.
type Repo interface {
	// ByProviderKey looks up the user for a provider identity key.
	// Absence is (nil, nil); an error means the lookup itself failed or
	// the account is not eligible (suspended, blacklisted).
	ByProviderKey(ctx context.Context, key string) (User, error)

	// Create registers a new user for a provider identity. Conflict and
	// validation failures should be returned as *CodedError so their
	// codes survive to the error redirect.
	Create(ctx context.Context, key string, identity providers.Identity) (User, error)
}

// ProviderKey builds the composite identity key.
func ProviderKey(provider, providerUserID string) string {
	return provider + "-" + providerUserID
}
