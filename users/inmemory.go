package users

import (
	"context"
	"sync"

	"github.com/nanoauth/nanoauth/providers"
)

// InMemoryRepo is a thread-safe in-memory Repo. It backs the example server
// and is handy for local development; production hosts supply their own.
type InMemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewInMemoryRepo creates an empty in-memory user repository.
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{users: make(map[string]User)}
}

func (r *InMemoryRepo) ByProviderKey(ctx context.Context, key string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[key]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *InMemoryRepo) Create(ctx context.Context, key string, identity providers.Identity) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[key]; exists {
		return nil, NewCodedError(CodeDuplicate, "user already exists")
	}

	u := User{
		"id":             key,
		"name":           identity.FullName,
		"email":          identity.Email,
		"email_verified": identity.EmailVerified,
	}
	r.users[key] = u
	return cloneUser(u), nil
}

// cloneUser copies the top-level map so callers cannot mutate stored state.
func cloneUser(u User) User {
	c := make(User, len(u))
	for k, v := range u {
		c[k] = v
	}
	return c
}
