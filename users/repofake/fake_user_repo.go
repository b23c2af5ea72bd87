// Package repofake provides a controllable users.Repo for tests.
package repofake

import (
	"context"
	"sync"

	"github.com/nanoauth/nanoauth/providers"
	"github.com/nanoauth/nanoauth/users"
)

// FakeUserRepo is an in-memory users.Repo with failure injection.
type FakeUserRepo struct {
	mu      sync.Mutex
	records map[string]users.User
	created []string

	LookupErr error
	CreateErr error
}

// NewFakeUserRepo creates an empty fake repository.
func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{records: make(map[string]users.User)}
}

// Seed stores a user under a provider key.
func (f *FakeUserRepo) Seed(key string, u users.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[key] = u
}

// Created returns the provider keys passed to Create, in order.
func (f *FakeUserRepo) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.created...)
}

func (f *FakeUserRepo) ByProviderKey(ctx context.Context, key string) (users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	u, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (f *FakeUserRepo) Create(ctx context.Context, key string, identity providers.Identity) (users.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	if _, exists := f.records[key]; exists {
		return nil, users.NewCodedError(users.CodeDuplicate, "user already exists")
	}

	u := users.User{
		"id":             key,
		"name":           identity.FullName,
		"email":          identity.Email,
		"email_verified": identity.EmailVerified,
	}
	f.records[key] = u
	f.created = append(f.created, key)
	return u, nil
}
