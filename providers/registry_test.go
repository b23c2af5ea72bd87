package providers_test

import (
	"testing"

	"github.com/nanoauth/nanoauth/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redirectURI = "https://app.example.com/auth/callback"

func testCredentials() map[string]providers.Credentials {
	return map[string]providers.Credentials{
		"discord": {ClientID: "d-id", ClientSecret: "d-secret"},
		"github":  {ClientID: "gh-id", ClientSecret: "gh-secret"},
	}
}

func TestNewRegistry(t *testing.T) {
	registry, err := providers.NewRegistry(redirectURI, testCredentials())
	require.NoError(t, err)

	assert.Equal(t, []string{"discord", "github"}, registry.IDs())

	for _, id := range registry.IDs() {
		client, err := registry.Get(id)
		require.NoError(t, err)
		assert.Equal(t, id, client.ID())
	}
}

func TestNewRegistryRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name        string
		redirectURI string
		creds       map[string]providers.Credentials
	}{
		{"missing redirect", "", testCredentials()},
		{"no providers", redirectURI, nil},
		{"unknown provider", redirectURI, map[string]providers.Credentials{
			"myspace": {ClientID: "a", ClientSecret: "b"},
		}},
		{"missing secret", redirectURI, map[string]providers.Credentials{
			"github": {ClientID: "a"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := providers.NewRegistry(tt.redirectURI, tt.creds)
			require.Error(t, err)
		})
	}
}

func TestRegistryGetFailsClosed(t *testing.T) {
	registry, err := providers.NewRegistry(redirectURI, testCredentials())
	require.NoError(t, err)

	_, err = registry.Get("google")
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrUnknownProvider)

	_, err = registry.Get("")
	assert.ErrorIs(t, err, providers.ErrUnknownProvider)
}
