package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID     = "client-123"
	testClientSecret = "secret-456"
	testRedirectURI  = "https://app.example.com/auth/callback"
)

func TestBuildGrantURLProperties(t *testing.T) {
	state := "opaque-state-!@#$%^&*()"

	for id, s := range catalog() {
		t.Run(id, func(t *testing.T) {
			c := newClient(s, Credentials{ClientID: testClientID, ClientSecret: testClientSecret}, testRedirectURI, nil)

			grantURL, err := url.Parse(c.BuildGrantURL(state))
			require.NoError(t, err)

			authURL, err := url.Parse(s.endpoint.AuthURL)
			require.NoError(t, err)
			assert.Equal(t, authURL.Host, grantURL.Host)
			assert.Equal(t, authURL.Path, grantURL.Path)

			query := grantURL.Query()
			assert.Equal(t, "code", query.Get("response_type"))
			assert.Equal(t, testClientID, query.Get("client_id"))
			assert.Equal(t, testRedirectURI, query.Get("redirect_uri"))
			assert.Equal(t, strings.Join(s.scopes, " "), query.Get("scope"))
			assert.Equal(t, state, query.Get("state"), "state must pass through unmodified")
		})
	}
}

func TestExchangeCodeFormEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, testClientID, r.FormValue("client_id"))
		assert.Equal(t, testClientSecret, r.FormValue("client_secret"))
		assert.Equal(t, testRedirectURI, r.FormValue("redirect_uri"))
		assert.Equal(t, "auth-code-1", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at-form"})
	}))
	defer srv.Close()

	c := testExchangeClient(t, encodeForm, srv.URL)
	token, err := c.ExchangeCode(context.Background(), "auth-code-1")
	require.NoError(t, err)
	assert.Equal(t, "at-form", token)
}

func TestExchangeCodeJSONEncoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "authorization_code", body["grant_type"])
		assert.Equal(t, "auth-code-2", body["code"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at-json"})
	}))
	defer srv.Close()

	c := testExchangeClient(t, encodeJSON, srv.URL)
	token, err := c.ExchangeCode(context.Background(), "auth-code-2")
	require.NoError(t, err)
	assert.Equal(t, "at-json", token)
}

func TestExchangeCodeFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]string{"token_type": "bearer"})
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>oops</html>"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := testExchangeClient(t, encodeForm, srv.URL)
			_, err := c.ExchangeCode(context.Background(), "code")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrExchangeFailed)
		})
	}
}

func TestExchangeCodeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := testExchangeClient(t, encodeForm, srv.URL)
	_, err := c.ExchangeCode(context.Background(), "code")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExchangeFailed)
}

func TestResolveDiscordProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "80351110224678912",
			"username":    "nelly",
			"global_name": "Nelly R",
			"email":       "nelly@example.com",
			"verified":    true,
		})
	}))
	defer srv.Close()

	s := discordSettings()
	s.profileURL = srv.URL
	c := newClient(s, Credentials{ClientID: testClientID, ClientSecret: testClientSecret}, testRedirectURI, nil)

	identity := c.FetchProfile(context.Background(), "at-1")
	require.NotNil(t, identity)
	assert.Equal(t, "80351110224678912", identity.ProviderUserID)
	assert.Equal(t, "Nelly R", identity.FullName)
	assert.Equal(t, "nelly@example.com", identity.Email)
	assert.True(t, identity.EmailVerified)
}

func TestResolveDiscordProfileFailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := discordSettings()
	s.profileURL = srv.URL
	c := newClient(s, Credentials{ClientID: testClientID, ClientSecret: testClientSecret}, testRedirectURI, nil)

	assert.Nil(t, c.FetchProfile(context.Background(), "bad-token"))
}

func TestResolveGitHubProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 583231, "login": "octocat", "name": "The Octocat"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"email": "octo@work.example", "primary": false, "verified": true},
			{"email": "octocat@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testGitHubClient(srv.URL)
	identity := c.FetchProfile(context.Background(), "at-gh")
	require.NotNil(t, identity)
	assert.Equal(t, "583231", identity.ProviderUserID)
	assert.Equal(t, "The Octocat", identity.FullName)
	assert.Equal(t, "octocat@example.com", identity.Email, "must pick the primary email")
	assert.True(t, identity.EmailVerified)
}

func TestResolveGitHubProfileNoPrimaryEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 42, "login": "ghost"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"email": "maybe@example.com", "primary": false, "verified": false},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testGitHubClient(srv.URL)
	identity := c.FetchProfile(context.Background(), "at-gh")
	require.NotNil(t, identity)
	assert.Equal(t, "ghost", identity.FullName, "login is the fallback name")
	assert.Empty(t, identity.Email, "no primary email means no email, not a guess")
	assert.False(t, identity.EmailVerified)
}

func TestResolveGitHubProfileEmailEndpointDownIsNotFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 7, "login": "lucky"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testGitHubClient(srv.URL)
	identity := c.FetchProfile(context.Background(), "at-gh")
	require.NotNil(t, identity)
	assert.Equal(t, "7", identity.ProviderUserID)
	assert.Empty(t, identity.Email)
}

func TestResolveGitHubProfileEndpointDownIsFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testGitHubClient(srv.URL)
	assert.Nil(t, c.FetchProfile(context.Background(), "bad"))
}

func TestResolveGoogleProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":            "10769150350006150715113082367",
			"name":           "Jane Doe",
			"email":          "jane@example.com",
			"email_verified": true,
		})
	}))
	defer srv.Close()

	s := googleSettings()
	s.profileURL = srv.URL
	c := newClient(s, Credentials{ClientID: testClientID, ClientSecret: testClientSecret}, testRedirectURI, nil)

	identity := c.FetchProfile(context.Background(), "at-g")
	require.NotNil(t, identity)
	assert.Equal(t, "10769150350006150715113082367", identity.ProviderUserID)
	assert.Equal(t, "Jane Doe", identity.FullName)
	assert.Equal(t, "jane@example.com", identity.Email)
	assert.True(t, identity.EmailVerified)
}

// testExchangeClient builds a client whose token endpoint points at a test
// server.
func testExchangeClient(t *testing.T, encoding bodyEncoding, tokenURL string) *client {
	t.Helper()
	s := settings{
		id:       "testprov",
		endpoint: oauth2.Endpoint{AuthURL: tokenURL + "/authorize", TokenURL: tokenURL},
		scopes:   []string{"identify"},
		encoding: encoding,
	}
	return newClient(s, Credentials{ClientID: testClientID, ClientSecret: testClientSecret}, testRedirectURI, nil)
}

func testGitHubClient(baseURL string) *client {
	s := githubSettings()
	s.profileURL = baseURL + "/user"
	s.emailsURL = baseURL + "/user/emails"
	return newClient(s, Credentials{ClientID: testClientID, ClientSecret: testClientSecret}, testRedirectURI, nil)
}
