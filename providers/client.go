package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// bodyEncoding selects how a provider expects the token-exchange request
// body. Discord insists on form encoding; others take JSON.
type bodyEncoding int

const (
	encodeForm bodyEncoding = iota
	encodeJSON
)

const defaultHTTPTimeout = 10 * time.Second

// profileResolver maps a provider's profile endpoint(s) into an Identity.
// Returning nil means the profile could not be resolved.
type profileResolver func(ctx context.Context, c *client, accessToken string) *Identity

// settings is the static, provider-specific part of a client: endpoints,
// scopes, exchange encoding, and the profile mapping.
type settings struct {
	id         string
	endpoint   oauth2.Endpoint
	scopes     []string
	encoding   bodyEncoding
	profileURL string
	emailsURL  string // secondary endpoint for providers that expose email separately
	resolve    profileResolver
}

// client is the shared strategy implementation. All provider variants are a
// client parameterized by settings.
type client struct {
	settings
	conf *oauth2.Config
	http *http.Client
}

func newClient(s settings, creds Credentials, redirectURI string, httpClient *http.Client) *client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &client{
		settings: s,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     s.endpoint,
			RedirectURL:  redirectURI,
			Scopes:       s.scopes,
		},
		http: httpClient,
	}
}

func (c *client) ID() string {
	return c.id
}

// BuildGrantURL is deterministic for a given state: oauth2.Config sorts
// query parameters when encoding.
func (c *client) BuildGrantURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

func (c *client) ExchangeCode(ctx context.Context, code string) (string, error) {
	fields := map[string]string{
		"client_id":     c.conf.ClientID,
		"client_secret": c.conf.ClientSecret,
		"grant_type":    "authorization_code",
		"redirect_uri":  c.conf.RedirectURL,
		"code":          code,
	}

	var body io.Reader
	var contentType string
	switch c.encoding {
	case encodeJSON:
		payload, err := json.Marshal(fields)
		if err != nil {
			return "", errors.Wrap(err, "[ExchangeCode] marshal body")
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	default:
		form := url.Values{}
		for k, v := range fields {
			form.Set(k, v)
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.conf.Endpoint.TokenURL, body)
	if err != nil {
		return "", errors.Wrap(err, "[ExchangeCode] build request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrExchangeFailed, "[ExchangeCode] %s token request: %v", c.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(ErrExchangeFailed, "[ExchangeCode] %s token endpoint returned %d", c.id, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrapf(ErrExchangeFailed, "[ExchangeCode] %s token response: %v", c.id, err)
	}
	if payload.AccessToken == "" {
		return "", errors.Wrapf(ErrExchangeFailed, "[ExchangeCode] %s response lacks access token", c.id)
	}

	return payload.AccessToken, nil
}

func (c *client) FetchProfile(ctx context.Context, accessToken string) *Identity {
	return c.resolve(ctx, c, accessToken)
}

// getJSON performs a bearer-authorized GET against a provider endpoint and
// decodes the JSON response into out.
func (c *client) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("endpoint returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// logProfileFailure records why a profile fetch came back empty. Callers
// only see nil; the reason is diagnostics.
func logProfileFailure(provider string, err error) {
	log.Debug().Err(err).Str("provider", provider).Msg("profile fetch failed")
}
