// Package statetoken encodes and decodes the opaque OAuth2 `state`
// parameter. A token carries the sign-in intent (provider, persist flag,
// post-login redirect) followed by a random nonce so that two sign-ins with
// identical intent never produce the same token. The token has no signature;
// CSRF protection comes from exact-match comparison against the copy the
// host persisted when the flow started.
package statetoken

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedState is returned when a token cannot be decoded or names a
// provider outside the configured set.
var ErrMalformedState = errors.New("malformed state token")

const (
	// nonceLength is the number of random bytes appended to every token.
	nonceLength = 16

	payloadDelimiter = ":"
	segmentSeparator = "."
)

// Decoded is the logical content of a state token.
type Decoded struct {
	Provider   string
	Persist    bool
	RedirectTo string
}

// Codec encodes and decodes state tokens for a fixed set of provider
// identifiers. Safe for concurrent use; the provider set is immutable after
// construction.
type Codec struct {
	providers map[string]struct{}
}

// New creates a Codec that accepts only the given provider identifiers.
func New(providerIDs ...string) *Codec {
	set := make(map[string]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		set[id] = struct{}{}
	}
	return &Codec{providers: set}
}

// Encode serializes the sign-in intent and appends a fresh nonce segment.
// redirectTo must be a relative path ("/..."), never an absolute URL.
func (c *Codec) Encode(provider string, persist bool, redirectTo string) (string, error) {
	if _, ok := c.providers[provider]; !ok {
		return "", errors.Wrapf(ErrMalformedState, "[Encode] provider %q not configured", provider)
	}
	if strings.Contains(provider, payloadDelimiter) {
		return "", errors.Wrap(ErrMalformedState, "[Encode] provider contains delimiter")
	}
	if err := validateRedirect(redirectTo); err != nil {
		return "", errors.Wrap(err, "[Encode] invalid redirect")
	}

	persistFlag := "0"
	if persist {
		persistFlag = "1"
	}
	// redirectTo goes last so decoding tolerates delimiters inside the path.
	payload := provider + payloadDelimiter + persistFlag + payloadDelimiter + redirectTo

	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "[Encode] rand.Read")
	}

	return hex.EncodeToString([]byte(payload)) + segmentSeparator + hex.EncodeToString(nonce), nil
}

// Decode reverses Encode. It validates structure and provider membership
// only; comparing the token against the host-persisted copy is the
// orchestrator's job.
func (c *Codec) Decode(token string) (Decoded, error) {
	encoded, nonce, found := strings.Cut(token, segmentSeparator)
	if !found {
		return Decoded{}, errors.Wrap(ErrMalformedState, "[Decode] missing nonce segment")
	}
	if raw, err := hex.DecodeString(nonce); err != nil || len(raw) < nonceLength {
		return Decoded{}, errors.Wrap(ErrMalformedState, "[Decode] bad nonce segment")
	}

	payload, err := hex.DecodeString(encoded)
	if err != nil {
		return Decoded{}, errors.Wrap(ErrMalformedState, "[Decode] payload is not hex")
	}

	parts := strings.SplitN(string(payload), payloadDelimiter, 3)
	if len(parts) != 3 {
		return Decoded{}, errors.Wrap(ErrMalformedState, "[Decode] wrong payload structure")
	}

	provider, persistFlag, redirectTo := parts[0], parts[1], parts[2]
	if _, ok := c.providers[provider]; !ok {
		return Decoded{}, errors.Wrapf(ErrMalformedState, "[Decode] provider %q not configured", provider)
	}
	if persistFlag != "0" && persistFlag != "1" {
		return Decoded{}, errors.Wrap(ErrMalformedState, "[Decode] bad persist flag")
	}
	if err := validateRedirect(redirectTo); err != nil {
		return Decoded{}, errors.Wrap(err, "[Decode] invalid redirect")
	}

	return Decoded{
		Provider:   provider,
		Persist:    persistFlag == "1",
		RedirectTo: redirectTo,
	}, nil
}

// validateRedirect constrains redirect targets to host-relative paths so a
// state token can never send the browser off-site.
func validateRedirect(redirectTo string) error {
	if redirectTo == "" {
		return errors.Wrap(ErrMalformedState, "empty redirect")
	}
	if !strings.HasPrefix(redirectTo, "/") || strings.HasPrefix(redirectTo, "//") {
		return errors.Wrap(ErrMalformedState, "redirect must be a relative path")
	}
	for _, r := range redirectTo {
		if r < 0x21 || r > 0x7e {
			return errors.Wrap(ErrMalformedState, "redirect contains unsafe characters")
		}
	}
	return nil
}
