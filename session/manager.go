// Package session issues, verifies, and refreshes the signed bearer tokens
// that represent an authenticated browser session. Tokens are HS256 JWTs:
// the only party that ever verifies them is the service that issued them, so
// a symmetric MAC is the right signature shape. Claims are signed, never
// encrypted, and must not carry secrets.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nanoauth/nanoauth/users"
	"github.com/pkg/errors"
)

// DefaultTTL is how long a session token stays valid after issuance. The
// persist flag never changes this; it only governs how long the cookie
// carrying the token survives client-side.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidSignature means the MAC did not match the signing key.
	ErrInvalidSignature = errors.New("session token signature mismatch")
	// ErrExpired means the token was well-formed but past its expiry.
	ErrExpired = errors.New("session token expired")
	// ErrMalformed means the token structure could not be parsed.
	ErrMalformed = errors.New("malformed session token")
)

// Claims is the verified payload of a session token.
type Claims struct {
	User    users.User
	Persist bool
}

type tokenClaims struct {
	User    map[string]any `json:"usr"`
	Persist bool           `json:"pst,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session tokens with a single static symmetric
// key. Safe for concurrent use.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	schema  Schema
	nowFunc func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithSchema installs a claim schema; user records are sanitized against it
// before signing so unexpected host fields never leak into tokens.
func WithSchema(schema Schema) Option {
	return func(m *Manager) {
		m.schema = schema
	}
}

// New creates a Manager around the shared signing key.
func New(secret []byte, options ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("[session.New] signing key is required")
	}

	m := &Manager{
		secret:  secret,
		ttl:     DefaultTTL,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Issue produces a signed, time-stamped credential for a user. The persist
// marker rides along so refreshes can carry it through; it does not alter
// expiry or trust.
func (m *Manager) Issue(user users.User, persist bool) (string, error) {
	if user.ID() == "" {
		return "", errors.New("[Issue] user record lacks an id")
	}
	if m.schema != nil {
		user = m.schema.Sanitize(user)
	}

	now := m.nowFunc()
	claims := tokenClaims{
		User:    user,
		Persist: persist,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Issue] sign token")
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the embedded claims.
// The three failure modes are distinguishable for diagnostics; callers treat
// them all as "no session".
func (m *Manager) Verify(token string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.nowFunc),
		jwt.WithExpirationRequired(),
	)

	var claims tokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.Wrap(ErrInvalidSignature, err.Error())
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, errors.Wrap(ErrExpired, err.Error())
		default:
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
	}

	return &Claims{
		User:    users.User(claims.User),
		Persist: claims.Persist,
	}, nil
}

// Refresh verifies a token and re-issues it with a fresh expiry window. The
// persist flag is carried over from the token being refreshed, never reset,
// so a session-scoped credential can never silently become persistent.
func (m *Manager) Refresh(token string) (string, *Claims, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return "", nil, err
	}

	fresh, err := m.Issue(claims.User, claims.Persist)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Refresh] re-issue")
	}
	return fresh, claims, nil
}

// TTL returns the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
