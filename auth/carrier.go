package auth

// Cookie names used by the authentication flow. The state cookie is the
// server-held CSRF reference; the session cookie carries the signed
// credential; the last-used cookie is a UI hint readable by client script.
const (
	StateCookie    = "nano-state"
	SessionCookie  = "access-token"
	LastUsedCookie = "nano-last-used"
)

// SessionMaxAge is the cookie max-age, in seconds, for persistent sessions.
// Matches the token TTL of seven days.
const SessionMaxAge = 604800

// CookieOptions mirror the subset of cookie attributes the core cares
// about. MaxAge zero means session-scoped.
type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
	MaxAge   int
}

// Carrier is the host-supplied cookie store for one request. The core is
// stateless between requests; the CSRF reference and session credential
// both live here, owned by the host's transport.
type Carrier interface {
	// Get returns the named value and whether it was present.
	Get(name string) (string, bool)

	// Set stores a value with the given attributes.
	Set(name, value string, opts CookieOptions)

	// Delete removes a value.
	Delete(name string)
}

// setSessionCookie writes the credential with the carrier lifetime the
// persist flag asks for. The token's own expiry is fixed either way.
func setSessionCookie(carrier Carrier, token string, persist bool) {
	maxAge := 0
	if persist {
		maxAge = SessionMaxAge
	}
	carrier.Set(SessionCookie, token, CookieOptions{
		HTTPOnly: true,
		Secure:   true,
		MaxAge:   maxAge,
	})
}
