// Package auth implements the authentication state machine: sign-in start,
// callback completion, session revalidation, and sign-out. The orchestrator
// is immutable after construction and safe for unlimited concurrent readers;
// all per-request state lives in the host-owned Carrier.
package auth

import (
	"context"
	"crypto/subtle"
	stderrors "errors"
	"strings"

	"github.com/nanoauth/nanoauth/providers"
	"github.com/nanoauth/nanoauth/session"
	"github.com/nanoauth/nanoauth/statetoken"
	"github.com/nanoauth/nanoauth/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ProviderSource resolves provider identifiers to clients. Satisfied by
// *providers.Registry.
type ProviderSource interface {
	Get(id string) (providers.Client, error)
}

// Config assembles every dependency of the Authenticator. It is read once
// at construction; the Authenticator never mutates it afterwards.
type Config struct {
	Providers ProviderSource
	Codec     *statetoken.Codec
	Sessions  *session.Manager
	Users     users.Repo

	// ErrorRedirect is the relative URI every failure converges to; it
	// receives an error=<code> query parameter and nothing else.
	ErrorRedirect string

	// SignOutRedirect is where SignOut sends the browser. Defaults to "/".
	SignOutRedirect string

	// DevBypass skips the provider round trip entirely and signs in
	// DevUser. Explicit opt-in for local development only.
	DevBypass bool
	DevUser   users.User

	// OnNewUser runs after a session is committed for a freshly created
	// user. Fire-and-forget: its failure never fails the sign-in.
	OnNewUser func(users.User)

	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// Authenticator drives the authorization-code sign-in flow and the session
// credential lifecycle.
type Authenticator struct {
	providers       ProviderSource
	codec           *statetoken.Codec
	sessions        *session.Manager
	users           users.Repo
	errorRedirect   string
	signOutRedirect string
	devBypass       bool
	devUser         users.User
	onNewUser       func(users.User)
	log             zerolog.Logger
}

// StartOptions carry the sign-in intent supplied by the host.
type StartOptions struct {
	// RedirectTo is the relative path to land on after a successful
	// sign-in. Defaults to "/".
	RedirectTo string

	// Persist asks for a long-lived session cookie.
	Persist bool
}

// New validates the configuration and builds an Authenticator.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Providers == nil {
		return nil, errors.New("[auth.New] provider source is required")
	}
	if cfg.Codec == nil {
		return nil, errors.New("[auth.New] state token codec is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("[auth.New] session manager is required")
	}
	if cfg.Users == nil {
		return nil, errors.New("[auth.New] user repository is required")
	}
	if cfg.ErrorRedirect == "" {
		return nil, errors.New("[auth.New] error redirect is required")
	}
	if cfg.DevBypass && cfg.DevUser.ID() == "" {
		return nil, errors.New("[auth.New] dev bypass requires a stand-in user with an id")
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	signOut := cfg.SignOutRedirect
	if signOut == "" {
		signOut = "/"
	}

	return &Authenticator{
		providers:       cfg.Providers,
		codec:           cfg.Codec,
		sessions:        cfg.Sessions,
		users:           cfg.Users,
		errorRedirect:   cfg.ErrorRedirect,
		signOutRedirect: signOut,
		devBypass:       cfg.DevBypass,
		devUser:         cfg.DevUser,
		onNewUser:       cfg.OnNewUser,
		log:             logger,
	}, nil
}

// StartSignIn begins the flow for a provider and returns the URL to send
// the end user to. The freshly minted state token is stored in the carrier
// as the CSRF reference for the callback.
func (a *Authenticator) StartSignIn(ctx context.Context, carrier Carrier, provider string, opts StartOptions) (string, error) {
	if a.devBypass {
		token, err := a.sessions.Issue(a.devUser, opts.Persist)
		if err != nil {
			return "", errors.Wrap(err, "[StartSignIn] dev bypass issue")
		}
		setSessionCookie(carrier, token, opts.Persist)
		a.log.Info().Str("user", a.devUser.ID()).Msg("dev bypass sign-in")
		return "/", nil
	}

	client, err := a.providers.Get(provider)
	if err != nil {
		return "", errors.Wrap(err, "[StartSignIn]")
	}

	redirectTo := opts.RedirectTo
	if redirectTo == "" {
		redirectTo = "/"
	}

	state, err := a.codec.Encode(provider, opts.Persist, redirectTo)
	if err != nil {
		return "", errors.Wrap(err, "[StartSignIn] encode state")
	}

	carrier.Set(StateCookie, state, CookieOptions{HTTPOnly: true})
	// Readable by client script on purpose: it powers the "last used
	// provider" hint on the sign-in page.
	carrier.Set(LastUsedCookie, provider, CookieOptions{MaxAge: SessionMaxAge})

	return client.BuildGrantURL(state), nil
}

// CompleteSignIn handles the provider callback. The returned redirect is
// always usable: the decoded destination on success, the error target with
// an error code on failure. The error return carries diagnostics that never
// cross the redirect boundary.
func (a *Authenticator) CompleteSignIn(ctx context.Context, carrier Carrier, code, state string) (string, error) {
	reference, hasReference := carrier.Get(StateCookie)
	// The CSRF reference is single-use: consumed now, match or not.
	carrier.Delete(StateCookie)

	if code == "" || !hasReference || !stateEqual(state, reference) {
		return a.fail(errors.Wrap(ErrStateMismatch, "[CompleteSignIn]"))
	}

	decoded, err := a.codec.Decode(state)
	if err != nil {
		return a.fail(errors.Wrap(err, "[CompleteSignIn] decode state"))
	}

	client, err := a.providers.Get(decoded.Provider)
	if err != nil {
		return a.fail(errors.Wrap(err, "[CompleteSignIn]"))
	}

	accessToken, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return a.fail(errors.Wrap(err, "[CompleteSignIn]"))
	}

	identity := client.FetchProfile(ctx, accessToken)
	if identity == nil {
		return a.fail(errors.Wrapf(ErrProfileFetchFailed, "[CompleteSignIn] provider %s", decoded.Provider))
	}

	key := users.ProviderKey(decoded.Provider, identity.ProviderUserID)
	user, err := a.users.ByProviderKey(ctx, key)
	if err != nil {
		return a.fail(stderrors.Join(ErrUserLookupFailed, err))
	}

	isNew := false
	if user == nil {
		user, err = a.users.Create(ctx, key, *identity)
		if err != nil {
			// Creation errors are meaningful to the end user
			// (duplicate, suspended); their codes pass through.
			return a.fail(errors.WithMessage(err, "[CompleteSignIn] create user"))
		}
		isNew = true
	}

	token, err := a.sessions.Issue(user, decoded.Persist)
	if err != nil {
		return a.fail(errors.Wrap(err, "[CompleteSignIn] issue session"))
	}
	setSessionCookie(carrier, token, decoded.Persist)

	if isNew {
		a.notifyNewUser(user)
	}

	a.log.Info().
		Str("provider", decoded.Provider).
		Str("user", user.ID()).
		Bool("new_user", isNew).
		Msg("sign-in complete")

	return decoded.RedirectTo, nil
}

// Revalidate verifies the current session credential and rotates it. Any
// verification or repository failure clears the credential and reports "no
// user"; the caller cannot tell the failure modes apart by design.
func (a *Authenticator) Revalidate(ctx context.Context, carrier Carrier) (users.User, error) {
	token, ok := carrier.Get(SessionCookie)
	if !ok {
		return nil, nil
	}

	claims, err := a.sessions.Verify(token)
	if err != nil {
		a.log.Debug().Err(err).Msg("session verification failed")
		carrier.Delete(SessionCookie)
		return nil, nil
	}

	user, err := a.users.ByProviderKey(ctx, claims.User.ID())
	if err != nil || user == nil {
		if err != nil {
			a.log.Debug().Err(err).Msg("session user no longer eligible")
		}
		carrier.Delete(SessionCookie)
		return nil, nil
	}

	fresh, err := a.sessions.Issue(user, claims.Persist)
	if err != nil {
		return nil, errors.Wrap(err, "[Revalidate] re-issue session")
	}
	setSessionCookie(carrier, fresh, claims.Persist)

	return user, nil
}

// SignOut clears the session credential. It always succeeds and never
// contacts the provider. Returns the configured post-sign-out destination.
func (a *Authenticator) SignOut(carrier Carrier) string {
	carrier.Delete(SessionCookie)
	return a.signOutRedirect
}

// FailureRedirect builds the generic error destination for a code.
func (a *Authenticator) FailureRedirect(code ErrorCode) string {
	separator := "?"
	if strings.Contains(a.errorRedirect, "?") {
		separator = "&"
	}
	return a.errorRedirect + separator + "error=" + string(code)
}

func (a *Authenticator) fail(err error) (string, error) {
	code := CodeOf(err)
	a.log.Warn().Err(err).Str("code", string(code)).Msg("sign-in failed")
	return a.FailureRedirect(code), err
}

// notifyNewUser runs the host hook without letting it affect the sign-in
// outcome: the session is already committed and a panicking hook only logs.
func (a *Authenticator) notifyNewUser(user users.User) {
	if a.onNewUser == nil {
		return
	}
	hook := a.onNewUser
	logger := a.log
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn().Interface("panic", r).Msg("new user hook panicked")
			}
		}()
		hook(user)
	}()
}

// stateEqual compares the callback state against the persisted reference
// without short-circuiting on a partial prefix.
func stateEqual(state, reference string) bool {
	return subtle.ConstantTimeCompare([]byte(state), []byte(reference)) == 1
}
