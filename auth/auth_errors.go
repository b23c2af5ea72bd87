package auth

import (
	"github.com/nanoauth/nanoauth/providers"
	"github.com/nanoauth/nanoauth/statetoken"
	"github.com/nanoauth/nanoauth/users"
	"github.com/pkg/errors"
)

var (
	// ErrStateMismatch covers a missing code parameter and any state that
	// does not exactly equal the persisted CSRF reference.
	ErrStateMismatch = errors.New("oauth state mismatch")

	// ErrProfileFetchFailed means the provider profile could not be
	// resolved after a successful code exchange.
	ErrProfileFetchFailed = errors.New("could not fetch provider profile")

	// ErrUserLookupFailed wraps repository lookup failures.
	ErrUserLookupFailed = errors.New("user lookup failed")
)

// ErrorCode is the machine-readable code carried on the error redirect.
// Nothing else about a failure crosses the orchestrator boundary.
type ErrorCode string

const (
	CodeUnknownProvider    ErrorCode = "AE_UNKNOWN_PROVIDER"
	CodeMalformedState     ErrorCode = "AE_MALFORMED_STATE"
	CodeStateMismatch      ErrorCode = "AE_STATE_MISMATCH"
	CodeExchangeFailed     ErrorCode = "AE_EXCHANGE_FAILED"
	CodeProfileFetchFailed ErrorCode = "AE_PROFILE_FAILED"
	CodeUserLookupFailed   ErrorCode = "AE_USER_LOOKUP"

	// Repository codes surface verbatim; these are the defaults.
	CodeDuplicateUser   ErrorCode = users.CodeDuplicate
	CodeSuspendedUser   ErrorCode = users.CodeSuspended
	CodeBlacklistedUser ErrorCode = users.CodeBlacklisted
	CodeUnexpected      ErrorCode = users.CodeUnexpected
)

// coder is implemented by errors that carry their own redirect code,
// notably users.CodedError from the host repository.
type coder interface {
	Code() string
}

// CodeOf maps an error to its redirect code. Host-coded errors win; known
// flow errors map to their fixed codes; everything else is the generic
// unexpected code.
func CodeOf(err error) ErrorCode {
	var c coder
	if errors.As(err, &c) {
		return ErrorCode(c.Code())
	}

	switch {
	case errors.Is(err, providers.ErrUnknownProvider):
		return CodeUnknownProvider
	case errors.Is(err, statetoken.ErrMalformedState):
		return CodeMalformedState
	case errors.Is(err, ErrStateMismatch):
		return CodeStateMismatch
	case errors.Is(err, providers.ErrExchangeFailed):
		return CodeExchangeFailed
	case errors.Is(err, ErrProfileFetchFailed):
		return CodeProfileFetchFailed
	case errors.Is(err, ErrUserLookupFailed):
		return CodeUserLookupFailed
	default:
		return CodeUnexpected
	}
}

// defaultErrorTexts are the human-readable fallbacks for user-facing codes.
var defaultErrorTexts = map[ErrorCode]string{
	CodeDuplicateUser:   "User already exists",
	CodeSuspendedUser:   "User is suspended",
	CodeBlacklistedUser: "User does not have access",
	CodeUnexpected:      "An unexpected error occurred",
}

// ErrorTable resolves codes to display text. Hosts can override the default
// texts, e.g. for localization.
type ErrorTable struct {
	texts map[ErrorCode]string
}

// NewErrorTable builds a table from the defaults plus host overrides.
func NewErrorTable(overrides map[ErrorCode]string) *ErrorTable {
	texts := make(map[ErrorCode]string, len(defaultErrorTexts)+len(overrides))
	for code, text := range defaultErrorTexts {
		texts[code] = text
	}
	for code, text := range overrides {
		texts[code] = text
	}
	return &ErrorTable{texts: texts}
}

// Text returns the display text for a code, falling back to the unexpected
// text for codes without an entry.
func (t *ErrorTable) Text(code ErrorCode) string {
	if text, ok := t.texts[code]; ok {
		return text
	}
	return t.texts[CodeUnexpected]
}
