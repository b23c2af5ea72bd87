// Package users defines the contract between the authentication core and
// the host application's user storage. The core never persists users itself;
// it only looks them up and asks the host to create them.
package users

// User is the host application's account record. Its shape is host-defined:
// the session layer sanitizes it against a claim schema before embedding it
// into a token, so arbitrary keys are fine. The only hard requirement is an
// "id" entry holding the application user identifier.
type User map[string]any

// ID returns the user identifier, or "" if the record has none.
func (u User) ID() string {
	id, _ := u["id"].(string)
	return id
}

// Well-known repository error codes. Hosts may return their own codes via
// CodedError; these are the defaults the in-memory repository and the error
// table understand.
const (
	CodeDuplicate   = "AE001"
	CodeSuspended   = "AE002"
	CodeBlacklisted = "AE003"
	CodeUnexpected  = "GE001"
)

// CodedError carries a host-defined machine-readable error code. The
// orchestrator surfaces the code verbatim to the error redirect, so it must
// not contain anything secret.
type CodedError struct {
	code    string
	message string
}

// NewCodedError builds a repository error with the given code and message.
func NewCodedError(code, message string) *CodedError {
	return &CodedError{code: code, message: message}
}

func (e *CodedError) Error() string {
	return e.message
}

// Code returns the machine-readable error code.
func (e *CodedError) Code() string {
	return e.code
}
