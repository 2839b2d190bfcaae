package domain

import (
	"errors"
	"fmt"
)

// The four provider error kinds. Nothing else crosses the provider boundary:
// every provider-originating failure is converted to exactly one of these
// before it reaches state.
var (
	// ErrAuthOrQuota: the credential was rejected or its quota exhausted.
	// Fatal to the credential, not the session; a new credential recovers.
	ErrAuthOrQuota = errors.New("credential rejected or quota exhausted")

	// ErrUserInput: the request itself was invalid. Inputs are preserved so
	// the user can correct and resubmit.
	ErrUserInput = errors.New("invalid request input")

	// ErrTransientProvider: provider-side failure with no content. Safe to
	// retry unchanged; retries are user-triggered only.
	ErrTransientProvider = errors.New("transient provider failure")

	// ErrEmptyResult: the call technically succeeded but produced no usable
	// payload. Treated as a failure for UI purposes.
	ErrEmptyResult = errors.New("provider returned no usable output")
)

// ErrNoCredential blocks dispatch while no credential is present.
var ErrNoCredential = errors.New("no credential configured")

// ProviderError carries a classified kind together with the human-readable
// message surfaced to the user. Only the message leaks past the engine; the
// provider's raw error structure does not.
type ProviderError struct {
	Kind    error
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *ProviderError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewProviderError builds a classified error. The message defaults to the
// cause's text so provider messages surface verbatim.
func NewProviderError(kind error, message string, cause error) *ProviderError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ProviderError{Kind: kind, Message: message, Err: cause}
}

// UserInputf builds a user-input error from a format string, for guard
// violations raised before any provider call.
func UserInputf(format string, args ...any) *ProviderError {
	return &ProviderError{Kind: ErrUserInput, Message: fmt.Sprintf(format, args...)}
}
