package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"studio/internal/domain"
)

// Classify converts a raw provider failure into exactly one of the four
// domain error kinds. Structured API errors are mapped by HTTP code and
// status; only when no structured signal exists does the substring table run.
//
// The substring table is a known fragility: the provider's free-text error
// vocabulary is not guaranteed stable. It is kept deliberately short and is
// itself under test so a vocabulary change shows up as a test failure, not a
// silent misclassification.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	// Already classified (e.g. EmptyResult from an adapter).
	var pe *domain.ProviderError
	if errors.As(err, &pe) {
		return err
	}

	// The SDK returns APIError by value, so the target must be a value too.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(kindForAPIError(apiErr), apiErr.Message, err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewProviderError(domain.ErrTransientProvider, "request timed out", err)
	}

	if kind, ok := kindForMessage(err.Error()); ok {
		return domain.NewProviderError(kind, err.Error(), err)
	}

	return domain.NewProviderError(domain.ErrTransientProvider, err.Error(), err)
}

func kindForAPIError(apiErr genai.APIError) error {
	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return domain.ErrAuthOrQuota
	case http.StatusBadRequest, http.StatusNotFound:
		return domain.ErrUserInput
	}
	switch apiErr.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED", "RESOURCE_EXHAUSTED":
		return domain.ErrAuthOrQuota
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION", "NOT_FOUND":
		return domain.ErrUserInput
	}
	return domain.ErrTransientProvider
}

// messageSignals is the documented free-text mapping table, matched
// case-insensitively against the error text in order.
var messageSignals = []struct {
	substring string
	kind      error
}{
	{"api key not valid", domain.ErrAuthOrQuota},
	{"api key expired", domain.ErrAuthOrQuota},
	{"permission denied", domain.ErrAuthOrQuota},
	{"quota", domain.ErrAuthOrQuota},
	{"billing", domain.ErrAuthOrQuota},
	{"unauthorized", domain.ErrAuthOrQuota},
	{"invalid argument", domain.ErrUserInput},
	{"unsupported mime", domain.ErrUserInput},
}

func kindForMessage(message string) (error, bool) {
	lower := strings.ToLower(message)
	for _, signal := range messageSignals {
		if strings.Contains(lower, signal.substring) {
			return signal.kind, true
		}
	}
	return nil, false
}

// EmptyResult builds the classified error for a technically-successful call
// that produced no usable payload.
func EmptyResult(message string) error {
	return domain.NewProviderError(domain.ErrEmptyResult, message, nil)
}
