package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPayloadTooLarge    = fmt.Errorf("payload too large")
	ErrStreamIncomplete   = fmt.Errorf("analysis stream ended with no result returned")
	ErrEntryNotFound      = fmt.Errorf("history entry not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

// ErrorKind is the machine-distinguishable cause of a failed analysis.
//
// The kind is carried as a structured code so callers never need to re-derive
// it from message text.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindUnauthorized
	KindConfiguration
	KindPayloadTooLarge
	KindStreamIncomplete
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindConfiguration:
		return "configuration"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindStreamIncomplete:
		return "stream_incomplete"
	default:
		return "generic"
	}
}

// AnalysisError is the single caller-visible error slot of a failed submission.
type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AnalysisError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "an unexpected error occurred"
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// UserMessage returns the human-readable message for the classified kind.
func (e *AnalysisError) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Session expired. Please log in again."
	case KindConfiguration:
		return "Backend configuration error: API key missing or invalid."
	case KindPayloadTooLarge:
		return "File is too large for the current method."
	case KindStreamIncomplete:
		return "The analysis stream ended before a result was returned."
	default:
		if e.Message != "" {
			return e.Message
		}
		return "An unexpected error occurred."
	}
}

// Classify maps an arbitrary error into an [AnalysisError] with a structured kind.
//
// Sentinel errors are matched first; message-content matching is kept for
// errors that originate as free text from the remote service.
func Classify(err error) *AnalysisError {
	if err == nil {
		return nil
	}

	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae
	}

	kind := KindGeneric
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotAuthenticated):
		kind = KindUnauthorized
	case errors.Is(err, ErrPayloadTooLarge):
		kind = KindPayloadTooLarge
	case errors.Is(err, ErrStreamIncomplete):
		kind = KindStreamIncomplete
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrMissingConfig):
		kind = KindConfiguration
	default:
		kind = classifyMessage(err.Error())
	}

	return &AnalysisError{Kind: kind, Message: err.Error(), Err: err}
}

// classifyMessage matches on message content for errors that carry no sentinel.
func classifyMessage(msg string) ErrorKind {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unauthorized"):
		return KindUnauthorized
	case msg == "NO_API_KEY", strings.Contains(msg, "API Key"), strings.Contains(msg, "400"):
		return KindConfiguration
	case strings.Contains(msg, "413"):
		return KindPayloadTooLarge
	case strings.Contains(lower, "no result returned"):
		return KindStreamIncomplete
	default:
		return KindGeneric
	}
}
