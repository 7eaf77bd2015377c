// internal/pkg/apierror/apierror.go
package apierror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where it happened and how it is shown to users
type Kind int

const (
	// KindValidation is a local precondition failure; no network call was made
	KindValidation Kind = iota + 1
	// KindTransport is an unreachable, timed out or unreadable upstream
	KindTransport
	// KindServerReported is a structured rejection from the upstream API
	KindServerReported
	// KindPersistence is a snapshot read or write failure
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServerReported:
		return "server_reported"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// TransportMessage is what users see for every transport failure
const TransportMessage = "could not reach server"

// Error is the normalized error carried across the storefront
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int

	// Unauthenticated marks validation failures caused by a missing identity
	Unauthenticated bool

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the text surfaced to the storefront user
func (e *Error) UserMessage() string {
	if e.Kind == KindTransport {
		return TransportMessage
	}
	if e.Message != "" {
		return e.Message
	}
	return "unexpected error"
}

// Validation builds a local precondition failure
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Unauthenticated builds a validation failure for a missing identity token
func Unauthenticated(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Unauthenticated: true}
}

// Transport wraps a network-level failure
func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// ServerReported builds an upstream rejection
func ServerReported(op string, status int, message string) *Error {
	return &Error{Kind: KindServerReported, Op: op, Status: status, Message: message}
}

// Persistence wraps a snapshot store failure
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}

// As extracts an *Error from any error chain
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind
func IsKind(err error, kind Kind) bool {
	apiErr, ok := As(err)
	return ok && apiErr.Kind == kind
}

// UserMessage returns the user-facing message for any error
func UserMessage(err error) string {
	if apiErr, ok := As(err); ok {
		return apiErr.UserMessage()
	}
	return "unexpected error"
}
