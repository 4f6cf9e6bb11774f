package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindNoCredential      Kind = "no_credential"
	KindTransportFailure  Kind = "transport_failure"
	KindMalformedResponse Kind = "malformed_response"
)

var (
	ErrNoCredential      = errors.New("no access token available")
	ErrTransport         = errors.New("backend unreachable or returned an error status")
	ErrMalformedResponse = errors.New("backend returned an unexpected payload")

	ErrInvalidSheetURL = errors.New("please enter a valid Google Sheets URL")
	ErrInvalidUpload   = errors.New("invalid upload")
)

// Error carries the failing operation and, for transport failures, the HTTP
// status when one was received.
type Error struct {
	Kind   Kind
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNoCredential:
		return e.Kind == KindNoCredential
	case ErrTransport:
		return e.Kind == KindTransportFailure
	case ErrMalformedResponse:
		return e.Kind == KindMalformedResponse
	}
	return false
}

func noCredential(op string) error {
	return &Error{Kind: KindNoCredential, Op: op}
}

func transportFailure(op string, status int, err error) error {
	return &Error{Kind: KindTransportFailure, Op: op, Status: status, Err: err}
}

func malformed(op string, err error) error {
	return &Error{Kind: KindMalformedResponse, Op: op, Err: err}
}
