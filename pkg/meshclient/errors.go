package meshclient

import (
	"errors"
	"fmt"
)

// Kind classifies a failed mesh request.
type Kind int

const (
	// KindUnprocessable means the service rejected the parameters (HTTP 422).
	KindUnprocessable Kind = iota + 1
	// KindTransport covers network failures, unexpected statuses and
	// malformed responses.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindUnprocessable:
		return "unprocessable"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrUnprocessable = errors.New("meshclient: unprocessable parameters")
	ErrTransport     = errors.New("meshclient: transport failure")
)

// Error is returned by RequestMesh. Status is zero when no response was
// received.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var s string
	if e.Status != 0 {
		s = fmt.Sprintf("meshclient: %s (status %d)", e.Kind, e.Status)
	} else {
		s = fmt.Sprintf("meshclient: %s", e.Kind)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnprocessable:
		return e.Kind == KindUnprocessable
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

func transport(status int, msg string, err error) *Error {
	return &Error{Kind: KindTransport, Status: status, Message: msg, Err: err}
}
