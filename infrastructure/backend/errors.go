package backend

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	// NetworkFailure means the request never got an HTTP answer: dial refused,
	// DNS, reset or timeout.
	NetworkFailure ErrorKind = iota + 1
	// ServerRejected means the backend answered with a non-2xx status.
	ServerRejected
	// DecodeFailure means a 2xx body could not be decoded.
	DecodeFailure
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case ServerRejected:
		return "server rejected"
	case DecodeFailure:
		return "decode failure"
	default:
		return "unknown"
	}
}

var (
	ErrNetwork  = errors.New("backend unreachable")
	ErrRejected = errors.New("backend rejected request")
	ErrDecode   = errors.New("backend response undecodable")
)

// Error is returned by every Client operation.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ServerRejected:
		if e.Body != "" {
			return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match on the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == NetworkFailure
	case ErrRejected:
		return e.Kind == ServerRejected
	case ErrDecode:
		return e.Kind == DecodeFailure
	}
	return false
}

// KindOf returns the kind of a backend error, or 0 when err is not one.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return 0
}
