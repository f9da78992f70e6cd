package apierror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindValidation
	KindTimeout
	KindRateLimited
	KindServer
	KindMalformedResponse
	KindNetwork
	KindClient
	KindCanceled
)

var (
	ErrUnknown           = errors.New("apierror: unknown error")
	ErrAuthentication    = errors.New("apierror: authentication failed")
	ErrValidation        = errors.New("apierror: validation failed")
	ErrTimeout           = errors.New("apierror: request timed out")
	ErrRateLimited       = errors.New("apierror: rate limited")
	ErrServer            = errors.New("apierror: server error")
	ErrMalformedResponse = errors.New("apierror: malformed response")
	ErrNetwork           = errors.New("apierror: network error")
	ErrClient            = errors.New("apierror: client error")
	ErrCanceled          = errors.New("apierror: request canceled")
)

//nolint:gochecknoglobals
var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindAuthentication:    "authentication",
	KindValidation:        "validation",
	KindTimeout:           "timeout",
	KindRateLimited:       "rate_limited",
	KindServer:            "server",
	KindMalformedResponse: "malformed_response",
	KindNetwork:           "network",
	KindClient:            "client",
	KindCanceled:          "canceled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether failures of this kind are expected to be transient.
func (k Kind) Retryable() bool {
	switch k { //nolint:exhaustive
	case KindTimeout, KindRateLimited, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuthentication:
		return ErrAuthentication
	case KindValidation:
		return ErrValidation
	case KindTimeout:
		return ErrTimeout
	case KindRateLimited:
		return ErrRateLimited
	case KindServer:
		return ErrServer
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindNetwork:
		return ErrNetwork
	case KindClient:
		return ErrClient
	case KindCanceled:
		return ErrCanceled
	case KindUnknown:
		return ErrUnknown
	default:
		return ErrUnknown
	}
}

type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	RequestID  string
	Attempts   int
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.String())

	if e.StatusCode > 0 {
		fmt.Fprintf(&sb, " (HTTP %d)", e.StatusCode)
	}

	switch {
	case e.Message != "":
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	case e.Cause != nil:
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel() //nolint:errorlint
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:       kind,
		StatusCode: 0,
		Message:    message,
		RequestID:  "",
		Attempts:   0,
		Cause:      nil,
	}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

func Wrap(kind Kind, cause error, message string) *Error {
	e := New(kind, message)
	e.Cause = cause

	return e
}

// FromStatus classifies a non-2xx HTTP status code.
func FromStatus(statusCode int, message string) *Error {
	e := New(KindFromStatus(statusCode), message)
	e.StatusCode = statusCode

	if e.Message == "" {
		e.Message = http.StatusText(statusCode)
	}

	return e
}

func KindFromStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized:
		return KindAuthentication
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimited
	case statusCode >= http.StatusInternalServerError:
		return KindServer
	case statusCode >= http.StatusBadRequest:
		return KindClient
	default:
		return KindUnknown
	}
}

func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

func KindOf(err error) Kind {
	if apiErr, ok := As(err); ok {
		return apiErr.Kind
	}

	return KindUnknown
}

func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

// FromTransport classifies an error returned before any HTTP status was received.
// ctx is the caller's context, so a canceled caller is never mistaken for a timeout.
func FromTransport(ctx context.Context, err error) *Error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return Wrap(KindCanceled, err, "")
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, err, "")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(KindTimeout, err, "")
	}

	return Wrap(KindNetwork, err, "")
}
