package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Envelope is the uniform wrapper every endpoint returns
type Envelope[T any] struct {
	Data    T      `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorKind classifies a failed call
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindHTTP
	KindNetwork
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "TimeoutError"
	case KindHTTP:
		return "HttpError"
	case KindNetwork:
		return "NetworkError"
	case KindCanceled:
		return "CanceledError"
	default:
		return "UnknownError"
	}
}

// Kind sentinels, matched by errors.Is against any *APIError of the same kind
var (
	ErrTimeout  = errors.New("request timed out")
	ErrHTTP     = errors.New("request failed with non-2xx status")
	ErrNetwork  = errors.New("network error")
	ErrCanceled = errors.New("request canceled")
	ErrUnknown  = errors.New("unknown error")
)

// APIError is the normalized failure shape surfaced to callers
type APIError struct {
	Kind    ErrorKind      `json:"-"`
	Message string         `json:"message"`
	Status  int            `json:"status,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`

	Err error `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %d %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is lets callers write errors.Is(err, core.ErrTimeout)
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrHTTP:
		return e.Kind == KindHTTP
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrCanceled:
		return e.Kind == KindCanceled
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

// NewHTTPError builds an HttpError, falling back to the status text for the message
func NewHTTPError(status int, message, code string, details map[string]any) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{
		Kind:    KindHTTP,
		Message: message,
		Status:  status,
		Code:    code,
		Details: details,
	}
}

// AsAPIError unwraps err into an *APIError when possible
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
