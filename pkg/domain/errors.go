package domain

import "errors"

// Common domain errors
var (
	ErrJobNotFound         = errors.New("job not found")
	ErrUnsupportedBinding  = errors.New("unsupported binding value kind")
	ErrUnresolvedReference = errors.New("output reference does not resolve")
	ErrAdapterNotFound     = errors.New("adapter asset not found")
	ErrExecutorUnavailable = errors.New("execution engine unreachable")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrEmptyTrack          = errors.New("empty motion track")
)

// ErrorResponse is the standard JSON error model returned by the API layer.
// Code is stable and machine-readable; Message is safe for logs.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
