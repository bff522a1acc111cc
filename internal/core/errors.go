package core

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a service error.
type ErrorKind string

const (
	// ErrorKindFetch indicates the remote data source failed or timed out.
	ErrorKindFetch ErrorKind = "fetch_failure"
	// ErrorKindDecode indicates stored cache bytes could not be decoded.
	ErrorKindDecode ErrorKind = "decode_failure"
	// ErrorKindStoreWrite indicates persisting a merged entry failed.
	ErrorKindStoreWrite ErrorKind = "store_write_failure"
	// ErrorKindInvalidRequest indicates a malformed client request.
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
	// ErrorKindNotFound indicates the requested resource does not exist.
	ErrorKindNotFound ErrorKind = "not_found"
)

// ServiceError is the base error type returned across package boundaries.
type ServiceError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap implements the error unwrapping interface.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status code appropriate for this error.
func (e *ServiceError) HTTPStatusCode() int {
	switch e.Kind {
	case ErrorKindInvalidRequest:
		return http.StatusBadRequest
	case ErrorKindNotFound:
		return http.StatusNotFound
	case ErrorKindFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map for HTTP responses.
func (e *ServiceError) ToJSON() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"kind":    e.Kind,
			"message": e.Message,
		},
	}
}

// NewFetchError wraps a remote source failure.
func NewFetchError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ErrorKindFetch, Message: message, Err: err}
}

// NewStoreWriteError wraps a persistence failure after a successful merge.
func NewStoreWriteError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ErrorKindStoreWrite, Message: message, Err: err}
}

// NewInvalidRequestError reports a malformed client request.
func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{Kind: ErrorKindInvalidRequest, Message: message, Err: err}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{Kind: ErrorKindNotFound, Message: message}
}
