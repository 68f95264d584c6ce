// Package common defines sentinel errors and shared helpers used across the
// server and client layers. Callers should use errors.Is to match the errors.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// blob storage errors
	ErrorStorage      = errors.New("storage error")
	ErrorBlobNotFound = errors.New("blob not found")

	// auth header errors
	ErrorNoAuthHeader            = errors.New("no auth header")
	ErrorInvalidAuthHeaderFormat = errors.New("invalid auth header format")
)
