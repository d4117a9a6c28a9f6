package trakt

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error types for common failure scenarios.
var (
	// ErrMissingClientID indicates the configuration has no client id.
	ErrMissingClientID = errors.New("missing client id")

	// ErrAuthorizationRequired indicates an endpoint that needs OAuth was
	// called without an access token or without a client secret.
	ErrAuthorizationRequired = errors.New("oauth authorization required")

	// ErrCSRFMismatch indicates the state returned by the authorization
	// server does not match the one issued by AuthURL.
	ErrCSRFMismatch = errors.New("invalid csrf state")

	// ErrInvalidPoll indicates a malformed device code was passed to polling.
	ErrInvalidPoll = errors.New("invalid poll object")

	// ErrPollExpired indicates the device code expired before the user
	// authorized the application.
	ErrPollExpired = errors.New("device code expired")

	// ErrPollCanceled indicates polling was stopped by the caller.
	ErrPollCanceled = errors.New("device code polling canceled")

	// ErrNoRefreshToken indicates a refresh was attempted without a refresh token.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrUnknownMethod indicates a lookup for a method the table does not define.
	ErrUnknownMethod = errors.New("unknown method")
)

// FieldProblem is one failed configuration rule.
type FieldProblem struct {
	Field string
	Rule  string
}

// ConfigError reports an invalid client configuration.
type ConfigError struct {
	Fields []FieldProblem
	Err    error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return "invalid config: " + e.Err.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Rule)
	}
	return "invalid config: " + strings.Join(parts, "; ")
}

// Is reports ErrMissingClientID when the client id rule failed.
func (e *ConfigError) Is(target error) bool {
	if target != ErrMissingClientID {
		return false
	}
	for _, f := range e.Fields {
		if f.Field == "ClientID" {
			return true
		}
	}
	return false
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// BindingError reports a mandatory URL placeholder without a value.
type BindingError struct {
	Endpoint string
	Param    string
}

// Error implements the error interface.
func (e *BindingError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s: missing mandatory parameter: %s", e.Endpoint, e.Param)
	}
	return "missing mandatory parameter: " + e.Param
}

// AuthServerError is a 401 from the token endpoint, described by the
// WWW-Authenticate challenge the server sent.
type AuthServerError struct {
	Challenge string
	Err       *TransportError
}

// Error implements the error interface.
func (e *AuthServerError) Error() string {
	if e.Challenge == "" {
		return "authorization server rejected credentials"
	}
	return e.Challenge
}

// Unwrap returns the transport error the challenge came from.
func (e *AuthServerError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// TransportError represents an HTTP-level error (non-2xx response).
type TransportError struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Error wraps an API error with operation context.
type Error struct {
	// Op is the operation that failed.
	Op string

	// Message is the error message.
	Message string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) *Error {
	return &Error{Op: op, Err: err, Message: err.Error()}
}

// StatusCode returns the HTTP status of a transport error anywhere in
// err's chain, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}

// IsAuthError returns true if the error is an authentication/authorization error.
func IsAuthError(err error) bool {
	var ase *AuthServerError
	if errors.As(err, &ase) {
		return true
	}
	if errors.Is(err, ErrAuthorizationRequired) || errors.Is(err, ErrCSRFMismatch) {
		return true
	}
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsNotFoundError returns true if the API answered 404.
func IsNotFoundError(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
