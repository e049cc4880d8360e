package indexing

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured means there is no active search console credential.
	ErrNotConfigured = errors.New("indexing: search console credential not configured")
	// ErrDisabled means the integration is switched off in config.
	ErrDisabled = errors.New("indexing: integration disabled")
	// ErrMissingBaseURL means site.base_url is empty, so no URLs can be built.
	ErrMissingBaseURL = errors.New("indexing: site base url not configured")
	// ErrInvalidInput wraps caller mistakes such as malformed URLs.
	ErrInvalidInput = errors.New("indexing: invalid input")
	// ErrNoSecretKey means sealing was requested without indexing.secret_key.
	ErrNoSecretKey = errors.New("indexing: secret key not configured")
)

// ErrorKind classifies a per-URL failure.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindProvider     ErrorKind = "provider_error"
	KindPersistence  ErrorKind = "persistence_error"
)

// AuthError is returned when the refresh-token exchange fails.
type AuthError struct {
	Status int
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "token refresh failed"
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError is a classified failure from the inspection or publish endpoint.
type ProviderError struct {
	Kind   ErrorKind
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	summary := e.Kind.describe()
	if e.Detail == "" {
		return summary
	}
	return summary + ": " + e.Detail
}

func (k ErrorKind) describe() string {
	switch k {
	case KindUnauthorized:
		return "token invalid or unauthorized"
	case KindForbidden:
		return "access denied: property not verified with provider"
	case KindNotFound:
		return "target property not found"
	case KindPersistence:
		return "failed to persist status"
	default:
		return "provider error"
	}
}

// classify maps an HTTP status from the provider to an error kind. Status 0
// means the request never got a response.
func classify(status int, detail string) *ProviderError {
	kind := KindProvider
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &ProviderError{Kind: kind, Status: status, Detail: detail}
}
