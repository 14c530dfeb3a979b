package schemas

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// The client distinguishes four failure classes:
//
//   - NetworkError: the request never produced a response.
//   - APIError: the backend answered with a non-2xx status.
//   - AuthError: the backend explicitly signalled an authentication failure
//     in an otherwise well-formed payload.
//   - VerificationError: an OTP or payment check completed but reported
//     failure.

// NetworkError wraps a transport-level failure (DNS, connect, timeout).
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NewNetworkError wraps err as a NetworkError for the given URL.
func NewNetworkError(url string, err error) *NetworkError {
	return &NetworkError{URL: url, Err: err}
}

// APIError is a non-2xx response together with its raw payload.
type APIError struct {
	Status  int
	Payload []byte
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// NewAPIError builds an APIError from a response status and body, pulling a
// human-readable message out of the common Django error shapes.
func NewAPIError(status int, payload []byte) *APIError {
	return &APIError{
		Status:  status,
		Payload: payload,
		Message: extractMessage(payload),
	}
}

// extractMessage digs a message out of {"message": ...}, {"detail": ...}
// or {"error": ...} payloads. Unknown shapes yield an empty string.
func extractMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Err     string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Detail != "":
		return body.Detail
	default:
		return body.Err
	}
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is a 401 APIError.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// AuthError carries the server-provided message of an explicit
// authentication failure, so the caller can render it verbatim.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// NewAuthError creates an AuthError with the server message.
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// VerificationError reports an OTP or payment verification that completed
// but did not carry the success marker. It says nothing about whether the
// underlying action (the charge, the delivery) happened.
type VerificationError struct {
	Op     string
	Reason string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s verification failed: %s", e.Op, e.Reason)
}

// NewVerificationError creates a VerificationError for the given operation.
func NewVerificationError(op, reason string) *VerificationError {
	return &VerificationError{Op: op, Reason: reason}
}
