package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes shared by the auth flow and the handlers.
const (
	CodeMalformedHeader       = "MALFORMED_HEADER"
	CodeMalformedCredentials  = "MALFORMED_CREDENTIALS"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodeWrongTokenType        = "WRONG_TOKEN_TYPE"
	CodeNoSuchUser            = "NO_SUCH_USER"
	CodeBadPassword           = "BAD_PASSWORD"
	CodeUniquenessConflict    = "UNIQUENESS_CONFLICT"
	CodeUnauthorized          = "UNAUTHORIZED"

	CodeBadRequest      = "BAD_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func Unauthorized(code string, message string) *APIError {
	return New(code, message, "", http.StatusUnauthorized)
}

func BadRequest(code string, message string, details string) *APIError {
	return New(code, message, details, http.StatusBadRequest)
}

func Conflict(code string, message string, details string) *APIError {
	return New(code, message, details, http.StatusConflict)
}

// HasCode reports whether err wraps an *APIError carrying code.
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Code == code
}
