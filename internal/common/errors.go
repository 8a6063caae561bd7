package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the extraction pipeline.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeSizeLimitExceeded = "SIZE_LIMIT_EXCEEDED"
	CodeParseFailure      = "PARSE_FAILURE"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeRateLimited       = "RATE_LIMITED"
	CodeTimeout           = "TIMEOUT"
	CodeInternal          = "INTERNAL"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
	// Transient marks an upstream failure worth retrying (429/5xx).
	Transient bool
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func BadRequestError(message string) *AppError {
	return NewAppError(CodeBadRequest, message, nil)
}

func UnsupportedFormatError(message string) *AppError {
	return NewAppError(CodeUnsupportedFormat, message, nil)
}

func SizeLimitError(size, limit int64) *AppError {
	return NewAppError(CodeSizeLimitExceeded,
		fmt.Sprintf("file size %d exceeds limit %d", size, limit), nil)
}

func ParseFailureError(message string, cause error) *AppError {
	return NewAppError(CodeParseFailure, message, cause)
}

func UpstreamError(message string, cause error, transient bool) *AppError {
	e := NewAppError(CodeUpstream, message, cause)
	e.Transient = transient
	return e
}

func RateLimitedError() *AppError {
	return NewAppError(CodeRateLimited, "rate limit exceeded", nil)
}

func TimeoutError(stage string, cause error) *AppError {
	return NewAppError(CodeTimeout, stage+" timed out", cause)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ErrorCode extracts the taxonomy code from err, or CodeInternal.
func ErrorCode(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsTransient reports whether err is an upstream failure worth retrying.
func IsTransient(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code == CodeUpstream && ae.Transient
	}
	return false
}

// HTTPStatus maps an error to the response status code.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case CodeSizeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case CodeParseFailure:
		return http.StatusUnprocessableEntity
	case CodeUpstream:
		return http.StatusBadGateway
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}
