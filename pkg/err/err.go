package errprocess

import (
	"errors"
	"fmt"
	"net/http"

	"language_exchange_service/pkg/logger"
)

// Code error category shared by websocket and REST responses
type Code string

const (
	// CodeAuthentication credential missing, invalid or expired
	CodeAuthentication Code = "AUTHENTICATION_FAILURE"
	// CodeAuthorization caller is not allowed to touch the resource
	CodeAuthorization Code = "AUTHORIZATION_FAILURE"
	// CodeNotFound unknown chat / user / job
	CodeNotFound Code = "NOT_FOUND"
	// CodeUnavailable partner is offline, try later
	CodeUnavailable Code = "UNAVAILABLE"
	// CodeConflict concurrent write lost the race
	CodeConflict Code = "CONCURRENCY_CONFLICT"
	// CodeStorage storage backend failed for this request
	CodeStorage Code = "STORAGE_FAILURE"
	// CodeValidation bad input
	CodeValidation Code = "VALIDATION"
	// CodeInternal anything else
	CodeInternal Code = "INTERNAL"
)

// AppError error with a category
type AppError struct {
	Code    Code
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap return wrapped cause
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is match another *AppError by code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// New create an AppError
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap create an AppError with cause
func Wrap(code Code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

// Authentication AUTHENTICATION_FAILURE
func Authentication(message string) *AppError { return New(CodeAuthentication, message) }

// Authorization AUTHORIZATION_FAILURE
func Authorization(message string) *AppError { return New(CodeAuthorization, message) }

// NotFound NOT_FOUND
func NotFound(message string) *AppError { return New(CodeNotFound, message) }

// Unavailable UNAVAILABLE
func Unavailable(message string) *AppError { return New(CodeUnavailable, message) }

// Conflict CONCURRENCY_CONFLICT
func Conflict(message string) *AppError { return New(CodeConflict, message) }

// Validation VALIDATION
func Validation(message string) *AppError { return New(CodeValidation, message) }

// Storage STORAGE_FAILURE
func Storage(message string, cause error) *AppError { return Wrap(CodeStorage, message, cause) }

// Sentinels for errors.Is
var (
	ErrAuthentication = &AppError{Code: CodeAuthentication}
	ErrAuthorization  = &AppError{Code: CodeAuthorization}
	ErrNotFound       = &AppError{Code: CodeNotFound}
	ErrUnavailable    = &AppError{Code: CodeUnavailable}
	ErrConflict       = &AppError{Code: CodeConflict}
	ErrStorage        = &AppError{Code: CodeStorage}
	ErrValidation     = &AppError{Code: CodeValidation}
)

// Is errors.Is against a sentinel
func Is(err error, target *AppError) bool {
	return errors.Is(err, target)
}

// As extract *AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf return the error code, CodeInternal for foreign errors
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus map error code to http status
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case "":
		return http.StatusOK
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
