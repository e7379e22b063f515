package shared

import (
	"errors"
	"net/http"
)

// AppError is the error shape the HTTP error handler knows how to render.
// Anything else bubbling out of a handler becomes a 500.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewBadRequestError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

func NewUnauthorizedError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Message: message, Err: err}
}

func NewForbiddenError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusForbidden, Message: message, Err: err}
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message, Err: err}
}

func NewConflictError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Message: message, Err: err}
}

func NewValidationError(errs []ValidationError) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: "Validation failed", Data: errs}
}

func NewInternalError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// ValidationError mirrors dto's formatted field errors without importing dto
// (shared sits below dto in the package graph).
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
