package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"TrendCast/internal/domain/models"
)

// AppError represents application-level error with HTTP status.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
	Status  int            `json:"-"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Status: status}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value any) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]any)
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func NotFoundErrorf(format string, a ...any) *AppError {
	return NewAppError("ERR_NOT_FOUND", "", fmt.Sprintf(format, a...), http.StatusNotFound)
}

func BadRequestErrorf(format string, a ...any) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", fmt.Sprintf(format, a...), http.StatusBadRequest)
}

func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// FromDomain maps forecasting errors onto HTTP statuses. Unknown errors become 500.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ih *models.InsufficientHistoryError
	if errors.As(err, &ih) {
		return NewAppError("ERR_INSUFFICIENT_HISTORY", "entity_id", err.Error(), http.StatusUnprocessableEntity).
			WithParam("have", ih.Have).
			WithParam("need", ih.Need).
			WithError(err)
	}
	var mr *models.MalformedRecordError
	if errors.As(err, &mr) {
		return NewAppError("ERR_MALFORMED_RECORD", "", err.Error(), http.StatusBadRequest).
			WithParam("entity_id", mr.EntityID).
			WithError(err)
	}

	switch {
	case errors.Is(err, models.ErrEntityNotFound):
		return NewAppError("ERR_NOT_FOUND", "", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrTrainingFailure):
		return NewAppError("ERR_TRAINING_FAILURE", "", err.Error(), http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewAppError("ERR_TIMEOUT", "", "forecast timed out", http.StatusGatewayTimeout).WithError(err)
	case errors.Is(err, context.Canceled):
		// nginx-style client closed request
		return NewAppError("ERR_CANCELED", "", "request canceled", 499).WithError(err)
	}
	return InternalError("Something went wrong").WithError(err)
}
