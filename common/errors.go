package common

import (
	"encoding/json"
	"go-users-api/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ValidationErrors maps a json field name to every message reported for it.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, message string) {
	v[field] = append(v[field], message)
}

func (v ValidationErrors) Merge(other ValidationErrors) {
	for field, messages := range other {
		v[field] = append(v[field], messages...)
	}
}

func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

type AppError struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Errors  ValidationErrors `json:"errors,omitempty"`
	Err     error            `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds the 422 response carrying every field error.
func NewValidationError(errs ValidationErrors) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "One or more validation errors occurred.",
		Errors:  errs,
	}
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		entry := logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		})
		if e.Code >= http.StatusInternalServerError {
			entry.Error(e.Message)
		} else {
			entry.Debug(e.Message)
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}
