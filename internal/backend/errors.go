package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoResults reports that the backend holds no results for the current run (HTTP 404 on /results).
var ErrNoResults = errors.New("no results available")

// APIError is the normalized failure every wizard action surfaces.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	// Structured is set when the backend itself answered with an error body.
	Structured bool `json:"-"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Validation builds a local validation error. No request is issued for these.
func Validation(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

// EmptyResult builds the error for a successful response without the expected payload.
func EmptyResult(op, message string) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Message: message,
		Details: op,
	}
}

// Normalize converts any error into an APIError. Structured backend errors
// and local validation errors pass through; anything else becomes a 500
// naming the failed operation.
func Normalize(op string, err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Structured || apiErr.Status != 0) {
		return apiErr
	}
	return &APIError{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s failed", op),
		Details: err.Error(),
	}
}
