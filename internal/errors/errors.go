package errors

import (
	"encoding/json"
	"net/http"
)

// AppError represents an application error with HTTP context
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// WriteJSON writes the error as JSON response
func (e *AppError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(e)
}

// ============================================================
// ERROR CONSTRUCTORS
// ============================================================

// Validation Errors (400)
func InvalidURL(details string) *AppError {
	return &AppError{
		Code:       "INVALID_URL",
		Message:    "invalid url",
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidCode() *AppError {
	return &AppError{
		Code:       "INVALID_CODE",
		Message:    "invalid code",
		StatusCode: http.StatusBadRequest,
	}
}

func InvalidJSON(details string) *AppError {
	return &AppError{
		Code:       "INVALID_JSON",
		Message:    "invalid json",
		Details:    details,
		StatusCode: http.StatusBadRequest,
	}
}

// Not Found Errors (404)
func NotFound() *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    "not found",
		StatusCode: http.StatusNotFound,
	}
}

// Conflict Errors (409)
func CodeExists() *AppError {
	return &AppError{
		Code:       "CODE_EXISTS",
		Message:    "code already exists",
		StatusCode: http.StatusConflict,
	}
}

// Server Errors (5xx)
func Internal() *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		StatusCode: http.StatusInternalServerError,
	}
}

func AllocationExhausted() *AppError {
	return &AppError{
		Code:       "ALLOCATION_EXHAUSTED",
		Message:    "could not allocate a free code",
		StatusCode: http.StatusInternalServerError,
	}
}

// StatusClientClosedRequest is the non-standard status for a request the
// client gave up on before it was answered.
const StatusClientClosedRequest = 499

func Canceled() *AppError {
	return &AppError{
		Code:       "REQUEST_CANCELED",
		Message:    "request canceled",
		StatusCode: StatusClientClosedRequest,
	}
}

func Unavailable(details string) *AppError {
	return &AppError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "service unavailable",
		Details:    details,
		StatusCode: http.StatusServiceUnavailable,
	}
}
