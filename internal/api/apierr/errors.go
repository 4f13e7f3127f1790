package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/chessduel/internal/model"
)

// APIError is the body of an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeMoveLogUnavailable = "MOVE_LOG_UNAVAILABLE"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeInternalError      = "INTERNAL_ERROR"
)

// Error pairs an APIError with the HTTP status it is served with
type Error struct {
	Status int
	APIError
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, code, message string) *Error {
	return &Error{Status: status, APIError: APIError{Code: code, Message: message}}
}

// From resolves any error to the API error it is reported as.
// Unrecognised errors become a 500 without leaking their text.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return newError(http.StatusNotFound, CodeRoomNotFound, "Room not found")
	case errors.Is(err, model.ErrInvalidRequest):
		return newError(http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, model.ErrMoveLogUnavailable):
		return newError(http.StatusServiceUnavailable, CodeMoveLogUnavailable, "Move history is unavailable")
	default:
		return NewInternalError()
	}
}

// WriteError writes the JSON error response for err
func WriteError(w http.ResponseWriter, err error) {
	apiErr := From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: apiErr.APIError})
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *Error {
	return newError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewNotFoundError creates a not found error for unknown routes
func NewNotFoundError() *Error {
	return newError(http.StatusNotFound, CodeNotFound, "Not found")
}

// NewMethodNotAllowedError creates an error for known routes hit with the wrong method
func NewMethodNotAllowedError() *Error {
	return newError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

// NewInternalError creates an internal server error
func NewInternalError() *Error {
	return newError(http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
