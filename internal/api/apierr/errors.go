package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openbnet/presence/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeMalformedTag        = "MALFORMED_TAG"
	CodeTagTaken            = "TAG_TAKEN"
	CodeAccountNotFound     = "ACCOUNT_NOT_FOUND"
	CodeGameAccountNotFound = "GAME_ACCOUNT_NOT_FOUND"
	CodeGameAccountExists   = "GAME_ACCOUNT_EXISTS"
	CodeUnknownEntity       = "UNKNOWN_ENTITY"
	CodeSessionNotLive      = "SESSION_NOT_LIVE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrMalformedTag):
		return &httpError{http.StatusBadRequest, APIError{CodeMalformedTag, "Malformed battle tag"}}
	case errors.Is(err, model.ErrTagTaken):
		return &httpError{http.StatusConflict, APIError{CodeTagTaken, "Battle tag is already taken"}}
	case errors.Is(err, model.ErrAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeAccountNotFound, "Account not found"}}
	case errors.Is(err, model.ErrGameAccountNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameAccountNotFound, "Game account not found"}}
	case errors.Is(err, model.ErrGameAccountExists):
		return &httpError{http.StatusConflict, APIError{CodeGameAccountExists, "Game account already exists"}}
	case errors.Is(err, model.ErrUnknownEntity):
		return &httpError{http.StatusNotFound, APIError{CodeUnknownEntity, "Entity id does not name a known entity"}}
	case errors.Is(err, model.ErrSessionNotLive):
		return &httpError{http.StatusConflict, APIError{CodeSessionNotLive, "Game account has no attached session"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
