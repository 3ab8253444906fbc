package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/Giftedmindbenjamin/surbminer/internal/common"
	"github.com/Giftedmindbenjamin/surbminer/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned alongside 4xx responses.
const (
	CodeNotFound          = "not_found"
	CodeValidation        = "validation_error"
	CodeInsufficientFunds = "insufficient_funds"
	CodeInvalidState      = "invalid_state"
	CodeConflict          = "conflict"
	CodeUnauthorized      = "unauthorized"
	CodeForbidden         = "forbidden"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/accounts/{id}/summary, calling PathParam(r, "/api/accounts/", "/summary")
// extracts the {id} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix, return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// splitResource splits "{id}/{action}" below prefix. action is "" for a
// bare "{id}".
func splitResource(r *http.Request, prefix string) (id, action string) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	id, action, _ = strings.Cut(rest, "/")
	return id, action
}

// QueryInt parses an integer query parameter, returning def when absent or invalid.
func QueryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// writeServiceError maps ledger errors to HTTP status codes. Anything not
// recognised is logged and reported as a 500 without details.
func writeServiceError(w http.ResponseWriter, logger *common.Logger, err error) {
	var funds *models.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, funds.Error(), CodeInsufficientFunds)
	case errors.Is(err, models.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, models.ErrValidation):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.Is(err, models.ErrInvalidState):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), CodeInvalidState)
	case errors.Is(err, models.ErrConflict):
		WriteErrorWithCode(w, http.StatusConflict, "The account was modified concurrently, please retry", CodeConflict)
	default:
		logger.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
