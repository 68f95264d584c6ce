package rest

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// newErrorID returns the correlation id put in the body and in the log line.
var newErrorID = func() int {
	return rand.IntN(1<<31-1) + 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a service error to a status and a client-facing message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, common.ErrorStorage):
		return http.StatusInternalServerError, "Storage error"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError is the single place where errors become HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	status, msg := errorStatus(err)
	id := newErrorID()

	args := []any{"id", id, "status", status, "method", r.Method, "path", r.URL.Path, "error", err}
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", args...)
	} else {
		logger.Info(r.Context(), "request rejected", args...)
	}

	writeJSON(w, status, ErrorResponse{Message: msg, ID: id})
}

// ErrorWriter adapts writeError for middlewares outside this package.
func ErrorWriter(l logging.Logger) func(w http.ResponseWriter, r *http.Request, err error) {
	logger := l.With("module", "rest")
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, logger, err)
	}
}
