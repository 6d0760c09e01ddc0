package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"ledger/internal/core"
	"ledger/internal/log"
)

const (
	msgTransactionNotFound = "Transaction not found"
	msgInvalidID           = "Valid ID is required"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type validationResponse struct {
	Errors []core.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", log.FieldError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps a service error onto a status code. Causes of 5xx
// responses are logged and never sent to the client.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op, failure string, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: ve.Errors})
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, msgTransactionNotFound)
	default:
		errorType := log.ErrorTypeInternal
		var se *core.StorageError
		if errors.As(err, &se) {
			errorType = log.ErrorTypeDatabase
		}
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), failure, err,
			log.ComponentHTTP, op, log.NewFields().WithErrorType(errorType))
		writeError(w, http.StatusInternalServerError, failure)
	}
}

// recoverer turns handler panics into a JSON 500. The panic text is only
// exposed in development.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic recovered",
				"panic", fmt.Sprint(rec),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"stack", string(debug.Stack()))

			message := "Something went wrong"
			if s.config.Development {
				message = fmt.Sprint(rec)
			}
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error:   "Internal server error",
				Message: message,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
