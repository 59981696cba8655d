package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/redmonkez12/finance-tracker-api/internal/apperr"
	"github.com/redmonkez12/finance-tracker-api/internal/logging"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Encoding failures are logged through the request logger.
func RespondJSON(w http.ResponseWriter, r *http.Request, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.GetLoggerFromContext(r.Context()).Error("failed to encode JSON response", "error", err, "status", statusCode)
	}
}

// RespondText sends a plain-text response
func RespondText(w http.ResponseWriter, body string, statusCode int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, body)
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, r *http.Request, message string, code string, statusCode int) {
	RespondJSON(w, r, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondError maps err to a status code and writes it.
// Store and unclassified errors are logged with their cause and reported generically.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.GetLoggerFromContext(r.Context())

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", "error", err)
		RespondErrorWithCode(w, r, "internal server error", apperr.CodeInternalError, http.StatusInternalServerError)
		return
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", appErr.Kind.String(), "op", appErr.Message, "error", appErr.Err)
		RespondErrorWithCode(w, r, "internal server error", appErr.Code, status)
		return
	}

	logger.Warn("request rejected", "kind", appErr.Kind.String(), "code", appErr.Code)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	RespondErrorWithCode(w, r, appErr.Message, appErr.Code, status)
}

// DecodeJSON strictly decodes the request body into dst.
// Unknown fields, trailing data and oversized bodies are validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(apperr.CodeInvalidRequestBody, "invalid request body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperr.Validation(apperr.CodeInvalidRequestBody, "request body must contain a single JSON object")
	}
	return nil
}
