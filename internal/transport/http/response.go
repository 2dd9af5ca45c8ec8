package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"habit-hero/internal/domain/apperrors"

	"github.com/charmbracelet/log"
)

// maxBodyBytes bounds request bodies; habit payloads are tiny.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, logger *log.Logger, status int, message string) {
	writeJSON(w, logger, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

// writeServiceError maps a service error to its status code. Details of
// unclassified and infrastructure errors stay in the log.
func writeServiceError(w http.ResponseWriter, logger *log.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("unexpected error", "err", err)
		writeError(w, logger, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		writeError(w, logger, http.StatusBadRequest, appErr.Message)
	case apperrors.KindNotFound:
		writeError(w, logger, http.StatusNotFound, appErr.Message)
	case apperrors.KindConflict:
		writeError(w, logger, http.StatusConflict, appErr.Message)
	case apperrors.KindUnavailable:
		logger.Error("dependency unavailable", "err", err)
		writeError(w, logger, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		logger.Error("unexpected error", "err", err)
		writeError(w, logger, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
