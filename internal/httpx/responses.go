package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"catalogue/internal/apperr"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Timestamp time.Time           `json:"timestamp"`
	Status    int                 `json:"status"`
	Error     string              `json:"error"`
	Message   string              `json:"message"`
	Path      string              `json:"path"`
	Details   []apperr.FieldError `json:"details,omitempty"`
}

const internalErrorMessage = "Something went wrong"

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Empty writes a 200 with no body.
func Empty(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func JSONError(w http.ResponseWriter, r *http.Request, status int, message string, details []apperr.FieldError) {
	JSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Details:   details,
	})
}

// WriteError maps err to a status code by its apperr.Kind. Unexpected errors
// are logged and answered with a fixed message.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		writeInternal(w, r, log, err)
		return
	}

	switch appErr.Kind {
	case apperr.NotFound:
		JSONError(w, r, http.StatusNotFound, appErr.Message, nil)
	case apperr.Validation:
		JSONError(w, r, http.StatusBadRequest, appErr.Message, appErr.Fields)
	case apperr.Conflict:
		JSONError(w, r, http.StatusConflict, appErr.Message, nil)
	default:
		writeInternal(w, r, log, err)
	}
}

func writeInternal(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	if log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r)),
			zap.Error(err),
		)
	}
	JSONError(w, r, http.StatusInternalServerError, internalErrorMessage, nil)
}

// DecodeJSON reads the request body into dst. A body over the size limit or
// malformed JSON yields a Validation error.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apperr.Error{Kind: apperr.Validation, Message: "Request body too large", Err: err}
		}
		return &apperr.Error{Kind: apperr.Validation, Message: "Invalid request body", Err: err}
	}
	return nil
}
