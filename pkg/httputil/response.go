package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/logger"
	"github.com/jimkdev/library-api/pkg/pagination"
	"github.com/jimkdev/library-api/pkg/validator"
)

// Response is the standard JSON response envelope. Every response carries
// the numeric HTTP code, its status text, and a human-readable message;
// successful responses additionally carry data and, for collections,
// pagination.
type Response struct {
	Code       int               `json:"code"`
	Status     string            `json:"status"`
	Message    string            `json:"message"`
	Data       any               `json:"data,omitempty"`
	Pagination *pagination.Pages `json:"pagination,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
// If encoding fails, the error is logged but headers are already sent so nothing can be done.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with the given status, message
// and payload.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Code:    status,
		Status:  http.StatusText(status),
		Message: message,
		Data:    data,
	})
}

// WriteList writes a success envelope for a collection, including its
// pagination block.
func WriteList(w http.ResponseWriter, status int, message string, data any, pages pagination.Pages) {
	WriteJSON(w, status, Response{
		Code:       status,
		Status:     http.StatusText(status),
		Message:    message,
		Data:       data,
		Pagination: &pages,
	})
}

// WriteError writes a standardized error response based on the error type.
// It resolves the HTTP status and client-safe message through the errors
// package, and logs internal server errors with the request-scoped logger
// when the request logging middleware has been mounted.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() {
		l = fallback
	}

	if errors.Is(err, pagination.ErrPageOutOfRange) {
		writeErrorEnvelope(w, http.StatusBadRequest, "page out of range")
		return
	}

	status := apperrors.HTTPStatus(err)
	message := apperrors.Message(err)

	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeErrorEnvelope(w, status, message)
}

// WriteValidationError writes a standardized validation error response.
// It handles ValidationError from the validator package and returns field-level errors.
func WriteValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		WriteJSON(w, http.StatusBadRequest, Response{
			Code:    http.StatusBadRequest,
			Status:  http.StatusText(http.StatusBadRequest),
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		})
		return
	}

	writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
}

// ParseUUID validates that the given string is a valid UUID and returns it.
// If invalid, it writes a 400 Bad Request response and returns uuid.Nil
// plus false, signaling the caller to return early.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(param))
	if err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, "invalid UUID: "+param)
		return uuid.Nil, false
	}
	return id, true
}

func writeErrorEnvelope(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Code:    status,
		Status:  http.StatusText(status),
		Message: message,
	})
}
