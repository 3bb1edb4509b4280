package http

import (
	"log/slog"
	"net/http"

	"github.com/jimkdev/library-api/internal/service"
	"github.com/jimkdev/library-api/pkg/httputil"
	"github.com/jimkdev/library-api/pkg/middleware"
	"github.com/jimkdev/library-api/pkg/validator"
)

// LendingHandler handles HTTP requests for the book lending workflow.
type LendingHandler struct {
	service *service.LendingService
	logger  *slog.Logger
}

// NewLendingHandler creates a new lending HTTP handler.
func NewLendingHandler(svc *service.LendingService, logger *slog.Logger) *LendingHandler {
	return &LendingHandler{service: svc, logger: logger}
}

// LendRequest is the JSON request body for creating a lending. The user
// is taken from the bearer token.
type LendRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

// ExtendRequest is the JSON request body for extending a return date.
// The extension days whitelist is enforced in the service so a missing
// lending still reports 404 rather than a validation failure.
type ExtendRequest struct {
	BookLendingID int64 `json:"book_lending_id" validate:"required,gt=0"`
	ExtensionDays int   `json:"extension_days" validate:"required"`
}

// ReturnRequest is the JSON request body for returning a book.
type ReturnRequest struct {
	BookID string `json:"book_id" validate:"required,uuid"`
}

// Lend handles POST /books/lendings/create
func (h *LendingHandler) Lend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LendRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	status, err := h.service.Lend(r.Context(), userID, req.BookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if status == service.LendStatusNotAvailable {
		httputil.WriteSuccess(w, http.StatusOK, "the book is not available", nil)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "the book has been lent", nil)
}

// Extend handles POST /books/lendings/extend-return-date
func (h *LendingHandler) Extend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ExtendRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	status, err := h.service.ExtendReturnDate(r.Context(), req.BookLendingID, req.ExtensionDays)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if status == service.ExtendStatusAlreadyExtended {
		httputil.WriteSuccess(w, http.StatusOK, "the return period has already been extended", nil)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "the return date has been extended", nil)
}

// Current handles GET /books/lendings/current. It returns the
// authenticated user's open lending, or 404 when there is none.
func (h *LendingHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	lending, err := h.service.OpenLending(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "open lending has been retrieved", lending)
}

// Return handles POST /books/lendings/return-book
func (h *LendingHandler) Return(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req ReturnRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	if err := h.service.Return(r.Context(), userID, req.BookID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "the book has been returned", nil)
}
