package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jimkdev/library-api/internal/service"
	"github.com/jimkdev/library-api/pkg/httputil"
	"github.com/jimkdev/library-api/pkg/pagination"
	"github.com/jimkdev/library-api/pkg/validator"
)

// BookHandler handles HTTP requests for the book inventory.
type BookHandler struct {
	service *service.BookService
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{service: svc, logger: logger}
}

// BookRequest is one entry of the bulk insert request body.
type BookRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=255"`
	Author      string    `json:"author" validate:"required,min=1,max=255"`
	ISBN        string    `json:"isbn" validate:"required,min=10,max=17"`
	PublishedAt time.Time `json:"published_at"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
}

// AddBooksRequest is the JSON request body for the bulk insert.
type AddBooksRequest struct {
	Books []BookRequest `json:"books" validate:"required,min=1,dive"`
}

// Add handles POST /books/add
func (h *BookHandler) Add(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20) // 4MB limit for bulk inserts

	var req AddBooksRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	inputs := make([]service.CreateBookInput, 0, len(req.Books))
	for _, b := range req.Books {
		inputs = append(inputs, service.CreateBookInput{
			Title:       b.Title,
			Author:      b.Author,
			ISBN:        b.ISBN,
			PublishedAt: b.PublishedAt,
			Quantity:    b.Quantity,
		})
	}

	books, err := h.service.AddBooks(r.Context(), inputs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "books have been added", books)
}

// List handles GET /books
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	books, pages, err := h.service.ListBooks(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, http.StatusOK, "books have been retrieved", books, pages)
}

// Get handles GET /books/{id}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "book has been retrieved", book)
}

// Delete handles DELETE /books?ids=...
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteBooks(r.Context(), r.URL.Query().Get("ids"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "books have been deleted", map[string]int64{
		"rows_affected": deleted,
	})
}
