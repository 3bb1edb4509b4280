package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/repository"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/pagination"
)

// idListDelimiters are the separators accepted in a bulk-delete ids
// parameter, tried in order.
var idListDelimiters = []string{",", "?", ":", ";"}

// BookService implements the business logic for the book inventory.
type BookService struct {
	bookRepo repository.BookRepository
	logger   *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(bookRepo repository.BookRepository, logger *slog.Logger) *BookService {
	return &BookService{
		bookRepo: bookRepo,
		logger:   logger,
	}
}

// CreateBookInput holds the parameters for adding a book to the inventory.
type CreateBookInput struct {
	Title       string
	Author      string
	ISBN        string
	PublishedAt time.Time
	Quantity    int
}

// AddBooks inserts the given titles into the inventory. Each book is
// validated and its ISBN checked for duplicates before the first write,
// so a bad entry rejects the whole batch. The unique index on isbn still
// backs the check against concurrent inserts.
func (s *BookService) AddBooks(ctx context.Context, inputs []CreateBookInput) ([]domain.Book, error) {
	if len(inputs) == 0 {
		return nil, apperrors.InvalidInput("at least one book is required")
	}

	for i, input := range inputs {
		if input.Title == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("book %d: title is required", i+1))
		}
		if input.Author == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("book %d: author is required", i+1))
		}
		if input.ISBN == "" {
			return nil, apperrors.InvalidInput(fmt.Sprintf("book %d: isbn is required", i+1))
		}
		if input.Quantity < 0 {
			return nil, apperrors.InvalidInput(fmt.Sprintf("book %d: quantity must not be negative", i+1))
		}
	}

	for _, input := range inputs {
		exists, err := s.bookRepo.ExistsByISBN(ctx, input.ISBN)
		if err != nil {
			return nil, fmt.Errorf("check isbn: %w", err)
		}
		if exists {
			return nil, apperrors.Conflict(fmt.Sprintf("isbn %s is already registered", input.ISBN))
		}
	}

	now := time.Now().UTC()
	books := make([]domain.Book, 0, len(inputs))
	for _, input := range inputs {
		book := domain.Book{
			ID:          uuid.New().String(),
			Title:       input.Title,
			Author:      input.Author,
			ISBN:        input.ISBN,
			PublishedAt: input.PublishedAt,
			Quantity:    input.Quantity,
			IsAvailable: input.Quantity > 0,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.bookRepo.Create(ctx, &book); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return nil, apperrors.Conflict(fmt.Sprintf("isbn %s is already registered", input.ISBN))
			}
			return nil, fmt.Errorf("create book: %w", err)
		}
		books = append(books, book)
	}

	s.logger.InfoContext(ctx, "books added",
		slog.Int("count", len(books)),
	)

	return books, nil
}

// GetBook retrieves a single book by id.
func (s *BookService) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.InvalidInput("invalid book id")
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("book not found")
		}
		return nil, fmt.Errorf("get book: %w", err)
	}

	return book, nil
}

// ListBooks returns a page of the inventory ordered by title.
func (s *BookService) ListBooks(ctx context.Context, params pagination.Params) ([]domain.Book, pagination.Pages, error) {
	params = params.Normalize()

	books, total, err := s.bookRepo.List(ctx, params)
	if err != nil {
		return nil, pagination.Pages{}, fmt.Errorf("list books: %w", err)
	}

	pages, err := pagination.Calculate(total, params)
	if err != nil {
		return nil, pagination.Pages{}, err
	}

	return books, pages, nil
}

// DeleteBooks removes the books named in rawIDs, a delimiter-separated
// list of book ids. The delimiter is auto-detected. It returns the number
// of rows removed.
func (s *BookService) DeleteBooks(ctx context.Context, rawIDs string) (int64, error) {
	ids, err := splitIDList(rawIDs)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return 0, apperrors.InvalidInput(fmt.Sprintf("invalid book id %q", id))
		}
	}

	deleted, err := s.bookRepo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete books: %w", err)
	}

	s.logger.InfoContext(ctx, "books deleted",
		slog.Int64("count", deleted),
	)

	return deleted, nil
}

// splitIDList splits a raw ids parameter on the first delimiter it
// detects. A single id still needs a trailing delimiter.
func splitIDList(rawIDs string) ([]string, error) {
	raw := strings.TrimSpace(rawIDs)
	if raw == "" {
		return nil, apperrors.InvalidInput("ids parameter is required")
	}

	var parts []string
	for _, delim := range idListDelimiters {
		if strings.Contains(raw, delim) {
			parts = strings.Split(raw, delim)
			break
		}
	}
	if parts == nil {
		return nil, apperrors.InvalidInput("ids parameter has no recognized delimiter")
	}

	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, apperrors.InvalidInput("ids parameter contains no ids")
	}

	return ids, nil
}
