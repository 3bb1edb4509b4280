package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/pkg/database"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/pagination"
)

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	db database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(db database.DBTX) *BookRepository {
	return &BookRepository{db: db}
}

// Create inserts a new book into the inventory.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `
		INSERT INTO books (id, title, author, isbn, published_at, quantity, is_available, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Author,
		b.ISBN,
		b.PublishedAt,
		b.Quantity,
		b.IsAvailable,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict("a book with this ISBN already exists")
		}
		return fmt.Errorf("insert book: %w", err)
	}

	return nil
}

// GetByID retrieves a book by its ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `
		SELECT id, title, author, isbn, published_at, quantity, is_available, created_at, updated_at
		FROM books
		WHERE id = $1`

	var b domain.Book
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ISBN,
		&b.PublishedAt,
		&b.Quantity,
		&b.IsAvailable,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}

	return &b, nil
}

// ExistsByISBN reports whether a book with the given ISBN exists.
func (r *BookRepository) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM books WHERE isbn = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, isbn).Scan(&exists); err != nil {
		return false, fmt.Errorf("check book exists: %w", err)
	}

	return exists, nil
}

// List returns a page of books together with the total book count.
func (r *BookRepository) List(ctx context.Context, params pagination.Params) ([]domain.Book, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	query := `
		SELECT id, title, author, isbn, published_at, quantity, is_available, created_at, updated_at
		FROM books
		ORDER BY title ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(
			&b.ID,
			&b.Title,
			&b.Author,
			&b.ISBN,
			&b.PublishedAt,
			&b.Quantity,
			&b.IsAvailable,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}

	if books == nil {
		books = []domain.Book{}
	}

	return books, total, nil
}

// DeleteMany removes the books with the given ids and returns the number
// of rows removed.
func (r *BookRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	query := `DELETE FROM books WHERE id = ANY($1)`

	ct, err := r.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete books: %w", err)
	}

	return ct.RowsAffected(), nil
}
