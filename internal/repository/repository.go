// Package repository defines persistence interfaces for the library domain.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jimkdev/library-api/internal/domain"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/pagination"
)

// Lending conflicts come in two flavors that callers treat differently:
// a book with no copies left is reported to the client as a soft
// "not available" outcome, while a second open lending for the same
// user is a hard 409. Both unwrap to apperrors.ErrConflict.
var (
	ErrNoCopiesAvailable = fmt.Errorf("no copies available: %w", apperrors.ErrConflict)
	ErrOpenLendingExists = fmt.Errorf("user already has an open lending: %w", apperrors.ErrConflict)
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Exists reports whether a user with the given username, email, or
	// mobile is already registered.
	Exists(ctx context.Context, username, email, mobile string) (bool, error)

	// List returns a page of users together with the total user count.
	List(ctx context.Context, params pagination.Params) ([]domain.User, int, error)
}

// BookRepository defines the interface for book persistence operations.
type BookRepository interface {
	// Create inserts a new book into the inventory.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// ExistsByISBN reports whether a book with the given ISBN exists.
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)

	// List returns a page of books together with the total book count.
	List(ctx context.Context, params pagination.Params) ([]domain.Book, int, error)

	// DeleteMany removes the books with the given ids. It returns the
	// number of rows removed.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// LendingRepository defines the interface for book lending persistence.
// Lend and Return run their quantity adjustments transactionally.
type LendingRepository interface {
	// Lend creates a lending row and decrements the book's quantity in a
	// single transaction. It returns ErrNoCopiesAvailable when the book
	// has no copies left and ErrOpenLendingExists when the user already
	// has an open lending.
	Lend(ctx context.Context, userID, bookID string, dateOfReturn time.Time) error

	// GetOpenByUserID retrieves the user's open lending, if any.
	GetOpenByUserID(ctx context.Context, userID string) (*domain.BookLending, error)

	// GetByID retrieves a lending by its identifier.
	GetByID(ctx context.Context, id int64) (*domain.BookLending, error)

	// Extend moves the lending's return date forward and marks it
	// extended. The update is guarded so an already-extended lending is
	// not modified; it returns the number of rows changed.
	Extend(ctx context.Context, id int64, newDateOfReturn time.Time) (int64, error)

	// Return closes the user's open lending of the given book and
	// restocks it in a single transaction. It returns an error wrapping
	// apperrors.ErrNotFound when the user has no open lending for that
	// book.
	Return(ctx context.Context, userID, bookID string) error
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error

	// GetByHash retrieves a refresh token record by its hash.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// RevokeByUserID revokes all active refresh tokens for the given user.
	RevokeByUserID(ctx context.Context, userID string) error

	// Revoke revokes a specific refresh token by its hash.
	Revoke(ctx context.Context, tokenHash string) error

	// MarkExpired flags a refresh token whose expiry has passed.
	MarkExpired(ctx context.Context, id string) error
}

// AnalyticsRepository reads aggregate counters for the analytics endpoint.
type AnalyticsRepository interface {
	// Snapshot returns the current library activity totals.
	Snapshot(ctx context.Context) (*domain.Analytics, error)
}
