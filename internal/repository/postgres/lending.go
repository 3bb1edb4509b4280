package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/repository"
	"github.com/jimkdev/library-api/pkg/database"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
)

// LendingRepository implements repository.LendingRepository using PostgreSQL.
type LendingRepository struct {
	db database.DBTX
}

// NewLendingRepository creates a new PostgreSQL-backed lending repository.
func NewLendingRepository(db database.DBTX) *LendingRepository {
	return &LendingRepository{db: db}
}

// rollback rolls the transaction back and joins any rollback failure onto
// cause so it is never silently lost.
func rollback(ctx context.Context, tx pgx.Tx, cause error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		return errors.Join(cause, fmt.Errorf("rollback: %w", rbErr))
	}
	return cause
}

// Lend creates a lending row and decrements the book's stock in a single
// transaction. The decrement is conditional on quantity > 0 so two
// concurrent lends of the last copy cannot both succeed; the losing
// transaction sees zero rows affected and gets ErrConflict.
func (r *LendingRepository) Lend(ctx context.Context, userID, bookID string, dateOfReturn time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE books
		 SET quantity = quantity - 1, is_available = quantity - 1 > 0, updated_at = NOW()
		 WHERE id = $1 AND quantity > 0`,
		bookID,
	)
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("decrement book stock: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return rollback(ctx, tx, repository.ErrNoCopiesAvailable)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO book_lendings (user_id, book_id, date_of_return) VALUES ($1, $2, $3)`,
		userID, bookID, dateOfReturn,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return rollback(ctx, tx, repository.ErrOpenLendingExists)
		}
		return rollback(ctx, tx, fmt.Errorf("insert lending: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetOpenByUserID retrieves the user's open lending, if any.
func (r *LendingRepository) GetOpenByUserID(ctx context.Context, userID string) (*domain.BookLending, error) {
	query := `
		SELECT id, user_id, book_id, date_of_return, date_extended, returned_at, created_at
		FROM book_lendings
		WHERE user_id = $1 AND returned_at IS NULL`

	return r.scanLending(ctx, query, userID)
}

// GetByID retrieves a lending by its identifier.
func (r *LendingRepository) GetByID(ctx context.Context, id int64) (*domain.BookLending, error) {
	query := `
		SELECT id, user_id, book_id, date_of_return, date_extended, returned_at, created_at
		FROM book_lendings
		WHERE id = $1`

	return r.scanLending(ctx, query, id)
}

// Extend moves the lending's return date forward and marks it extended.
// The guard on date_extended makes a second extension a no-op; callers
// check the returned row count.
func (r *LendingRepository) Extend(ctx context.Context, id int64, newDateOfReturn time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE book_lendings
		 SET date_of_return = $2, date_extended = TRUE
		 WHERE id = $1 AND date_extended = FALSE AND returned_at IS NULL`,
		id, newDateOfReturn,
	)
	if err != nil {
		return 0, fmt.Errorf("extend lending: %w", err)
	}

	return ct.RowsAffected(), nil
}

// Return closes the user's open lending of the given book and restocks
// it in a single transaction. The close matches on both user and book,
// so returning a book the user never borrowed changes nothing and is
// reported as ErrNotFound.
func (r *LendingRepository) Return(ctx context.Context, userID, bookID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	ct, err := tx.Exec(ctx,
		`UPDATE book_lendings
		 SET returned_at = NOW()
		 WHERE user_id = $1 AND book_id = $2 AND returned_at IS NULL`,
		userID, bookID,
	)
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("close lending: %w", err))
	}
	if ct.RowsAffected() == 0 {
		return rollback(ctx, tx, fmt.Errorf("no open lending for user and book: %w", apperrors.ErrNotFound))
	}

	_, err = tx.Exec(ctx,
		`UPDATE books
		 SET quantity = quantity + 1, is_available = TRUE, updated_at = NOW()
		 WHERE id = $1`,
		bookID,
	)
	if err != nil {
		return rollback(ctx, tx, fmt.Errorf("restock book: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func (r *LendingRepository) scanLending(ctx context.Context, query string, args ...any) (*domain.BookLending, error) {
	var l domain.BookLending

	err := r.db.QueryRow(ctx, query, args...).Scan(
		&l.ID,
		&l.UserID,
		&l.BookID,
		&l.DateOfReturn,
		&l.DateExtended,
		&l.ReturnedAt,
		&l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan lending: %w", err)
	}

	return &l, nil
}
