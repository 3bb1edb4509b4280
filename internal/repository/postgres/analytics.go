package postgres

import (
	"context"
	"fmt"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/pkg/database"
)

// AnalyticsRepository implements repository.AnalyticsRepository using PostgreSQL.
type AnalyticsRepository struct {
	db database.DBTX
}

// NewAnalyticsRepository creates a new PostgreSQL-backed analytics repository.
func NewAnalyticsRepository(db database.DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Snapshot returns the current library activity totals in one round trip.
func (r *AnalyticsRepository) Snapshot(ctx context.Context) (*domain.Analytics, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM book_lendings) AS total_book_lendings,
			(SELECT COUNT(*) FROM users WHERE is_active) AS total_active_users,
			(SELECT COUNT(*) FROM books WHERE quantity > 0) AS total_available_books`

	var a domain.Analytics
	err := r.db.QueryRow(ctx, query).Scan(
		&a.TotalBookLendings,
		&a.TotalActiveUsers,
		&a.TotalAvailableBooks,
	)
	if err != nil {
		return nil, fmt.Errorf("scan analytics snapshot: %w", err)
	}

	return &a, nil
}
