package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/repository"
)

// AnalyticsService reads aggregate library activity counters.
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	logger        *slog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		logger:        logger,
	}
}

// Snapshot returns the current totals for lendings, active users, and
// available books.
func (s *AnalyticsService) Snapshot(ctx context.Context) (*domain.Analytics, error) {
	snapshot, err := s.analyticsRepo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("analytics snapshot: %w", err)
	}

	return snapshot, nil
}
