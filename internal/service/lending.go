package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/repository"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
)

// validExtensionDays are the accepted return date extension periods.
var validExtensionDays = []int{3, 5, 7}

// LendStatus describes the outcome of a lend request.
type LendStatus string

// Lend outcomes. A book with no copies on the shelf yields
// LendStatusNotAvailable rather than an error.
const (
	LendStatusLent         LendStatus = "lent"
	LendStatusNotAvailable LendStatus = "not available"
)

// ExtendStatus describes the outcome of a return date extension.
type ExtendStatus string

// Extension outcomes. A lending whose single permitted extension has
// already been used yields ExtendStatusAlreadyExtended.
const (
	ExtendStatusExtended        ExtendStatus = "extended"
	ExtendStatusAlreadyExtended ExtendStatus = "already extended"
)

// LendingService implements the book lending state machine.
type LendingService struct {
	lendingRepo repository.LendingRepository
	userRepo    repository.UserRepository
	bookRepo    repository.BookRepository
	graceDays   int
	logger      *slog.Logger
}

// NewLendingService creates a new lending service. graceDays is the loan
// period granted at lend time.
func NewLendingService(
	lendingRepo repository.LendingRepository,
	userRepo repository.UserRepository,
	bookRepo repository.BookRepository,
	graceDays int,
	logger *slog.Logger,
) *LendingService {
	return &LendingService{
		lendingRepo: lendingRepo,
		userRepo:    userRepo,
		bookRepo:    bookRepo,
		graceDays:   graceDays,
		logger:      logger,
	}
}

// Lend lends one copy of the book to the user. The stock decrement and
// the lending insert happen in one transaction; losing a race for the
// last copy reports LendStatusNotAvailable, same as finding the book
// unavailable up front.
func (s *LendingService) Lend(ctx context.Context, userID, bookID string) (LendStatus, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return "", apperrors.InvalidInput("invalid user id")
	}
	if _, err := uuid.Parse(bookID); err != nil {
		return "", apperrors.InvalidInput("invalid book id")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NotFound("user not found")
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NotFound("book not found")
		}
		return "", fmt.Errorf("get book: %w", err)
	}

	if !book.IsAvailable || book.Quantity <= 0 {
		return LendStatusNotAvailable, nil
	}

	dateOfReturn := time.Now().UTC().AddDate(0, 0, s.graceDays)
	if err := s.lendingRepo.Lend(ctx, userID, bookID, dateOfReturn); err != nil {
		switch {
		case errors.Is(err, repository.ErrNoCopiesAvailable):
			return LendStatusNotAvailable, nil
		case errors.Is(err, repository.ErrOpenLendingExists):
			return "", apperrors.Conflict("user already has an open lending")
		default:
			return "", fmt.Errorf("lend book: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "book lent",
		slog.String("user_id", user.ID),
		slog.String("book_id", book.ID),
		slog.Time("date_of_return", dateOfReturn),
	)

	return LendStatusLent, nil
}

// ExtendReturnDate pushes the lending's return date out by extensionDays.
// A lending can be extended once; asking again is reported as
// ExtendStatusAlreadyExtended, not an error.
func (s *LendingService) ExtendReturnDate(ctx context.Context, lendingID int64, extensionDays int) (ExtendStatus, error) {
	if lendingID <= 0 {
		return "", apperrors.InvalidInput("invalid book lending id")
	}

	lending, err := s.lendingRepo.GetByID(ctx, lendingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.NotFound("book lending not found")
		}
		return "", fmt.Errorf("get lending: %w", err)
	}

	if lending.DateExtended {
		return ExtendStatusAlreadyExtended, nil
	}

	if !isValidExtension(extensionDays) {
		return "", apperrors.InvalidInput("extension days must be one of 3, 5, or 7")
	}

	newDate := lending.DateOfReturn.AddDate(0, 0, extensionDays)
	affected, err := s.lendingRepo.Extend(ctx, lendingID, newDate)
	if err != nil {
		return "", fmt.Errorf("extend lending: %w", err)
	}
	if affected == 0 {
		// Another request extended the lending between the read and the
		// guarded update.
		return ExtendStatusAlreadyExtended, nil
	}

	s.logger.InfoContext(ctx, "return date extended",
		slog.Int64("lending_id", lendingID),
		slog.Int("extension_days", extensionDays),
		slog.Time("new_date_of_return", newDate),
	)

	return ExtendStatusExtended, nil
}

// Return closes the user's open lending of the book and puts the copy
// back on the shelf. Both updates run in one transaction. The lending is
// matched on user and book together, so returning a book the user never
// borrowed does not close an unrelated lending.
func (s *LendingService) Return(ctx context.Context, userID, bookID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return apperrors.InvalidInput("invalid user id")
	}
	if _, err := uuid.Parse(bookID); err != nil {
		return apperrors.InvalidInput("invalid book id")
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("user not found")
		}
		return fmt.Errorf("get user: %w", err)
	}

	if _, err := s.bookRepo.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("book not found")
		}
		return fmt.Errorf("get book: %w", err)
	}

	if err := s.lendingRepo.Return(ctx, userID, bookID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.OperationFailed("user has no open lending of this book to return", err)
		}
		return fmt.Errorf("return book: %w", err)
	}

	s.logger.InfoContext(ctx, "book returned",
		slog.String("user_id", userID),
		slog.String("book_id", bookID),
	)

	return nil
}

// OpenLending retrieves the user's current open lending.
func (s *LendingService) OpenLending(ctx context.Context, userID string) (*domain.BookLending, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.InvalidInput("invalid user id")
	}

	lending, err := s.lendingRepo.GetOpenByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("no open lending for user")
		}
		return nil, fmt.Errorf("get open lending: %w", err)
	}

	return lending, nil
}

func isValidExtension(days int) bool {
	for _, valid := range validExtensionDays {
		if days == valid {
			return true
		}
	}
	return false
}
