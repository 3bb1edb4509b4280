package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/repository"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
)

func lendingTestRouter(lendingRepo *mockLendingRepo, userRepo *mockUserRepo, bookRepo *mockBookRepo) http.Handler {
	return setupBookRouter(newBookTestHandler(bookRepo), newLendingTestHandler(lendingRepo, userRepo, bookRepo))
}

func TestLend_Success(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(), nil)
	bookRepo.On("GetByID", mock.Anything, testBookID).Return(sampleBook(), nil)
	lendingRepo.On("Lend", mock.Anything, testUserID, testBookID, mock.AnythingOfType("time.Time")).Return(nil)

	rec := postJSON(t, router, "/books/lendings/create", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "the book has been lent", resp.Message)
	lendingRepo.AssertExpectations(t)
}

func TestLend_BookNotAvailable(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	book := sampleBook()
	book.Quantity = 0
	book.IsAvailable = false

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(), nil)
	bookRepo.On("GetByID", mock.Anything, testBookID).Return(book, nil)

	rec := postJSON(t, router, "/books/lendings/create", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "the book is not available", resp.Message)
	lendingRepo.AssertNotCalled(t, "Lend", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLend_OpenLendingConflict(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(), nil)
	bookRepo.On("GetByID", mock.Anything, testBookID).Return(sampleBook(), nil)
	lendingRepo.On("Lend", mock.Anything, testUserID, testBookID, mock.AnythingOfType("time.Time")).
		Return(repository.ErrOpenLendingExists)

	rec := postJSON(t, router, "/books/lendings/create", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLend_UserNotFound(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(nil, apperrors.ErrNotFound)

	rec := postJSON(t, router, "/books/lendings/create", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLend_InvalidBookID(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	rec := postJSON(t, router, "/books/lendings/create", map[string]string{"book_id": "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtend_Success(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	lending := &domain.BookLending{
		ID:           42,
		UserID:       testUserID,
		BookID:       testBookID,
		DateOfReturn: time.Now().UTC().AddDate(0, 0, 14),
	}

	lendingRepo.On("GetByID", mock.Anything, int64(42)).Return(lending, nil)
	lendingRepo.On("Extend", mock.Anything, int64(42), mock.AnythingOfType("time.Time")).Return(int64(1), nil)

	rec := postJSON(t, router, "/books/lendings/extend-return-date", map[string]int{
		"book_lending_id": 42,
		"extension_days":  5,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "the return date has been extended", resp.Message)
}

func TestExtend_AlreadyExtended(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	lending := &domain.BookLending{
		ID:           42,
		UserID:       testUserID,
		BookID:       testBookID,
		DateOfReturn: time.Now().UTC().AddDate(0, 0, 14),
		DateExtended: true,
	}

	lendingRepo.On("GetByID", mock.Anything, int64(42)).Return(lending, nil)

	rec := postJSON(t, router, "/books/lendings/extend-return-date", map[string]int{
		"book_lending_id": 42,
		"extension_days":  5,
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "the return period has already been extended", resp.Message)
	lendingRepo.AssertNotCalled(t, "Extend", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtend_InvalidDays(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	lending := &domain.BookLending{
		ID:           42,
		UserID:       testUserID,
		BookID:       testBookID,
		DateOfReturn: time.Now().UTC().AddDate(0, 0, 14),
	}
	lendingRepo.On("GetByID", mock.Anything, int64(42)).Return(lending, nil)

	rec := postJSON(t, router, "/books/lendings/extend-return-date", map[string]int{
		"book_lending_id": 42,
		"extension_days":  4,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	lendingRepo.AssertNotCalled(t, "Extend", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtend_LendingNotFound(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	lendingRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.ErrNotFound)

	rec := postJSON(t, router, "/books/lendings/extend-return-date", map[string]int{
		"book_lending_id": 99,
		"extension_days":  5,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReturn_Success(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(), nil)
	bookRepo.On("GetByID", mock.Anything, testBookID).Return(sampleBook(), nil)
	lendingRepo.On("Return", mock.Anything, testUserID, testBookID).Return(nil)

	rec := postJSON(t, router, "/books/lendings/return-book", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "the book has been returned", resp.Message)
	lendingRepo.AssertExpectations(t)
}

func TestReturn_NoOpenLending(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(), nil)
	bookRepo.On("GetByID", mock.Anything, testBookID).Return(sampleBook(), nil)
	lendingRepo.On("Return", mock.Anything, testUserID, testBookID).Return(apperrors.ErrNotFound)

	rec := postJSON(t, router, "/books/lendings/return-book", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "user has no open lending of this book to return", resp.Message)
}

func TestReturn_BookNotFound(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	userRepo := new(mockUserRepo)
	bookRepo := new(mockBookRepo)
	router := lendingTestRouter(lendingRepo, userRepo, bookRepo)

	userRepo.On("GetByID", mock.Anything, testUserID).Return(sampleUser(), nil)
	bookRepo.On("GetByID", mock.Anything, testBookID).Return(nil, apperrors.ErrNotFound)

	rec := postJSON(t, router, "/books/lendings/return-book", map[string]string{"book_id": testBookID})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "book not found", resp.Message)
	lendingRepo.AssertNotCalled(t, "Return", mock.Anything, mock.Anything, mock.Anything)
}

func TestCurrentLending_Success(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	lending := &domain.BookLending{
		ID:           42,
		UserID:       testUserID,
		BookID:       testBookID,
		DateOfReturn: time.Now().UTC().AddDate(0, 0, 14),
	}
	lendingRepo.On("GetOpenByUserID", mock.Anything, testUserID).Return(lending, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest(http.MethodGet, "/books/lendings/current"))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "open lending has been retrieved", resp.Message)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 42, data["id"])
	assert.Equal(t, testBookID, data["book_id"])
}

func TestCurrentLending_None(t *testing.T) {
	lendingRepo := new(mockLendingRepo)
	router := lendingTestRouter(lendingRepo, new(mockUserRepo), new(mockBookRepo))

	lendingRepo.On("GetOpenByUserID", mock.Anything, testUserID).Return(nil, apperrors.ErrNotFound)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authorizedRequest(http.MethodGet, "/books/lendings/current"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "no open lending for user", resp.Message)
}
