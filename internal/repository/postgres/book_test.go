package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/pkg/database"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/pagination"
)

func newBookTestFixture(t *testing.T) (*BookRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewBookRepository(mock)
	return repo, mock
}

func sampleBook() *domain.Book {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Book{
		ID:          "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Title:       "Dune",
		Author:      "Frank Herbert",
		ISBN:        "978-0441172719",
		PublishedAt: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
		Quantity:    3,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func bookColumns() []string {
	return []string{
		"id", "title", "author", "isbn", "published_at",
		"quantity", "is_available", "created_at", "updated_at",
	}
}

func bookRow(b *domain.Book) *pgxmock.Rows {
	return pgxmock.NewRows(bookColumns()).AddRow(
		b.ID, b.Title, b.Author, b.ISBN, b.PublishedAt,
		b.Quantity, b.IsAvailable, b.CreatedAt, b.UpdatedAt,
	)
}

func TestBookRepository_Create_Success(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	b := sampleBook()

	mock.ExpectExec("INSERT INTO books").
		WithArgs(
			b.ID, b.Title, b.Author, b.ISBN, b.PublishedAt,
			b.Quantity, b.IsAvailable, b.CreatedAt, b.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), b)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_Create_DuplicateISBN(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	b := sampleBook()

	mock.ExpectExec("INSERT INTO books").
		WithArgs(
			b.ID, b.Title, b.Author, b.ISBN, b.PublishedAt,
			b.Quantity, b.IsAvailable, b.CreatedAt, b.UpdatedAt,
		).
		WillReturnError(fmt.Errorf("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"))

	err := repo.Create(context.Background(), b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetByID_Success(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	b := sampleBook()

	mock.ExpectQuery("SELECT .+ FROM books WHERE id =").
		WithArgs(b.ID).
		WillReturnRows(bookRow(b))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Title, got.Title)
	assert.Equal(t, b.Quantity, got.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM books WHERE id =").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(bookColumns()))

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_ExistsByISBN(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("978-0441172719").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByISBN(context.Background(), "978-0441172719")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_List_Success(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	b := sampleBook()
	params := pagination.Params{Page: 1, Limit: 10}.Normalize()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM books`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM books ORDER BY title").
		WithArgs(params.Limit, params.Offset).
		WillReturnRows(bookRow(b))

	books, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_DeleteMany(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	ids := []string{"id-1", "id-2", "id-3"}

	mock.ExpectExec("DELETE FROM books WHERE id = ANY").
		WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	deleted, err := repo.DeleteMany(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookRepository_DeleteMany_Error(t *testing.T) {
	repo, mock := newBookTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM books WHERE id = ANY").
		WithArgs([]string{"id-1"}).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.DeleteMany(context.Background(), []string{"id-1"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
