package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimkdev/library-api/internal/auth"
	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/service"
	"github.com/jimkdev/library-api/pkg/httputil"
	"github.com/jimkdev/library-api/pkg/middleware"
	"github.com/jimkdev/library-api/pkg/pagination"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Exists(ctx context.Context, username, email, mobile string) (bool, error) {
	args := m.Called(ctx, username, email, mobile)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, params pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

type mockBookRepo struct {
	mock.Mock
}

func (m *mockBookRepo) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}

func (m *mockBookRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *mockBookRepo) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	args := m.Called(ctx, isbn)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookRepo) List(ctx context.Context, params pagination.Params) ([]domain.Book, int, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Book), args.Int(1), args.Error(2)
}

func (m *mockBookRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type mockLendingRepo struct {
	mock.Mock
}

func (m *mockLendingRepo) Lend(ctx context.Context, userID, bookID string, dateOfReturn time.Time) error {
	args := m.Called(ctx, userID, bookID, dateOfReturn)
	return args.Error(0)
}

func (m *mockLendingRepo) GetOpenByUserID(ctx context.Context, userID string) (*domain.BookLending, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookLending), args.Error(1)
}

func (m *mockLendingRepo) GetByID(ctx context.Context, id int64) (*domain.BookLending, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BookLending), args.Error(1)
}

func (m *mockLendingRepo) Extend(ctx context.Context, id int64, newDateOfReturn time.Time) (int64, error) {
	args := m.Called(ctx, id, newDateOfReturn)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockLendingRepo) Return(ctx context.Context, userID, bookID string) error {
	args := m.Called(ctx, userID, bookID)
	return args.Error(0)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) MarkExpired(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAnalyticsRepo struct {
	mock.Mock
}

func (m *mockAnalyticsRepo) Snapshot(ctx context.Context) (*domain.Analytics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Analytics), args.Error(1)
}

// ============================================================================
// Test Helpers
// ============================================================================

const testUserID = "550e8400-e29b-41d4-a716-446655440001"
const testBookID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

func handlerTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func handlerTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", "test-refresh-secret-for-testing", 15*time.Minute, 7*24*time.Hour)
}

// fakeTokenValidator returns a middleware.TokenValidator that always
// succeeds and injects the given userID into the request context.
func fakeTokenValidator(userID string) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		return &middleware.Claims{UserID: userID, Email: "test@example.com"}, nil
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func sampleUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           testUserID,
		Username:     "pduncan",
		PasswordHash: "$2a$12$hashedpassword",
		FirstName:    "Paul",
		LastName:     "Duncan",
		Email:        "paul@example.com",
		Mobile:       "+355691234567",
		Role:         domain.RoleMember,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func sampleBook() *domain.Book {
	now := time.Now().UTC()
	return &domain.Book{
		ID:          testBookID,
		Title:       "Dune",
		Author:      "Frank Herbert",
		ISBN:        "9780441172719",
		PublishedAt: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
		Quantity:    3,
		IsAvailable: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// setupAuthRouter mirrors the production /users routes.
func setupAuthRouter(handler *AuthHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh", handler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(fakeTokenValidator(testUserID)))
			r.Get("/", handler.ListUsers)
			r.Post("/logout", handler.Logout)
		})
	})
	return r
}

// setupAuthRouterRealAuth uses the real JWT validator so rejected
// bearer tokens can be tested.
func setupAuthRouterRealAuth(handler *AuthHandler) *chi.Mux {
	jwtManager := handlerTestJWTManager()
	validate := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID, Email: claims.Email}, nil
	}

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validate))
			r.Get("/", handler.ListUsers)
			r.Post("/logout", handler.Logout)
		})
	})
	return r
}

// setupBookRouter mirrors the production /books routes with a fake token
// validator for auth.
func setupBookRouter(bookHandler *BookHandler, lendingHandler *LendingHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/books", func(r chi.Router) {
		r.Use(middleware.Auth(fakeTokenValidator(testUserID)))

		r.Get("/", bookHandler.List)
		r.Post("/add", bookHandler.Add)
		r.Get("/{id}", bookHandler.Get)
		r.Delete("/", bookHandler.Delete)

		if lendingHandler != nil {
			r.Route("/lendings", func(r chi.Router) {
				r.Post("/create", lendingHandler.Lend)
				r.Get("/current", lendingHandler.Current)
				r.Post("/extend-return-date", lendingHandler.Extend)
				r.Post("/return-book", lendingHandler.Return)
			})
		}
	})
	return r
}

func newAuthTestHandler(userRepo *mockUserRepo, tokenRepo *mockRefreshTokenRepo) *AuthHandler {
	svc := service.NewAuthService(userRepo, tokenRepo, handlerTestJWTManager(), handlerTestLogger())
	return NewAuthHandler(svc, false, handlerTestLogger())
}

func newBookTestHandler(bookRepo *mockBookRepo) *BookHandler {
	svc := service.NewBookService(bookRepo, handlerTestLogger())
	return NewBookHandler(svc, handlerTestLogger())
}

func newLendingTestHandler(lendingRepo *mockLendingRepo, userRepo *mockUserRepo, bookRepo *mockBookRepo) *LendingHandler {
	svc := service.NewLendingService(lendingRepo, userRepo, bookRepo, 14, handlerTestLogger())
	return NewLendingHandler(svc, handlerTestLogger())
}
