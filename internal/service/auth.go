// Package service implements the business logic of the library system.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jimkdev/library-api/internal/auth"
	"github.com/jimkdev/library-api/internal/domain"
	"github.com/jimkdev/library-api/internal/repository"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/pagination"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// AuthService implements registration, login, and token lifecycle logic.
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtManager       *auth.JWTManager
	logger           *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtManager:       jwtManager,
		logger:           logger,
	}
}

// RefreshExpiry returns the lifetime of issued refresh tokens, used by
// the HTTP layer to set the cookie expiry.
func (s *AuthService) RefreshExpiry() time.Duration {
	return s.jwtManager.RefreshExpiry()
}

// RegisterInput holds the parameters for registering a new library member.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
	Mobile    string
}

// Register creates a new member account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if input.FirstName == "" {
		return nil, apperrors.InvalidInput("first name is required")
	}
	if input.LastName == "" {
		return nil, apperrors.InvalidInput("last name is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Mobile == "" {
		return nil, apperrors.InvalidInput("mobile is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, input.Username, input.Email, input.Mobile)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict("username, email, or mobile is already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Mobile:       input.Mobile,
		Role:         domain.RoleMember,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique indexes are the authority; the Exists pre-check only
		// narrows the window.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("username, email, or mobile is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates a member by username and password. On success it
// revokes any previously issued refresh tokens and returns a fresh pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, *domain.TokenPair, error) {
	if username == "" {
		return nil, nil, apperrors.InvalidInput("username is required")
	}
	if password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.NotFound("user not found")
		}
		return nil, nil, fmt.Errorf("get user by username: %w", err)
	}

	if !user.IsActive {
		return nil, nil, apperrors.InvalidInput("account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.InvalidInput("invalid credentials")
	}

	if err := s.refreshTokenRepo.RevokeByUserID(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("revoke previous refresh tokens: %w", err)
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, tokens, nil
}

// Refresh validates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.Unauthorized("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	tokenHash := hashToken(refreshToken)
	storedToken, err := s.refreshTokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		return "", apperrors.Unauthorized("refresh token not found")
	}

	if storedToken.IsRevoked {
		return "", apperrors.Unauthorized("refresh token has been revoked")
	}
	if storedToken.IsExpired {
		return "", apperrors.Unauthorized("refresh token has expired")
	}

	if time.Now().UTC().After(storedToken.ExpiresAt) {
		if err := s.refreshTokenRepo.MarkExpired(ctx, storedToken.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark refresh token expired",
				slog.String("token_id", storedToken.ID),
				slog.String("error", err.Error()),
			)
		}
		return "", apperrors.Unauthorized("refresh token has expired")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("get user for token refresh: %w", err)
	}
	if !user.IsActive {
		return "", apperrors.Unauthorized("account is deactivated")
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "access token refreshed",
		slog.String("user_id", user.ID),
	)

	return accessToken, nil
}

// Logout revokes the presented refresh token, ending the session.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh token is required")
	}

	tokenHash := hashToken(refreshToken)
	storedToken, err := s.refreshTokenRepo.GetByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInput("refresh token not recognized")
		}
		return fmt.Errorf("get refresh token: %w", err)
	}

	if storedToken.IsRevoked {
		return apperrors.InvalidInput("refresh token already revoked")
	}

	if err := s.refreshTokenRepo.Revoke(ctx, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", storedToken.UserID),
	)

	return nil
}

// ListUsers returns a page of registered members.
func (s *AuthService) ListUsers(ctx context.Context, params pagination.Params) ([]domain.User, pagination.Pages, error) {
	params = params.Normalize()

	users, total, err := s.userRepo.List(ctx, params)
	if err != nil {
		return nil, pagination.Pages{}, fmt.Errorf("list users: %w", err)
	}

	pages, err := pagination.Calculate(total, params)
	if err != nil {
		return nil, pagination.Pages{}, err
	}

	return users, pages, nil
}

// generateTokenPair creates an access/refresh token pair and stores the
// refresh token hash.
func (s *AuthService) generateTokenPair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.jwtManager.RefreshExpiry())
	if err := s.refreshTokenRepo.Create(ctx, user.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
