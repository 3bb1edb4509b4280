// Package http contains the HTTP handlers and router for the library API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jimkdev/library-api/internal/service"
	apperrors "github.com/jimkdev/library-api/pkg/errors"
	"github.com/jimkdev/library-api/pkg/httputil"
	"github.com/jimkdev/library-api/pkg/pagination"
	"github.com/jimkdev/library-api/pkg/validator"
)

// refreshCookieName is the cookie carrying the refresh token.
const refreshCookieName = "refresh_token"

// refreshCookiePath scopes the refresh cookie to the auth endpoints.
const refreshCookiePath = "/users"

// AuthHandler handles HTTP requests for registration, login, and the
// token lifecycle.
type AuthHandler struct {
	service      *service.AuthService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. secureCookie controls
// the Secure attribute on the refresh cookie and is off only in
// development.
func NewAuthHandler(svc *service.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie, logger: logger}
}

// RegisterRequest is the JSON request body for member registration.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Mobile    string `json:"mobile" validate:"required,min=7,max=20"`
}

// LoginRequest is the JSON request body for member login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the user and access token; the refresh token
// travels only in the httponly cookie.
type LoginResponse struct {
	User        any    `json:"user"`
	AccessToken string `json:"access_token"`
}

// Register handles POST /users/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "user has been registered", user)
}

// Login handles POST /users/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, tokens, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.setRefreshCookie(w, tokens.RefreshToken)

	httputil.WriteSuccess(w, http.StatusOK, "user has been logged in", LoginResponse{
		User:        user,
		AccessToken: tokens.AccessToken,
	})
}

// Refresh handles POST /users/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		httputil.WriteError(w, r, apperrors.Unauthorized("refresh token cookie is missing"), h.logger)
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "access token has been refreshed", map[string]string{
		"access_token": accessToken,
	})
}

// Logout handles POST /users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("refresh token cookie is missing"), h.logger)
		return
	}

	if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.clearRefreshCookie(w)

	httputil.WriteSuccess(w, http.StatusOK, "user has been logged out", nil)
}

// ListUsers handles GET /users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	users, pages, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteList(w, http.StatusOK, "users have been retrieved", users, pages)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		Expires:  time.Now().UTC().Add(h.service.RefreshExpiry()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}
