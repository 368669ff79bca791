package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/estateman/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{authService: authService, logger: logger}
}

// RegisterRequest represents a tenant self-registration
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	IDNumber    string `json:"id_number"`
	HouseNumber string `json:"house_number"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.RegisterTenant(r.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		IDNumber:    req.IDNumber,
		HouseNumber: req.HouseNumber,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": user.ID,
		"message": "registration received, check your email for a verification code",
	})
}

// VerifyEmailRequest represents an email verification attempt
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.VerifyEmail(req.Email, req.Code)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	msg := "email verified, awaiting admin approval"
	if user.IsActive {
		msg = "email verified, you can now log in"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "active": user.IsActive})
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		// Forbidden here means valid credentials on a gated account;
		// everything else is a generic 401.
		writeAuthError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RefreshRequest carries a refresh token exchange
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		writeAuthError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
