package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/estateman/internal/domain"
	"github.com/yourorg/estateman/internal/security/middleware"
	"github.com/yourorg/estateman/internal/service"
)

// UsersHandler handles account management endpoints
type UsersHandler struct {
	authService     *service.AuthService
	approvalService *service.ApprovalService
	users           domain.UserRepository
	logger          *slog.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(authService *service.AuthService, approvalService *service.ApprovalService, users domain.UserRepository, logger *slog.Logger) *UsersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsersHandler{
		authService:     authService,
		approvalService: approvalService,
		users:           users,
		logger:          logger,
	}
}

// UserResponse is the account shape returned to clients. Password hash
// and verification code never leave the server.
type UserResponse struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	FullName         string `json:"full_name"`
	Phone            string `json:"phone"`
	IDNumber         string `json:"id_number,omitempty"`
	Role             string `json:"role"`
	Specialization   string `json:"specialization,omitempty"`
	ProfileCompleted bool   `json:"profile_completed"`
	ApprovalStatus   string `json:"approval_status"`
	EmailVerified    bool   `json:"email_verified"`
	IsActive         bool   `json:"is_active"`
	RejectionReason  string `json:"rejection_reason,omitempty"`
	HouseNumber      string `json:"house_number,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		FullName:         u.FullName(),
		Phone:            u.Phone,
		IDNumber:         u.IDNumber,
		Role:             string(u.Role),
		Specialization:   string(u.Specialization),
		ProfileCompleted: u.ProfileCompleted,
		ApprovalStatus:   string(u.ApprovalStatus),
		EmailVerified:    u.EmailVerified,
		IsActive:         u.IsActive,
		RejectionReason:  u.RejectionReason,
		HouseNumber:      u.HouseNumber,
		CreatedAt:        u.CreatedAt.Format(time.RFC3339),
	}
}

func userResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	return out
}

// List handles GET /api/users, optionally filtered by ?role=
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok || actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}

	var (
		users []*domain.User
		err   error
	)
	if role := r.URL.Query().Get("role"); role != "" {
		if !domain.Role(role).Valid() {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown role"})
			return
		}
		users, err = h.users.ListByRole(domain.Role(role))
	} else {
		users, err = h.users.List()
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": userResponses(users)})
}

// Get handles GET /api/users/{id}
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if actor.Role != domain.RoleAdmin && actor.Role != domain.RoleManager && actor.ID != id {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}

	user, err := h.users.GetByID(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// Me handles GET /api/users/me
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	user, err := h.users.GetByID(actor.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// CreateStaffRequest represents an admin-created staff account
type CreateStaffRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=64"`
	Email          string `json:"email" validate:"omitempty,email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone"`
	IDNumber       string `json:"id_number"`
	Role           string `json:"role" validate:"required"`
	Specialization string `json:"specialization"`
}

// CreateStaff handles POST /api/users
func (h *UsersHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req CreateStaffRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	result, err := h.authService.CreateStaff(r.Context(), actor, service.StaffInput{
		Username:       req.Username,
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		IDNumber:       req.IDNumber,
		Role:           domain.Role(req.Role),
		Specialization: domain.Specialization(req.Specialization),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":               userResponse(result.User),
		"temporary_password": result.TemporaryPassword,
	})
}

// ApproveRequest carries the house assignment made at approval time
type ApproveRequest struct {
	HouseID       int64  `json:"house_id" validate:"required"`
	MoveInDate    string `json:"move_in_date"`
	ContractStart string `json:"contract_start"`
	ContractEnd   string `json:"contract_end"`
}

// Approve handles POST /api/users/{id}/approve
func (h *UsersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ApproveRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	in := service.ApprovalInput{HouseID: req.HouseID}
	var err error
	if in.MoveInDate, err = optionalDate(req.MoveInDate); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid move_in_date"})
		return
	}
	if in.ContractStart, err = optionalDate(req.ContractStart); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid contract_start"})
		return
	}
	if in.ContractEnd, err = optionalDate(req.ContractEnd); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid contract_end"})
		return
	}

	user, err := h.approvalService.Approve(actor, id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// RejectRequest carries the rejection reason shown to the applicant
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /api/users/{id}/reject
func (h *UsersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.approvalService.Reject(actor, id, req.Reason)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// PendingApprovals handles GET /api/users/pending_approvals
func (h *UsersHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	users, err := h.approvalService.ListPending(actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": userResponses(users)})
}

// ResetPassword handles POST /api/users/{id}/reset_password
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.authService.ResetPassword(r.Context(), actor, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":               userResponse(result.User),
		"temporary_password": result.TemporaryPassword,
	})
}

// CompleteProfileRequest finishes first-login setup
type CompleteProfileRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	IDNumber    string `json:"id_number"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// CompleteProfile handles POST /api/users/complete_profile
func (h *UsersHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req CompleteProfileRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.CompleteProfile(actor, service.CompleteProfileInput{
		Email:       req.Email,
		Phone:       req.Phone,
		IDNumber:    req.IDNumber,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// UpdateProfileRequest is a self-service profile edit
type UpdateProfileRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" validate:"omitempty,min=8"`
}

// UpdateProfile handles PATCH /api/users/me
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	var req UpdateProfileRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(actor, service.UpdateProfileInput{
		Email:       req.Email,
		Phone:       req.Phone,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

// Delete handles DELETE /api/users/{id}
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentActor(r.Context())
	if !ok || actor.Role != domain.RoleAdmin {
		writeError(w, h.logger, domain.ErrForbidden)
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if id == actor.ID {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "cannot delete your own account"})
		return
	}

	if err := h.users.Delete(id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("user deleted", slog.Int64("user_id", id), slog.Int64("deleted_by", actor.ID))
	writeJSON(w, http.StatusNoContent, nil)
}
