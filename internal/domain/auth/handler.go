package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pratoshot/pratoshot-api/internal/domain/user"
	"github.com/pratoshot/pratoshot-api/internal/middleware"
	"github.com/pratoshot/pratoshot-api/internal/pkg/response"
	"github.com/pratoshot/pratoshot-api/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	profile, tokens, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Error(w, http.StatusBadRequest, "EMAIL_TAKEN", "Email already registered")
			return
		}
		log.Error().Err(err).Msg("registration failed")
		response.InternalError(w)
		return
	}

	response.Created(w, AuthResponse{
		User:         user.ToResponse(profile),
		Token:        tokens.Token,
		RefreshToken: tokens.RefreshToken,
	})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	profile, tokens, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("login failed")
		response.InternalError(w)
		return
	}

	response.OK(w, AuthResponse{
		User:         user.ToResponse(profile),
		Token:        tokens.Token,
		RefreshToken: tokens.RefreshToken,
	})
}

// Refresh handles POST /api/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			response.Unauthorized(w, "Invalid or expired refresh token")
			return
		}
		log.Error().Err(err).Msg("token refresh failed")
		response.InternalError(w)
		return
	}

	response.OK(w, tokens)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	// The body is optional; an empty body still logs out.
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		log.Error().Err(err).Msg("logout failed")
		response.InternalError(w)
		return
	}

	response.OK(w, MessageResponse{Message: "Logged out"})
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.service.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load profile")
		response.InternalError(w)
		return
	}

	response.OK(w, user.ToResponse(profile))
}

// RequestPasswordReset handles POST /api/auth/password-reset/request
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		log.Error().Err(err).Msg("password reset request failed")
		response.InternalError(w)
		return
	}

	response.OK(w, MessageResponse{Message: "If the email exists, a reset code was sent"})
}

// ConfirmPasswordReset handles POST /api/auth/password-reset/confirm
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	if err := h.service.ConfirmPasswordReset(r.Context(), req); err != nil {
		if errors.Is(err, ErrInvalidResetCode) {
			response.Error(w, http.StatusBadRequest, "INVALID_RESET_CODE", "Invalid or expired reset code")
			return
		}
		log.Error().Err(err).Msg("password reset confirmation failed")
		response.InternalError(w)
		return
	}

	response.OK(w, MessageResponse{Message: "Password updated"})
}
