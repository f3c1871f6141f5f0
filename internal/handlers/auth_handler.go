package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"portal/internal/config"
	"portal/internal/models"
	"portal/internal/repository"
	"portal/internal/services"
)

const resetAckMessage = "If the account exists, a password reset link has been sent"

type AuthHandler struct {
	users  repository.UserRepository
	resets *services.PasswordResetService
	cfg    *config.Config
	log    *zap.Logger
	v      *validator.Validate
}

func NewAuthHandler(users repository.UserRepository, resets *services.PasswordResetService, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		resets: resets,
		cfg:    cfg,
		log:    logger.Named("auth"),
		v:      validator.New(),
	}
}

// @Tags Auth
// @Summary Register a student login
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Register request"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.LoginID = strings.TrimSpace(req.LoginID)
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	hash, err := h.resets.Updater().HashPassword(req.Password)
	if err != nil {
		h.log.Error("hash password failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "register_failed", "Failed to create user")
		return
	}

	u := &models.User{
		StudentID:    req.StudentID,
		LoginID:      req.LoginID,
		IsActive:     true,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.Create(r.Context(), u); err != nil {
		switch {
		case errors.Is(err, repository.ErrLoginIDExists):
			writeJSONError(w, http.StatusConflict, "login_id_exists", "Login ID is already in use")
		case errors.Is(err, repository.ErrUserExists):
			writeJSONError(w, http.StatusConflict, "user_exists", "Student already has a login")
		default:
			h.log.Error("create user failed", zap.String("student_id", req.StudentID), zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "register_failed", "Failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// @Tags Auth
// @Summary Log in with student id or login id
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, err := h.users.GetByIdentifier(r.Context(), strings.TrimSpace(req.Identifier))
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.log.Error("login lookup failed", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "login_failed", "Failed to login")
			return
		}
		if h.cfg.AuthVerboseErrors {
			writeJSONError(w, http.StatusUnauthorized, "invalid_identifier", "Student ID or login ID not found")
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Incorrect login ID or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		if h.cfg.AuthVerboseErrors {
			writeJSONError(w, http.StatusUnauthorized, "invalid_password", "Password is incorrect")
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Incorrect login ID or password")
		return
	}
	if !u.IsActive {
		writeJSONError(w, http.StatusForbidden, "inactive_account", "Account is disabled")
		return
	}

	expiresIn := h.cfg.JWTExpiresInSeconds
	if expiresIn <= 0 {
		expiresIn = 1800
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   u.StudentID,
		"email": u.LoginID,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Duration(expiresIn) * time.Second).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.log.Error("sign access token failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "login_failed", "Failed to login")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
		StudentID:   u.StudentID,
		Email:       u.LoginID,
	})
}

// @Tags Auth
// @Summary Request a password reset link
// @Description Always acknowledges, whether or not the student id exists.
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	res, err := h.resets.BeginReset(r.Context(), req.StudentID)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "No user found with the provided student ID")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "internal_error", services.ErrInternal.Error())
		return
	}

	resp := map[string]any{"success": true, "message": resetAckMessage}
	if res.Token != "" {
		resp["token"] = res.Token
		resp["expires_in_seconds"] = int64(res.ExpiresIn / time.Second)
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Tags Auth
// @Summary Check a password reset token without using it
// @Produce json
// @Param token query string true "Reset token"
// @Success 200 {object} models.TokenVerifyResponse
// @Failure 400 {object} models.TokenVerifyResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/auth/verify-token [get]
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	email, err := h.resets.VerifyToken(r.Context(), token)
	switch {
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		writeJSON(w, http.StatusBadRequest, models.TokenVerifyResponse{Valid: false, Message: "Invalid or expired token"})
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", services.ErrInternal.Error())
	default:
		writeJSON(w, http.StatusOK, models.TokenVerifyResponse{Valid: true, Message: "Token is valid", Email: email})
	}
}

// @Tags Auth
// @Summary Set a new password with a reset token
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} models.StandardResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	err := h.resets.CompleteReset(r.Context(), req.Token, req.NewPassword)
	switch {
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		writeJSONError(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
	case errors.Is(err, services.ErrUpdateFailed):
		writeJSONError(w, http.StatusInternalServerError, "reset_failed", "Failed to reset password")
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", services.ErrInternal.Error())
	default:
		writeJSON(w, http.StatusOK, models.StandardResponse{Success: true, Message: "Password reset successful"})
	}
}
