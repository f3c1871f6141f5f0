package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"portal/internal/middleware"
	"portal/internal/models"
	"portal/internal/repository"
	"portal/internal/services"
)

const maxUserPageSize = 100

type UserHandler struct {
	users    repository.UserRepository
	accounts *services.AccountService
	updater  *services.PasswordUpdater
	log      *zap.Logger
	v        *validator.Validate
}

func NewUserHandler(users repository.UserRepository, accounts *services.AccountService, updater *services.PasswordUpdater, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, accounts: accounts, updater: updater, log: logger.Named("users"), v: validator.New()}
}

func (h *UserHandler) current(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	id, ok := middleware.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
		return nil, false
	}
	u, err := h.users.FindByExternalID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
			return nil, false
		}
		h.log.Error("load current user failed", zap.String("student_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "get_user_failed", "Failed to get user")
		return nil, false
	}
	return u, true
}

// @Tags Account
// @Summary Current user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// @Tags Account
// @Summary Change password
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.ChangePasswordRequest true "Change password request"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/users/me/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, ok := h.current(w, r)
	if !ok {
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid_password", "Old password is incorrect")
		return
	}

	hash, err := h.updater.HashPassword(req.NewPassword)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "hash_failed", "Failed to change password")
		return
	}
	if err := h.users.SetCredentialHash(r.Context(), u.StudentID, hash); err != nil {
		h.log.Error("change password failed", zap.String("student_id", u.StudentID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "change_password_failed", "Failed to change password")
		return
	}

	writeJSONMessage(w, http.StatusOK, "password updated")
}

// @Tags Account
// @Summary List users
// @Security BearerAuth
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/users [get]
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", maxUserPageSize)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if limit == 0 || limit > maxUserPageSize {
		limit = maxUserPageSize
	}

	users, err := h.accounts.List(r.Context(), skip, limit)
	if err != nil {
		h.log.Error("list users failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "list_users_failed", "Failed to list users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// owner resolves the {studentID} path parameter and rejects callers acting on
// another student's account.
func (h *UserHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller, ok := middleware.StudentIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Could not validate credentials")
		return "", false
	}
	target := chi.URLParam(r, "studentID")
	if target != caller {
		writeJSONError(w, http.StatusForbidden, "forbidden", "You can only change your own account")
		return "", false
	}
	return target, true
}

func (h *UserHandler) writeAccountError(w http.ResponseWriter, studentID string, err error) {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		writeJSONError(w, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, repository.ErrLoginIDExists), errors.Is(err, repository.ErrUserExists):
		writeJSONError(w, http.StatusConflict, "login_id_exists", "Login id already in use")
	default:
		h.log.Error("update user failed", zap.String("student_id", studentID), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "update_user_failed", "Failed to update user")
	}
}

// @Tags Account
// @Summary Update user
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Param body body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/users/{student_id} [put]
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, err := h.accounts.Update(r.Context(), studentID, req)
	if err != nil {
		h.writeAccountError(w, studentID, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// @Tags Account
// @Summary Change login email
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Param body body models.ChangeLoginIDRequest true "New login email"
// @Success 200 {object} models.User
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/users/{student_id}/change-email [post]
func (h *UserHandler) ChangeLoginID(w http.ResponseWriter, r *http.Request) {
	studentID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req models.ChangeLoginIDRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, err := h.accounts.ChangeLoginID(r.Context(), studentID, req.Email)
	if err != nil {
		h.writeAccountError(w, studentID, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
