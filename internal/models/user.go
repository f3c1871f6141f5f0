package models

import "time"

// User is a student portal login. LoginID doubles as the mail address the
// reset link is sent to.
type User struct {
	StudentID    string    `json:"student_id"`
	LoginID      string    `json:"login_id"`
	IsActive     bool      `json:"is_active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	StudentID string `json:"student_id" validate:"required,max=15"`
	LoginID   string `json:"login_id" validate:"required,email,max=200"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	StudentID   string `json:"student_id"`
	Email       string `json:"email"`
}

type ForgotPasswordRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UpdateUserRequest carries the account fields an update may change. Absent
// fields keep their stored value.
type UpdateUserRequest struct {
	LoginID  *string `json:"login_id,omitempty" validate:"omitempty,email,max=200"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type ChangeLoginIDRequest struct {
	Email string `json:"email" validate:"required,email,max=200"`
}

// UserUpdate is the stored form of UpdateUserRequest, with the password
// already hashed.
type UserUpdate struct {
	LoginID      *string
	PasswordHash *string
	IsActive     *bool
}

type StandardResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TokenVerifyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}
