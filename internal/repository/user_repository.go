package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"portal/internal/interfaces"
	"portal/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserExists    = errors.New("user already exists")
	ErrLoginIDExists = errors.New("login id already in use")
)

type UserRepository interface {
	interfaces.AccountDirectory
	Create(ctx context.Context, user *models.User) error
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	List(ctx context.Context, offset, limit int) ([]models.User, error)
	Update(ctx context.Context, studentID string, upd models.UserUpdate) (*models.User, error)
	SetLoginID(ctx context.Context, studentID string, loginID string) (*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const (
	userColumnList    = `student_id, login_id, is_active, password_hash, created_at`
	selectUserColumns = `SELECT ` + userColumnList + ` FROM student_users`
)

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var hash sql.NullString
	if err := row.Scan(&u.StudentID, &u.LoginID, &u.IsActive, &hash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	return &u, nil
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "login_id") {
			return ErrLoginIDExists
		}
		return ErrUserExists
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO student_users (student_id, login_id, is_active, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, user.StudentID, user.LoginID, user.IsActive, user.PasswordHash, user.CreatedAt).Scan(&user.CreatedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByExternalID(ctx context.Context, studentID string) (*models.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE student_id = $1`, studentID)
}

func (r *userRepository) FindByAccountKey(ctx context.Context, accountKey string) (*models.User, error) {
	return r.getOne(ctx, selectUserColumns+` WHERE LOWER(login_id) = LOWER($1)`, accountKey)
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	query := selectUserColumns + `
		WHERE student_id = $1
		   OR LOWER(login_id) = LOWER($1)
		LIMIT 1
	`
	return r.getOne(ctx, query, identifier)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	query := selectUserColumns + ` ORDER BY student_id OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Update writes the non-nil fields of upd in one statement and returns the
// stored row.
func (r *userRepository) Update(ctx context.Context, studentID string, upd models.UserUpdate) (*models.User, error) {
	query := `
		UPDATE student_users SET
			login_id = COALESCE($2, login_id),
			password_hash = COALESCE($3, password_hash),
			is_active = COALESCE($4, is_active)
		WHERE student_id = $1
		RETURNING ` + userColumnList
	return r.updateOne(ctx, query, studentID, upd.LoginID, upd.PasswordHash, upd.IsActive)
}

func (r *userRepository) SetLoginID(ctx context.Context, studentID string, loginID string) (*models.User, error) {
	query := `UPDATE student_users SET login_id = $2 WHERE student_id = $1 RETURNING ` + userColumnList
	return r.updateOne(ctx, query, studentID, loginID)
}

func (r *userRepository) updateOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// SetCredentialHash replaces the password hash in a single statement, so the
// write either lands completely or not at all.
func (r *userRepository) SetCredentialHash(ctx context.Context, studentID string, passwordHash string) error {
	query := `UPDATE student_users SET password_hash = $1 WHERE student_id = $2`
	res, err := r.db.ExecContext(ctx, query, passwordHash, studentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
