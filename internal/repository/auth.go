package repository

import (
	"backend/internal/apperr"
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type AuthRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id int64) (*models.User, error)
	UpdateLoginState(user *models.User) error
	CountUsers() (int, error)
}

type authRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAuthRepository(db *sqlx.DB, logger *zap.Logger) AuthRepository {
	return &authRepository{db: db, logger: logger}
}

const userColumns = `id, username, email, password_hash, role, status, organization, department,
	failed_login_attempts, account_locked_until, created_at, last_activity`

func (r *authRepository) CreateUser(user *models.User) error {
	query := `INSERT INTO users (username, email, password_hash, role, status, organization, department)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	err := r.db.QueryRowx(query, user.Username, user.Email, user.PasswordHash, user.Role,
		user.Status, user.Organization, user.Department).Scan(&user.ID, &user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return apperr.Conflict("username or email already taken")
	}
	return err
}

func (r *authRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	if err := r.db.Get(&user, query, username); err != nil {
		return nil, notFound(err, "user", 0)
	}
	return &user, nil
}

func (r *authRepository) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.Get(&user, query, id); err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (r *authRepository) UpdateLoginState(user *models.User) error {
	query := `UPDATE users SET failed_login_attempts = $1, account_locked_until = $2, last_activity = $3
	          WHERE id = $4`
	_, err := r.db.Exec(query, user.FailedLoginAttempts, user.AccountLockedUntil, user.LastActivity, user.ID)
	return err
}

func (r *authRepository) CountUsers() (int, error) {
	var count int
	if err := r.db.Get(&count, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, err
	}
	return count, nil
}
