package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"

	"backend/internal/apperr"
	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/repository"
)

type RegisterInput struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
	Department   string `json:"department"`
}

type AuthService interface {
	Register(input RegisterInput) (*models.User, error)
	// Bootstrap creates the first account as an admin. Only available while
	// the user table is empty; afterwards registration is admin-gated.
	Bootstrap(input RegisterInput) (*models.User, error)
	Login(username, password string) (string, time.Time, *models.User, error)
	GetUser(id int64) (*models.User, error)
}

type authService struct {
	repo   repository.AuthRepository
	cfg    config.AuthConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(repo repository.AuthRepository, cfg config.AuthConfig, logger *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *authService) Register(input RegisterInput) (*models.User, error) {
	if len(input.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	role := input.Role
	if role == "" {
		role = models.RoleViewer
	}
	if !models.ValidRole(role) {
		return nil, apperr.Validation("unknown role %q", role)
	}

	passwordHash, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       models.UserActive,
		Organization: input.Organization,
		Department:   input.Department,
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("username", user.Username),
		zap.String("role", user.Role))
	return user, nil
}

func (s *authService) Bootstrap(input RegisterInput) (*models.User, error) {
	count, err := s.repo.CountUsers()
	if err != nil {
		s.logger.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("setup already completed")
	}

	input.Role = models.RoleAdmin
	return s.Register(input)
}

func (s *authService) Login(username, password string) (string, time.Time, *models.User, error) {
	user, err := s.repo.GetUserByUsername(username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", time.Time{}, nil, apperr.Validation("invalid credentials")
		}
		s.logger.Error("Failed to get user by username", zap.Error(err))
		return "", time.Time{}, nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	now := s.now()
	if user.Locked(now) {
		return "", time.Time{}, nil, apperr.Conflict("account locked until %s", user.AccountLockedUntil.Format(time.RFC3339))
	}
	if user.Status != models.UserActive {
		return "", time.Time{}, nil, apperr.Conflict("account is %s", user.Status)
	}

	if !verifyPassword(user.PasswordHash, password) {
		user.RecordFailedLogin(now, time.Duration(s.cfg.LockoutMinutes)*time.Minute)
		if err := s.repo.UpdateLoginState(user); err != nil {
			s.logger.Error("Failed to record failed login", zap.Error(err))
		}
		return "", time.Time{}, nil, apperr.Validation("invalid credentials")
	}

	user.ResetFailedLogins()
	user.LastActivity = &now
	if err := s.repo.UpdateLoginState(user); err != nil {
		s.logger.Error("Failed to reset login state", zap.Error(err))
	}

	expirationTime := now.Add(time.Duration(s.cfg.TokenTTLHours) * time.Hour)
	claims := &models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.String("username", user.Username))
	return tokenString, expirationTime, user, nil
}

func (s *authService) GetUser(id int64) (*models.User, error) {
	return s.repo.GetUserByID(id)
}

// hashPassword uses Argon2id and encodes the result as
// $argon2id$v=19$m=65536,t=1,p=4$BASE64_SALT$BASE64_HASH.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)

	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)
	encodedHash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 64*1024, 1, 4, encodedSalt, encodedHash), nil
}

// verifyPassword re-derives the hash with the parameters embedded in the
// stored encoding and compares in constant time.
func verifyPassword(hashedPassword, password string) bool {
	sections := strings.Split(strings.TrimPrefix(hashedPassword, "$"), "$")
	// ["argon2id", "v=19", "m=65536,t=1,p=4", salt, hash]
	if len(sections) != 5 || sections[0] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(sections[1], "v=%d", &version); err != nil {
		return false
	}
	var m, t, p uint32
	if _, err := fmt.Sscanf(sections[2], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false
	}

	decodedSalt, err := base64.RawStdEncoding.DecodeString(sections[3])
	if err != nil {
		return false
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(sections[4])
	if err != nil {
		return false
	}

	comparisonHash := argon2.IDKey([]byte(password), decodedSalt, t, m, uint8(p), uint32(len(decodedHash)))
	return subtle.ConstantTimeCompare(comparisonHash, decodedHash) == 1
}
