package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User roles, ordered roughly by privilege.
const (
	RoleAdmin        = "admin"
	RoleAnalyst      = "analyst"
	RoleInvestigator = "investigator"
	RoleMonitor      = "monitor"
	RoleViewer       = "viewer"
)

// User account statuses.
const (
	UserActive    = "active"
	UserInactive  = "inactive"
	UserSuspended = "suspended"
	UserPending   = "pending"
)

const maxFailedLogins = 5

type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	Status       string `db:"status" json:"status"`
	Organization string `db:"organization" json:"organization,omitempty"`
	Department   string `db:"department" json:"department,omitempty"`

	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	AccountLockedUntil  *time.Time `db:"account_locked_until" json:"-"`

	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastActivity *time.Time `db:"last_activity" json:"last_activity,omitempty"`
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAnalyst, RoleInvestigator, RoleMonitor, RoleViewer:
		return true
	}
	return false
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.AccountLockedUntil != nil && now.Before(*u.AccountLockedUntil)
}

// RecordFailedLogin increments the failed-login counter and locks the account
// for lockFor once the threshold is reached.
func (u *User) RecordFailedLogin(now time.Time, lockFor time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxFailedLogins {
		until := now.Add(lockFor)
		u.AccountLockedUntil = &until
	}
}

// ResetFailedLogins clears the lockout state after a successful login.
func (u *User) ResetFailedLogins() {
	u.FailedLoginAttempts = 0
	u.AccountLockedUntil = nil
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
