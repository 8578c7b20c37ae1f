package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/config"
	"backend/internal/models"
)

func newAuthFixture(t *testing.T) (*fakeAuthRepo, *authService) {
	t.Helper()
	repo := newFakeAuthRepo()
	cfg := config.AuthConfig{
		JWTSecret:      "test-secret",
		TokenTTLHours:  24,
		LockoutMinutes: 30,
	}
	svc := NewAuthService(repo, cfg, zap.NewNop()).(*authService)
	return repo, svc
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := hashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=65536,t=1,p=4$")

	assert.True(t, verifyPassword(hash, "correct horse battery staple"))
	assert.False(t, verifyPassword(hash, "wrong password"))
	assert.False(t, verifyPassword("not-a-hash", "anything"))
	assert.False(t, verifyPassword("$argon2id$v=19$m=65536,t=1,p=4$bad!salt$bad!hash", "anything"))
}

func TestRegisterDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	_, svc := newAuthFixture(t)

	_, err := svc.Register(RegisterInput{Username: "short", Email: "s@example.com", Password: "tiny"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Register(RegisterInput{Username: "odd", Email: "o@example.com", Password: "long enough", Role: "superuser"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	user, err := svc.Register(RegisterInput{Username: "casual", Email: "c@example.com", Password: "long enough"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, user.Role)
	assert.Equal(t, models.UserActive, user.Status)
	assert.NotEqual(t, "long enough", user.PasswordHash)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	t.Parallel()

	_, svc := newAuthFixture(t)

	_, err := svc.Register(RegisterInput{Username: "taken", Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterInput{Username: "taken", Email: "b@example.com", Password: "long enough"})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
}

func TestBootstrapCreatesFirstAdmin(t *testing.T) {
	t.Parallel()

	_, svc := newAuthFixture(t)

	// The requested role is ignored; the first account is always an admin.
	user, err := svc.Bootstrap(RegisterInput{
		Username: "founder",
		Email:    "f@example.com",
		Password: "long enough",
		Role:     models.RoleViewer,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	token, _, _, err := svc.Login("founder", "long enough")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestBootstrapClosedOnceUsersExist(t *testing.T) {
	t.Parallel()

	_, svc := newAuthFixture(t)

	_, err := svc.Bootstrap(RegisterInput{Username: "first", Email: "1@example.com", Password: "long enough"})
	require.NoError(t, err)

	_, err = svc.Bootstrap(RegisterInput{Username: "second", Email: "2@example.com", Password: "long enough"})
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
}

func TestLoginIssuesToken(t *testing.T) {
	t.Parallel()

	_, svc := newAuthFixture(t)

	registered, err := svc.Register(RegisterInput{
		Username: "analyst1",
		Email:    "a1@example.com",
		Password: "long enough",
		Role:     models.RoleAnalyst,
	})
	require.NoError(t, err)

	token, expiresAt, user, err := svc.Login("analyst1", "long enough")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Zero(t, user.FailedLoginAttempts)
	require.NotNil(t, user.LastActivity)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims := &models.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, registered.ID, claims.UserID)
	assert.Equal(t, "analyst1", claims.Username)
	assert.Equal(t, models.RoleAnalyst, claims.Role)
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	_, svc := newAuthFixture(t)

	// Unknown usernames and bad passwords are indistinguishable to callers.
	_, _, _, err := svc.Login("ghost", "whatever password")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	repo, svc := newAuthFixture(t)

	registered, err := svc.Register(RegisterInput{Username: "clumsy", Email: "cl@example.com", Password: "long enough"})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, _, err := svc.Login("clumsy", "wrong password")
		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
	}

	stored, err := repo.GetUserByID(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
	require.NotNil(t, stored.AccountLockedUntil)

	// Even the right password is rejected while the lock holds.
	_, _, _, err = svc.Login("clumsy", "long enough")
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))

	// Past the lockout window the account opens up again.
	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	_, _, user, err := svc.Login("clumsy", "long enough")
	require.NoError(t, err)
	assert.Zero(t, user.FailedLoginAttempts)
	assert.Nil(t, user.AccountLockedUntil)
}

func TestLoginInactiveAccount(t *testing.T) {
	t.Parallel()

	repo, svc := newAuthFixture(t)

	registered, err := svc.Register(RegisterInput{Username: "benched", Email: "b@example.com", Password: "long enough"})
	require.NoError(t, err)

	stored, err := repo.GetUserByID(registered.ID)
	require.NoError(t, err)
	stored.Status = models.UserSuspended
	require.NoError(t, repo.UpdateLoginState(stored))

	_, _, _, err = svc.Login("benched", "long enough")
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
}
