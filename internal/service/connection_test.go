package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/models"
)

func newConnectionFixture(t *testing.T) (*fakeConnectionRepo, ConnectionService) {
	t.Helper()
	repo := newFakeConnectionRepo(&models.PlatformConnection{
		ID:         1,
		PlatformID: 1,
		Status:     models.ConnConnected,
	})
	return repo, NewConnectionService(repo, zap.NewNop())
}

func TestConnectionErrorThreshold(t *testing.T) {
	t.Parallel()

	_, svc := newConnectionFixture(t)

	for i := 0; i < 4; i++ {
		conn, err := svc.RecordError(1)
		require.NoError(t, err)
		assert.Equal(t, models.ConnConnected, conn.Status)
	}

	conn, err := svc.RecordError(1)
	require.NoError(t, err)
	assert.Equal(t, models.ConnError, conn.Status)
	assert.Equal(t, 5, conn.ErrorCount)

	// ResetErrors clears the counter without restoring health.
	conn, err = svc.ResetErrors(1)
	require.NoError(t, err)
	assert.Zero(t, conn.ErrorCount)
	assert.Equal(t, models.ConnError, conn.Status)
	assert.False(t, conn.Healthy())

	// Only a reconnect recovers the connection.
	conn, err = svc.Connect(1)
	require.NoError(t, err)
	assert.Equal(t, models.ConnConnected, conn.Status)
	assert.True(t, conn.Healthy())
}

func TestConnectionRateLimit(t *testing.T) {
	t.Parallel()

	repo, svc := newConnectionFixture(t)

	conn, err := svc.UpdateRateLimit(1, 0, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.ConnRateLimited, conn.Status)

	stored, err := repo.GetByPlatform(1)
	require.NoError(t, err)
	assert.Equal(t, models.ConnRateLimited, stored.Status)

	// A non-zero remaining budget alone does not lift the limit.
	conn, err = svc.UpdateRateLimit(1, 50, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.ConnRateLimited, conn.Status)

	conn, err = svc.Connect(1)
	require.NoError(t, err)
	assert.Equal(t, models.ConnConnected, conn.Status)
}

func TestConnectionRecordSuccess(t *testing.T) {
	t.Parallel()

	_, svc := newConnectionFixture(t)

	conn, err := svc.RecordSuccess(1, 120.5)
	require.NoError(t, err)
	require.NotNil(t, conn.ResponseTime)
	assert.InDelta(t, 120.5, *conn.ResponseTime, 1e-9)
}

func TestConnectionUnknownPlatform(t *testing.T) {
	t.Parallel()

	_, svc := newConnectionFixture(t)

	_, err := svc.Get(99)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
