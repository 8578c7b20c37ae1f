package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/apperr"
)

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	s := &MonitoringSession{Status: SessionActive}
	require.NoError(t, s.Pause())
	assert.Equal(t, SessionPaused, s.Status)

	s.Start(now)
	assert.Equal(t, SessionActive, s.Status)
	assert.Equal(t, now, s.StartedAt)
	assert.Nil(t, s.EndedAt)

	s.Stop(now)
	assert.Equal(t, SessionStopped, s.Status)
	assert.Equal(t, now, *s.EndedAt)
	assert.True(t, s.Closed())

	// A stopped session cannot be paused, only restarted.
	err := s.Pause()
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	s.Start(now.Add(time.Hour))
	assert.Equal(t, SessionActive, s.Status)
	assert.Nil(t, s.EndedAt)
}

func TestSessionUpdateStatistics(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	s := &MonitoringSession{Status: SessionActive}
	require.NoError(t, s.UpdateStatistics(10, 2, 1, now))
	require.NoError(t, s.UpdateStatistics(5, 0, 0, now.Add(time.Minute)))
	assert.Equal(t, int64(15), s.ContentCollected)
	assert.Equal(t, int64(2), s.DetectionsFound)
	assert.Equal(t, int64(1), s.ErrorsEncountered)
	assert.Equal(t, now.Add(time.Minute), s.LastActivity)
}

func TestSessionUpdateStatisticsRejectedWhenClosed(t *testing.T) {
	t.Parallel()

	now := time.Now()

	for _, status := range []string{SessionStopped, SessionCompleted} {
		s := &MonitoringSession{Status: status}
		err := s.UpdateStatistics(1, 0, 0, now)
		require.Error(t, err, "status %s", status)
		assert.True(t, apperr.IsInvalidState(err))
		assert.Zero(t, s.ContentCollected)
	}

	// Paused and errored sessions still accept counters.
	for _, status := range []string{SessionPaused, SessionError} {
		s := &MonitoringSession{Status: status}
		require.NoError(t, s.UpdateStatistics(1, 0, 0, now), "status %s", status)
	}
}

func TestSessionUpdateStatisticsNegativeIncrements(t *testing.T) {
	t.Parallel()

	s := &MonitoringSession{Status: SessionActive}
	err := s.UpdateStatistics(-1, 0, 0, time.Now())
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Zero(t, s.ContentCollected)
}

func TestSessionComplete(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := &MonitoringSession{Status: SessionActive}
	s.Complete(now)
	assert.Equal(t, SessionCompleted, s.Status)
	assert.True(t, s.Closed())
	assert.Equal(t, now, *s.EndedAt)
}
