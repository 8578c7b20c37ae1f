package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/matcher"
	"backend/internal/models"
	"backend/internal/repository"
)

func newDetectionFixture(t *testing.T) (*fakeDetectionRepo, *fakePatternRepo, *fakeAuthRepo, *fakeAnalyticsRepo, *captureHandler, DetectionService) {
	t.Helper()

	rollup := newFakeAnalyticsRepo()
	detections := newFakeDetectionRepo(rollup)
	patterns := newFakePatternRepo(&models.DetectionPattern{
		ID:                  1,
		Name:                "street-names",
		PatternType:         models.PatternKeyword,
		PatternData:         "heroin,cocaine",
		ConfidenceThreshold: 0.7,
		IsActive:            true,
	})
	platforms := newFakePlatformRepo(&models.Platform{
		ID:                1,
		Name:              "main-channel",
		PlatformType:      models.PlatformTelegram,
		IsActive:          true,
		MonitoringEnabled: true,
	})
	users := newFakeAuthRepo(&models.User{ID: 7, Username: "reviewer", Role: models.RoleAnalyst, Status: models.UserActive})

	capture := &captureHandler{}
	dispatcher := NewDispatcher(zap.NewNop(), capture)

	svc := NewDetectionService(detections, patterns, platforms, users, matcher.New(), dispatcher, zap.NewNop())
	return detections, patterns, users, rollup, capture, svc
}

func fixturePattern(t *testing.T, patterns *fakePatternRepo) (*models.DetectionPattern, *models.Platform) {
	t.Helper()
	pattern, err := patterns.GetByID(1)
	require.NoError(t, err)
	platform := &models.Platform{ID: 1, PlatformType: models.PlatformTelegram}
	return pattern, platform
}

func TestCreateFromContentPersistsAndEmits(t *testing.T) {
	t.Parallel()

	_, patterns, _, rollup, capture, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	detection, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		SessionID:   1,
		ContentText: "cocaine and heroin available",
		ContentID:   "msg-1",
	})
	require.NoError(t, err)
	require.NotNil(t, detection)

	assert.NotZero(t, detection.ID)
	assert.Equal(t, models.DetectionPending, detection.Status)
	assert.InDelta(t, 1.0, detection.ConfidenceScore, 1e-9)
	assert.Equal(t, models.SeverityCritical, detection.SeverityLevel)
	assert.Equal(t, "heroin,cocaine", detection.DetectedKeywords)

	// A critical detection raises an alert on top of the creation event.
	events := capture.all()
	require.Len(t, events, 2)
	created, ok := events[0].(DetectionCreated)
	require.True(t, ok)
	assert.Equal(t, models.PlatformTelegram, created.PlatformType)
	alert, ok := events[1].(AlertRaised)
	require.True(t, ok)
	assert.Equal(t, "critical_detection", alert.AlertType)

	// The creation transaction counted the rollup buckets.
	assert.Equal(t, int64(1), rollup.detections.TelegramDetections)
	assert.Equal(t, int64(1), rollup.detections.CriticalSeverity)
	assert.Equal(t, int64(1), rollup.detections.PendingReview)

	// Usage bookkeeping touched the pattern.
	assert.Equal(t, []int64{1}, patterns.touched)
}

func TestCreateFromContentBelowThreshold(t *testing.T) {
	t.Parallel()

	detections, patterns, _, _, capture, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	detection, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		SessionID:   1,
		ContentText: "selling heroin cheap",
	})
	require.NoError(t, err)
	assert.Nil(t, detection, "half the keywords is below a 0.7 threshold")
	assert.Empty(t, detections.detections)
	assert.Empty(t, capture.all())
}

func TestCreateFromContentEmptyContent(t *testing.T) {
	t.Parallel()

	_, patterns, _, _, _, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	_, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{SessionID: 1})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestEvaluateDoesNotPersist(t *testing.T) {
	t.Parallel()

	detections, _, _, _, capture, svc := newDetectionFixture(t)

	pattern, res, err := svc.Evaluate(1, "cocaine and heroin available")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pattern.ID)
	assert.True(t, res.Matched)
	assert.Empty(t, detections.detections)
	assert.Empty(t, capture.all())
}

func TestAssignValidatesUserAndResetsStatus(t *testing.T) {
	t.Parallel()

	_, patterns, _, _, capture, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	created, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		ContentText: "cocaine and heroin available",
	})
	require.NoError(t, err)

	_, err = svc.Assign(created.ID, 999)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err), "unknown assignee is rejected")

	reviewed, err := svc.Review(created.ID, 7, models.DetectionConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.DetectionConfirmed, reviewed.Status)

	// Assigning always sends the detection back to pending, even after review.
	assigned, err := svc.Assign(created.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.DetectionPending, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, int64(7), *assigned.AssignedTo)

	var transitions []DetectionTransitioned
	for _, event := range capture.all() {
		if tr, ok := event.(DetectionTransitioned); ok {
			transitions = append(transitions, tr)
		}
	}
	require.Len(t, transitions, 2)
	assert.Equal(t, models.DetectionPending, transitions[0].From)
	assert.Equal(t, models.DetectionConfirmed, transitions[1].From)
}

func TestReviewRejectsInvalidStatus(t *testing.T) {
	t.Parallel()

	_, patterns, _, _, _, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	created, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		ContentText: "cocaine and heroin available",
	})
	require.NoError(t, err)

	_, err = svc.Review(created.ID, 7, "resolved")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Review(created.ID, 7, "bogus")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestEscalateEmitsAlert(t *testing.T) {
	t.Parallel()

	_, patterns, _, _, capture, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	created, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		ContentText: "cocaine and heroin available",
	})
	require.NoError(t, err)

	escalated, err := svc.Escalate(created.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, models.DetectionEscalated, escalated.Status)

	var alerts []AlertRaised
	for _, event := range capture.all() {
		if alert, ok := event.(AlertRaised); ok {
			alerts = append(alerts, alert)
		}
	}
	// One from the critical creation, one from the escalation.
	require.Len(t, alerts, 2)
	assert.Equal(t, "escalation", alerts[1].AlertType)
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	_, patterns, _, _, _, svc := newDetectionFixture(t)
	pattern, platform := fixturePattern(t, patterns)

	first, err := svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		ContentText: "cocaine and heroin available",
	})
	require.NoError(t, err)
	_, err = svc.CreateFromContent(pattern, platform, &models.CollectedContent{
		ContentText: "heroin and cocaine again",
	})
	require.NoError(t, err)

	_, err = svc.Review(first.ID, 7, models.DetectionConfirmed)
	require.NoError(t, err)

	pending, err := svc.List(repository.DetectionFilter{Status: models.DetectionPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	confirmed, err := svc.List(repository.DetectionFilter{Status: models.DetectionConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 1)
}

func TestGetUnknownDetection(t *testing.T) {
	t.Parallel()

	_, _, _, _, _, svc := newDetectionFixture(t)

	_, err := svc.Get(42)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
