package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/matcher"
	"backend/internal/models"
	"backend/internal/repository"
)

// DetectionService runs pattern evaluation and drives the detection review
// state machine. Every state change flows back through explicit events.
type DetectionService interface {
	// Evaluate scores content against one pattern without persisting
	// anything. Exposed for the pattern test endpoint.
	Evaluate(patternID int64, content string) (*models.DetectionPattern, matcher.Result, error)
	// CreateFromContent evaluates content against a pattern and, on a match,
	// persists a DetectionResult and emits DetectionCreated (plus AlertRaised
	// for critical severities). Returns nil detection when below threshold.
	CreateFromContent(pattern *models.DetectionPattern, platform *models.Platform, content *models.CollectedContent) (*models.DetectionResult, error)

	Get(id int64) (*models.DetectionResult, error)
	List(filter repository.DetectionFilter) ([]*models.DetectionResult, error)

	Assign(detectionID, userID int64) (*models.DetectionResult, error)
	Review(detectionID, reviewerID int64, status string) (*models.DetectionResult, error)
	Escalate(detectionID, userID int64) (*models.DetectionResult, error)
	MarkFalsePositive(detectionID, reviewerID int64) (*models.DetectionResult, error)
	Resolve(detectionID, userID int64) (*models.DetectionResult, error)
}

type detectionService struct {
	detections repository.DetectionRepository
	patterns   repository.PatternRepository
	platforms  repository.PlatformRepository
	users      repository.AuthRepository
	matcher    *matcher.Matcher
	dispatcher *Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewDetectionService(
	detections repository.DetectionRepository,
	patterns repository.PatternRepository,
	platforms repository.PlatformRepository,
	users repository.AuthRepository,
	m *matcher.Matcher,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) DetectionService {
	return &detectionService{
		detections: detections,
		patterns:   patterns,
		platforms:  platforms,
		users:      users,
		matcher:    m,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *detectionService) Evaluate(patternID int64, content string) (*models.DetectionPattern, matcher.Result, error) {
	pattern, err := s.patterns.GetByID(patternID)
	if err != nil {
		return nil, matcher.Result{}, err
	}

	res, err := s.matcher.Evaluate(pattern, content)
	if err != nil {
		return nil, matcher.Result{}, err
	}

	// Usage bookkeeping is fire-and-forget, not transactional with the match.
	if err := s.patterns.TouchLastUsed(pattern.ID); err != nil {
		s.logger.Warn("Failed to update pattern last_used", zap.Int64("pattern_id", pattern.ID), zap.Error(err))
	}

	return pattern, res, nil
}

func (s *detectionService) CreateFromContent(pattern *models.DetectionPattern, platform *models.Platform, content *models.CollectedContent) (*models.DetectionResult, error) {
	res, err := s.matcher.Evaluate(pattern, content.ContentText)
	if err != nil {
		return nil, err
	}

	if err := s.patterns.TouchLastUsed(pattern.ID); err != nil {
		s.logger.Warn("Failed to update pattern last_used", zap.Int64("pattern_id", pattern.ID), zap.Error(err))
	}

	if !res.Matched {
		return nil, nil
	}

	detection := &models.DetectionResult{
		PlatformID:       platform.ID,
		PatternID:        pattern.ID,
		ContentText:      content.ContentText,
		ContentURL:       content.ContentURL,
		ContentID:        content.ContentID,
		AuthorID:         content.AuthorID,
		AuthorUsername:   content.AuthorUsername,
		ConfidenceScore:  res.Confidence,
		SeverityLevel:    models.SeverityForConfidence(res.Confidence, pattern.HighestRisk()),
		DetectedKeywords: strings.Join(res.DetectedKeywords, ","),
		Status:           models.DetectionPending,
	}

	if err := s.detections.Create(detection, platform.PlatformType); err != nil {
		return nil, fmt.Errorf("failed to create detection: %w", err)
	}

	events := []any{DetectionCreated{Detection: detection, PlatformType: platform.PlatformType}}
	if detection.SeverityLevel == models.SeverityCritical {
		events = append(events, AlertRaised{Detection: detection, AlertType: "critical_detection"})
	}
	s.dispatcher.Dispatch(events...)

	return detection, nil
}

func (s *detectionService) Get(id int64) (*models.DetectionResult, error) {
	return s.detections.GetByID(id)
}

func (s *detectionService) List(filter repository.DetectionFilter) ([]*models.DetectionResult, error) {
	return s.detections.List(filter)
}

func (s *detectionService) Assign(detectionID, userID int64) (*models.DetectionResult, error) {
	if _, err := s.users.GetUserByID(userID); err != nil {
		return nil, err
	}
	return s.transition(detectionID, func(d *models.DetectionResult) []any {
		d.AssignToUser(userID)
		return nil
	})
}

func (s *detectionService) Review(detectionID, reviewerID int64, status string) (*models.DetectionResult, error) {
	if !models.ValidReviewStatus(status) {
		return nil, apperr.Validation("invalid review status %q", status)
	}
	return s.transition(detectionID, func(d *models.DetectionResult) []any {
		d.MarkReviewed(reviewerID, status, s.now())
		return nil
	})
}

func (s *detectionService) Escalate(detectionID, userID int64) (*models.DetectionResult, error) {
	return s.transition(detectionID, func(d *models.DetectionResult) []any {
		d.Escalate(userID)
		return []any{AlertRaised{Detection: d, AlertType: "escalation"}}
	})
}

func (s *detectionService) MarkFalsePositive(detectionID, reviewerID int64) (*models.DetectionResult, error) {
	return s.transition(detectionID, func(d *models.DetectionResult) []any {
		d.MarkReviewed(reviewerID, models.DetectionFalsePositive, s.now())
		return nil
	})
}

func (s *detectionService) Resolve(detectionID, userID int64) (*models.DetectionResult, error) {
	return s.transition(detectionID, func(d *models.DetectionResult) []any {
		d.Resolve(userID, s.now())
		return nil
	})
}

// transition loads a detection, applies a state-machine mutation, persists
// it, and dispatches the transition event plus any extras the mutation
// produced.
func (s *detectionService) transition(detectionID int64, mutate func(*models.DetectionResult) []any) (*models.DetectionResult, error) {
	detection, err := s.detections.GetByID(detectionID)
	if err != nil {
		return nil, err
	}

	from := detection.Status
	extra := mutate(detection)

	if err := s.detections.UpdateStatus(detection); err != nil {
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}

	events := []any{DetectionTransitioned{Detection: detection, From: from, At: s.now()}}
	events = append(events, extra...)
	s.dispatcher.Dispatch(events...)

	return detection, nil
}
