package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/models"
	"backend/internal/repository"
)

// SessionService drives the monitoring session lifecycle.
type SessionService interface {
	Create(session *models.MonitoringSession) (*models.MonitoringSession, error)
	Get(id int64) (*models.MonitoringSession, error)
	List(userID int64) ([]*models.MonitoringSession, error)
	ListActive() ([]*models.MonitoringSession, error)

	Start(id int64) (*models.MonitoringSession, error)
	Pause(id int64) (*models.MonitoringSession, error)
	Stop(id int64) (*models.MonitoringSession, error)
	// UpdateStatistics applies one batch of collection counters. Rejected
	// with InvalidStateError once the session is closed.
	UpdateStatistics(id int64, contentCount, detections, errors int64) (*models.MonitoringSession, error)
	// TouchActivity records a completed empty poll so the session's own
	// interval keeps pacing it.
	TouchActivity(id int64) error
}

type sessionService struct {
	sessions   repository.SessionRepository
	platforms  repository.PlatformRepository
	dispatcher *Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewSessionService(
	sessions repository.SessionRepository,
	platforms repository.PlatformRepository,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		sessions:   sessions,
		platforms:  platforms,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *sessionService) Create(session *models.MonitoringSession) (*models.MonitoringSession, error) {
	platform, err := s.platforms.GetByID(session.PlatformID)
	if err != nil {
		return nil, err
	}
	if !platform.MonitoringEnabled {
		return nil, apperr.Validation("monitoring is disabled for platform %q", platform.Name)
	}

	if session.MonitoringInterval <= 0 {
		session.MonitoringInterval = 300
	}
	if session.MaxContentPerSession <= 0 {
		session.MaxContentPerSession = 1000
	}
	session.Status = models.SessionActive

	if err := s.sessions.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.dispatcher.Dispatch(SessionCreated{Session: session, PlatformType: platform.PlatformType})
	return session, nil
}

func (s *sessionService) Get(id int64) (*models.MonitoringSession, error) {
	return s.sessions.GetByID(id)
}

func (s *sessionService) List(userID int64) ([]*models.MonitoringSession, error) {
	return s.sessions.List(userID)
}

func (s *sessionService) ListActive() ([]*models.MonitoringSession, error) {
	return s.sessions.ListActive()
}

func (s *sessionService) Start(id int64) (*models.MonitoringSession, error) {
	return s.mutate(id, func(session *models.MonitoringSession) error {
		session.Start(s.now())
		return nil
	})
}

func (s *sessionService) Pause(id int64) (*models.MonitoringSession, error) {
	return s.mutate(id, func(session *models.MonitoringSession) error {
		return session.Pause()
	})
}

func (s *sessionService) Stop(id int64) (*models.MonitoringSession, error) {
	return s.mutate(id, func(session *models.MonitoringSession) error {
		session.Stop(s.now())
		return nil
	})
}

func (s *sessionService) UpdateStatistics(id int64, contentCount, detections, errors int64) (*models.MonitoringSession, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}

	// Validate against the in-memory state machine first; the storage-level
	// increment below is atomic but unguarded.
	if err := session.UpdateStatistics(contentCount, detections, errors, s.now()); err != nil {
		return nil, err
	}

	if err := s.sessions.AddStatistics(id, contentCount, detections, errors); err != nil {
		return nil, err
	}

	// Sessions that hit their collection cap are completed, not left running.
	if session.MaxContentPerSession > 0 && session.ContentCollected >= int64(session.MaxContentPerSession) {
		session.Complete(s.now())
		if err := s.sessions.Update(session); err != nil {
			return nil, fmt.Errorf("failed to complete session: %w", err)
		}
	}

	return session, nil
}

func (s *sessionService) TouchActivity(id int64) error {
	return s.sessions.TouchActivity(id)
}

func (s *sessionService) mutate(id int64, apply func(*models.MonitoringSession) error) (*models.MonitoringSession, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := apply(session); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return session, nil
}
