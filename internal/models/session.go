package models

import (
	"time"

	"backend/internal/apperr"
)

// Monitoring session statuses.
const (
	SessionActive    = "active"
	SessionPaused    = "paused"
	SessionStopped   = "stopped"
	SessionError     = "error"
	SessionCompleted = "completed"
)

// MonitoringSession is a bounded unit of content collection against one
// platform. Counters only grow until the session is stopped.
type MonitoringSession struct {
	ID         int64 `db:"id" json:"id"`
	PlatformID int64 `db:"platform_id" json:"platform_id"`
	UserID     int64 `db:"user_id" json:"user_id"`

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	Status      string `db:"status" json:"status"`

	TargetChannels        string `db:"target_channels" json:"target_channels,omitempty"` // comma-separated
	Keywords              string `db:"keywords" json:"keywords,omitempty"`               // comma-separated
	MonitoringInterval    int    `db:"monitoring_interval" json:"monitoring_interval"`   // seconds
	MaxContentPerSession  int    `db:"max_content_per_session" json:"max_content_per_session"`

	ContentCollected  int64 `db:"content_collected" json:"content_collected"`
	DetectionsFound   int64 `db:"detections_found" json:"detections_found"`
	ErrorsEncountered int64 `db:"errors_encountered" json:"errors_encountered"`

	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	LastActivity time.Time  `db:"last_activity" json:"last_activity"`
	EndedAt      *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// Closed reports whether the session no longer accepts statistics updates.
func (s *MonitoringSession) Closed() bool {
	return s.Status == SessionStopped || s.Status == SessionCompleted
}

// Start (re)activates the session and resets its start time. Restarting a
// stopped session clears the end marker.
func (s *MonitoringSession) Start(now time.Time) {
	s.Status = SessionActive
	s.StartedAt = now
	s.EndedAt = nil
}

// Pause suspends collection without closing the session.
func (s *MonitoringSession) Pause() error {
	if s.Closed() {
		return apperr.InvalidState("session %d is %s", s.ID, s.Status)
	}
	s.Status = SessionPaused
	return nil
}

// Stop closes the session. Further statistics updates are a caller error.
func (s *MonitoringSession) Stop(now time.Time) {
	s.Status = SessionStopped
	s.EndedAt = &now
}

// Complete marks the session as having reached its collection bound. Closed
// like Stop; the supervisor calls this instead of Stop when the cap is hit.
func (s *MonitoringSession) Complete(now time.Time) {
	s.Status = SessionCompleted
	s.EndedAt = &now
}

// Fail marks the session as errored. It stays open for a later restart.
func (s *MonitoringSession) Fail() {
	s.Status = SessionError
}

// UpdateStatistics additively bumps the session counters, once per collected
// batch. Rejected once the session is closed.
func (s *MonitoringSession) UpdateStatistics(contentCount, detections, errors int64, now time.Time) error {
	if s.Closed() {
		return apperr.InvalidState("session %d is %s, statistics are frozen", s.ID, s.Status)
	}
	if contentCount < 0 || detections < 0 || errors < 0 {
		return apperr.Validation("statistics increments must be non-negative")
	}
	s.ContentCollected += contentCount
	s.DetectionsFound += detections
	s.ErrorsEncountered += errors
	s.LastActivity = now
	return nil
}
