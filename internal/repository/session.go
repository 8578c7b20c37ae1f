package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

type SessionRepository interface {
	Create(session *models.MonitoringSession) error
	GetByID(id int64) (*models.MonitoringSession, error)
	List(userID int64) ([]*models.MonitoringSession, error)
	ListActive() ([]*models.MonitoringSession, error)
	Update(session *models.MonitoringSession) error
	// AddStatistics applies counter increments in place at the storage layer,
	// avoiding lost updates under concurrent batches.
	AddStatistics(id int64, contentCount, detections, errors int64) error
	// TouchActivity bumps last_activity without changing any counters.
	TouchActivity(id int64) error
}

type sessionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSessionRepository(db *sqlx.DB, logger *zap.Logger) SessionRepository {
	return &sessionRepository{db: db, logger: logger}
}

const sessionColumns = `id, platform_id, user_id, name, description, status, target_channels,
	keywords, monitoring_interval, max_content_per_session, content_collected, detections_found,
	errors_encountered, started_at, last_activity, ended_at`

func (r *sessionRepository) Create(session *models.MonitoringSession) error {
	query := `INSERT INTO monitoring_sessions (platform_id, user_id, name, description, status,
	              target_channels, keywords, monitoring_interval, max_content_per_session)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, started_at, last_activity`
	return r.db.QueryRowx(query, session.PlatformID, session.UserID, session.Name,
		session.Description, session.Status, session.TargetChannels, session.Keywords,
		session.MonitoringInterval, session.MaxContentPerSession).
		Scan(&session.ID, &session.StartedAt, &session.LastActivity)
}

func (r *sessionRepository) GetByID(id int64) (*models.MonitoringSession, error) {
	var session models.MonitoringSession
	query := `SELECT ` + sessionColumns + ` FROM monitoring_sessions WHERE id = $1`
	if err := r.db.Get(&session, query, id); err != nil {
		return nil, notFound(err, "session", id)
	}
	return &session, nil
}

func (r *sessionRepository) List(userID int64) ([]*models.MonitoringSession, error) {
	sessions := []*models.MonitoringSession{}
	query := `SELECT ` + sessionColumns + ` FROM monitoring_sessions`
	var err error
	if userID != 0 {
		err = r.db.Select(&sessions, query+` WHERE user_id = $1 ORDER BY started_at DESC`, userID)
	} else {
		err = r.db.Select(&sessions, query+` ORDER BY started_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) ListActive() ([]*models.MonitoringSession, error) {
	sessions := []*models.MonitoringSession{}
	query := `SELECT ` + sessionColumns + ` FROM monitoring_sessions WHERE status = $1 ORDER BY started_at`
	if err := r.db.Select(&sessions, query, models.SessionActive); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) Update(session *models.MonitoringSession) error {
	query := `UPDATE monitoring_sessions SET status = $1, started_at = $2, last_activity = NOW(),
	              ended_at = $3
	          WHERE id = $4`
	res, err := r.db.Exec(query, session.Status, session.StartedAt, session.EndedAt, session.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "session", session.ID)
}

func (r *sessionRepository) AddStatistics(id int64, contentCount, detections, errors int64) error {
	query := `UPDATE monitoring_sessions SET
	              content_collected = content_collected + $1,
	              detections_found = detections_found + $2,
	              errors_encountered = errors_encountered + $3,
	              last_activity = NOW()
	          WHERE id = $4`
	res, err := r.db.Exec(query, contentCount, detections, errors, id)
	if err != nil {
		return fmt.Errorf("failed to add session statistics: %w", err)
	}
	return requireRow(res, "session", id)
}

func (r *sessionRepository) TouchActivity(id int64) error {
	res, err := r.db.Exec(`UPDATE monitoring_sessions SET last_activity = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to touch session activity: %w", err)
	}
	return requireRow(res, "session", id)
}
