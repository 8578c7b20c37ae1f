package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

// DetectionFilter narrows List queries.
type DetectionFilter struct {
	Status     string
	Severity   string
	PlatformID int64
	AssignedTo int64
}

type DetectionRepository interface {
	// Create inserts the detection, bumps the platform's total counter, and
	// increments today's analytics rollup, all in one transaction: a crash
	// can never leave the rollup under-counted relative to the detection.
	Create(detection *models.DetectionResult, platformType string) error
	GetByID(id int64) (*models.DetectionResult, error)
	List(filter DetectionFilter) ([]*models.DetectionResult, error)
	// UpdateStatus persists a state-machine transition.
	UpdateStatus(detection *models.DetectionResult) error
}

type detectionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewDetectionRepository(db *sqlx.DB, logger *zap.Logger) DetectionRepository {
	return &detectionRepository{db: db, logger: logger}
}

const detectionColumns = `id, platform_id, pattern_id, content_text, content_url, content_id,
	author_id, author_username, confidence_score, severity_level, detected_keywords,
	status, assigned_to, reviewed_by, detected_at, reviewed_at, resolved_at`

func (r *detectionRepository) Create(detection *models.DetectionResult, platformType string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO detection_results (platform_id, pattern_id, content_text, content_url,
	              content_id, author_id, author_username, confidence_score, severity_level,
	              detected_keywords, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id, detected_at`
	err = tx.QueryRowx(query, detection.PlatformID, detection.PatternID, detection.ContentText,
		detection.ContentURL, detection.ContentID, detection.AuthorID, detection.AuthorUsername,
		detection.ConfidenceScore, detection.SeverityLevel, detection.DetectedKeywords,
		detection.Status).Scan(&detection.ID, &detection.DetectedAt)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}

	_, err = tx.Exec(`UPDATE platforms SET total_detections = total_detections + 1, updated_at = NOW()
	                  WHERE id = $1`, detection.PlatformID)
	if err != nil {
		return fmt.Errorf("failed to bump platform counter: %w", err)
	}

	today := detection.DetectedAt.UTC().Truncate(24 * time.Hour)
	if err := incrementDetectionRollup(tx, today, platformType, detection.SeverityLevel, detection.Status); err != nil {
		return fmt.Errorf("failed to increment detection rollup: %w", err)
	}

	return tx.Commit()
}

func (r *detectionRepository) GetByID(id int64) (*models.DetectionResult, error) {
	var detection models.DetectionResult
	query := `SELECT ` + detectionColumns + ` FROM detection_results WHERE id = $1`
	if err := r.db.Get(&detection, query, id); err != nil {
		return nil, notFound(err, "detection", id)
	}
	return &detection, nil
}

func (r *detectionRepository) List(filter DetectionFilter) ([]*models.DetectionResult, error) {
	detections := []*models.DetectionResult{}
	query := `SELECT ` + detectionColumns + ` FROM detection_results WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		query += fmt.Sprintf(" AND severity_level = $%d", len(args))
	}
	if filter.PlatformID != 0 {
		args = append(args, filter.PlatformID)
		query += fmt.Sprintf(" AND platform_id = $%d", len(args))
	}
	if filter.AssignedTo != 0 {
		args = append(args, filter.AssignedTo)
		query += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	query += ` ORDER BY detected_at DESC`

	if err := r.db.Select(&detections, query, args...); err != nil {
		return nil, err
	}
	return detections, nil
}

func (r *detectionRepository) UpdateStatus(detection *models.DetectionResult) error {
	query := `UPDATE detection_results SET status = $1, assigned_to = $2, reviewed_by = $3,
	              reviewed_at = $4, resolved_at = $5
	          WHERE id = $6`
	res, err := r.db.Exec(query, detection.Status, detection.AssignedTo, detection.ReviewedBy,
		detection.ReviewedAt, detection.ResolvedAt, detection.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "detection", detection.ID)
}
