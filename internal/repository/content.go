package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

type ContentRepository interface {
	Create(content *models.CollectedContent) error
	GetByID(id int64) (*models.CollectedContent, error)
	ListBySession(sessionID int64) ([]*models.CollectedContent, error)
	// UpdateFlags persists the suspicious/processed flags, the only mutable
	// fields once content is stored.
	UpdateFlags(content *models.CollectedContent) error
}

type contentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewContentRepository(db *sqlx.DB, logger *zap.Logger) ContentRepository {
	return &contentRepository{db: db, logger: logger}
}

const contentColumns = `id, session_id, content_type, content_id, content_text, content_url,
	author_id, author_username, channel_id, channel_name, is_suspicious, confidence_score,
	detected_keywords, posted_at, collected_at, processed`

func (r *contentRepository) Create(content *models.CollectedContent) error {
	query := `INSERT INTO collected_content (session_id, content_type, content_id, content_text,
	              content_url, author_id, author_username, channel_id, channel_name, is_suspicious,
	              confidence_score, detected_keywords, posted_at, processed)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id, collected_at`
	return r.db.QueryRowx(query, content.SessionID, content.ContentType, content.ContentID,
		content.ContentText, content.ContentURL, content.AuthorID, content.AuthorUsername,
		content.ChannelID, content.ChannelName, content.IsSuspicious, content.ConfidenceScore,
		content.DetectedKeywords, content.PostedAt, content.Processed).
		Scan(&content.ID, &content.CollectedAt)
}

func (r *contentRepository) GetByID(id int64) (*models.CollectedContent, error) {
	var content models.CollectedContent
	query := `SELECT ` + contentColumns + ` FROM collected_content WHERE id = $1`
	if err := r.db.Get(&content, query, id); err != nil {
		return nil, notFound(err, "content", id)
	}
	return &content, nil
}

func (r *contentRepository) ListBySession(sessionID int64) ([]*models.CollectedContent, error) {
	items := []*models.CollectedContent{}
	query := `SELECT ` + contentColumns + ` FROM collected_content
	          WHERE session_id = $1 ORDER BY collected_at DESC`
	if err := r.db.Select(&items, query, sessionID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contentRepository) UpdateFlags(content *models.CollectedContent) error {
	query := `UPDATE collected_content SET is_suspicious = $1, confidence_score = $2,
	              detected_keywords = $3, processed = $4
	          WHERE id = $5`
	res, err := r.db.Exec(query, content.IsSuspicious, content.ConfidenceScore,
		content.DetectedKeywords, content.Processed, content.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "content", content.ID)
}
