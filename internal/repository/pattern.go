package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

type PatternRepository interface {
	Create(pattern *models.DetectionPattern) error
	GetByID(id int64) (*models.DetectionPattern, error)
	// ListActive returns active patterns ordered by priority (highest first).
	ListActive() ([]*models.DetectionPattern, error)
	List() ([]*models.DetectionPattern, error)
	Update(pattern *models.DetectionPattern) error
	// TouchLastUsed bumps the usage timestamp. Fire-and-forget: callers log
	// failures instead of propagating them.
	TouchLastUsed(id int64) error

	CreateCategory(category *models.DrugCategory) error
	ListCategories() ([]*models.DrugCategory, error)
	AttachCategory(patternID, categoryID int64) error
}

type patternRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPatternRepository(db *sqlx.DB, logger *zap.Logger) PatternRepository {
	return &patternRepository{db: db, logger: logger}
}

const patternColumns = `id, name, pattern_type, pattern_data, description, confidence_threshold,
	is_active, priority, created_at, updated_at, last_used`

func (r *patternRepository) Create(pattern *models.DetectionPattern) error {
	query := `INSERT INTO detection_patterns (name, pattern_type, pattern_data, description,
	              confidence_threshold, is_active, priority)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	return r.db.QueryRowx(query, pattern.Name, pattern.PatternType, pattern.PatternData,
		pattern.Description, pattern.ConfidenceThreshold, pattern.IsActive, pattern.Priority).
		Scan(&pattern.ID, &pattern.CreatedAt, &pattern.UpdatedAt)
}

func (r *patternRepository) GetByID(id int64) (*models.DetectionPattern, error) {
	var pattern models.DetectionPattern
	query := `SELECT ` + patternColumns + ` FROM detection_patterns WHERE id = $1`
	if err := r.db.Get(&pattern, query, id); err != nil {
		return nil, notFound(err, "pattern", id)
	}
	if err := r.loadCategories(&pattern); err != nil {
		return nil, err
	}
	return &pattern, nil
}

func (r *patternRepository) ListActive() ([]*models.DetectionPattern, error) {
	patterns := []*models.DetectionPattern{}
	query := `SELECT ` + patternColumns + ` FROM detection_patterns WHERE is_active ORDER BY priority DESC, name`
	if err := r.db.Select(&patterns, query); err != nil {
		return nil, err
	}
	for _, p := range patterns {
		if err := r.loadCategories(p); err != nil {
			return nil, err
		}
	}
	return patterns, nil
}

func (r *patternRepository) List() ([]*models.DetectionPattern, error) {
	patterns := []*models.DetectionPattern{}
	query := `SELECT ` + patternColumns + ` FROM detection_patterns ORDER BY priority DESC, name`
	if err := r.db.Select(&patterns, query); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (r *patternRepository) Update(pattern *models.DetectionPattern) error {
	query := `UPDATE detection_patterns SET name = $1, pattern_data = $2, description = $3,
	              confidence_threshold = $4, is_active = $5, priority = $6, updated_at = NOW()
	          WHERE id = $7`
	res, err := r.db.Exec(query, pattern.Name, pattern.PatternData, pattern.Description,
		pattern.ConfidenceThreshold, pattern.IsActive, pattern.Priority, pattern.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "pattern", pattern.ID)
}

func (r *patternRepository) TouchLastUsed(id int64) error {
	_, err := r.db.Exec(`UPDATE detection_patterns SET last_used = NOW() WHERE id = $1`, id)
	return err
}

func (r *patternRepository) CreateCategory(category *models.DrugCategory) error {
	query := `INSERT INTO drug_categories (name, description, risk_level, is_active)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`
	return r.db.QueryRowx(query, category.Name, category.Description, category.RiskLevel,
		category.IsActive).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *patternRepository) ListCategories() ([]*models.DrugCategory, error) {
	categories := []*models.DrugCategory{}
	query := `SELECT id, name, description, risk_level, is_active, created_at, updated_at
	          FROM drug_categories ORDER BY name`
	if err := r.db.Select(&categories, query); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *patternRepository) AttachCategory(patternID, categoryID int64) error {
	_, err := r.db.Exec(`INSERT INTO pattern_categories (pattern_id, category_id) VALUES ($1, $2)
	                     ON CONFLICT DO NOTHING`, patternID, categoryID)
	return err
}

func (r *patternRepository) loadCategories(pattern *models.DetectionPattern) error {
	categories := []models.DrugCategory{}
	query := `SELECT c.id, c.name, c.description, c.risk_level, c.is_active, c.created_at, c.updated_at
	          FROM drug_categories c
	          JOIN pattern_categories pc ON pc.category_id = c.id
	          WHERE pc.pattern_id = $1
	          ORDER BY c.name`
	if err := r.db.Select(&categories, query, pattern.ID); err != nil {
		return err
	}
	pattern.Categories = categories
	return nil
}
