package repository

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

type PlatformRepository interface {
	// Create inserts the platform and its connection row in one transaction;
	// every platform owns exactly one connection from birth.
	Create(platform *models.Platform) error
	GetByID(id int64) (*models.Platform, error)
	List(activeOnly bool) ([]*models.Platform, error)
	Update(platform *models.Platform) error
	TouchLastMonitoring(id int64) error
}

type platformRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPlatformRepository(db *sqlx.DB, logger *zap.Logger) PlatformRepository {
	return &platformRepository{db: db, logger: logger}
}

const platformColumns = `id, name, platform_type, api_endpoint, api_key, api_secret_enc,
	is_active, monitoring_enabled, rate_limit, total_detections, last_monitoring, created_at, updated_at`

func (r *platformRepository) Create(platform *models.Platform) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO platforms (name, platform_type, api_endpoint, api_key, api_secret_enc,
	              is_active, monitoring_enabled, rate_limit)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`
	err = tx.QueryRowx(query, platform.Name, platform.PlatformType, platform.APIEndpoint,
		platform.APIKey, platform.APISecretEnc, platform.IsActive, platform.MonitoringEnabled,
		platform.RateLimit).Scan(&platform.ID, &platform.CreatedAt, &platform.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert platform: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO platform_connections (platform_id, status) VALUES ($1, 'disconnected')`,
		platform.ID)
	if err != nil {
		return fmt.Errorf("failed to insert platform connection: %w", err)
	}

	return tx.Commit()
}

func (r *platformRepository) GetByID(id int64) (*models.Platform, error) {
	var platform models.Platform
	query := `SELECT ` + platformColumns + ` FROM platforms WHERE id = $1`
	if err := r.db.Get(&platform, query, id); err != nil {
		return nil, notFound(err, "platform", id)
	}
	return &platform, nil
}

func (r *platformRepository) List(activeOnly bool) ([]*models.Platform, error) {
	platforms := []*models.Platform{}
	query := `SELECT ` + platformColumns + ` FROM platforms`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`
	if err := r.db.Select(&platforms, query); err != nil {
		return nil, err
	}
	return platforms, nil
}

func (r *platformRepository) Update(platform *models.Platform) error {
	query := `UPDATE platforms SET name = $1, api_endpoint = $2, api_key = $3, api_secret_enc = $4,
	              is_active = $5, monitoring_enabled = $6, rate_limit = $7, updated_at = NOW()
	          WHERE id = $8`
	res, err := r.db.Exec(query, platform.Name, platform.APIEndpoint, platform.APIKey,
		platform.APISecretEnc, platform.IsActive, platform.MonitoringEnabled, platform.RateLimit,
		platform.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "platform", platform.ID)
}

func (r *platformRepository) TouchLastMonitoring(id int64) error {
	_, err := r.db.Exec(`UPDATE platforms SET last_monitoring = NOW(), updated_at = NOW() WHERE id = $1`, id)
	return err
}
