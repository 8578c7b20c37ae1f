package repository

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

type ConnectionRepository interface {
	GetByPlatform(platformID int64) (*models.PlatformConnection, error)
	List() ([]*models.PlatformConnection, error)
	Update(conn *models.PlatformConnection) error
}

type connectionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewConnectionRepository(db *sqlx.DB, logger *zap.Logger) ConnectionRepository {
	return &connectionRepository{db: db, logger: logger}
}

const connectionColumns = `id, platform_id, status, last_connected, last_disconnected,
	response_time, error_count, rate_limit_remaining, rate_limit_reset, api_version,
	created_at, updated_at`

func (r *connectionRepository) GetByPlatform(platformID int64) (*models.PlatformConnection, error) {
	var conn models.PlatformConnection
	query := `SELECT ` + connectionColumns + ` FROM platform_connections WHERE platform_id = $1`
	if err := r.db.Get(&conn, query, platformID); err != nil {
		return nil, notFound(err, "connection for platform", platformID)
	}
	return &conn, nil
}

func (r *connectionRepository) List() ([]*models.PlatformConnection, error) {
	conns := []*models.PlatformConnection{}
	query := `SELECT ` + connectionColumns + ` FROM platform_connections ORDER BY platform_id`
	if err := r.db.Select(&conns, query); err != nil {
		return nil, err
	}
	return conns, nil
}

func (r *connectionRepository) Update(conn *models.PlatformConnection) error {
	query := `UPDATE platform_connections SET status = $1, last_connected = $2,
	              last_disconnected = $3, response_time = $4, error_count = $5,
	              rate_limit_remaining = $6, rate_limit_reset = $7, api_version = $8,
	              updated_at = NOW()
	          WHERE id = $9`
	res, err := r.db.Exec(query, conn.Status, conn.LastConnected, conn.LastDisconnected,
		conn.ResponseTime, conn.ErrorCount, conn.RateLimitRemaining, conn.RateLimitReset,
		conn.APIVersion, conn.ID)
	if err != nil {
		return err
	}
	return requireRow(res, "connection", conn.ID)
}
