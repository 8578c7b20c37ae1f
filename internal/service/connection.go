package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

// ConnectionService tracks platform reachability. Pure bookkeeping: the
// collector reports outcomes, nothing here touches the network.
type ConnectionService interface {
	Get(platformID int64) (*models.PlatformConnection, error)
	List() ([]*models.PlatformConnection, error)

	Connect(platformID int64) (*models.PlatformConnection, error)
	Disconnect(platformID int64) (*models.PlatformConnection, error)
	RecordError(platformID int64) (*models.PlatformConnection, error)
	RecordSuccess(platformID int64, responseTimeMs float64) (*models.PlatformConnection, error)
	UpdateRateLimit(platformID int64, remaining int, reset time.Time) (*models.PlatformConnection, error)
	ResetErrors(platformID int64) (*models.PlatformConnection, error)
}

type connectionService struct {
	connections repository.ConnectionRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewConnectionService(connections repository.ConnectionRepository, logger *zap.Logger) ConnectionService {
	return &connectionService{
		connections: connections,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *connectionService) Get(platformID int64) (*models.PlatformConnection, error) {
	return s.connections.GetByPlatform(platformID)
}

func (s *connectionService) List() ([]*models.PlatformConnection, error) {
	return s.connections.List()
}

func (s *connectionService) Connect(platformID int64) (*models.PlatformConnection, error) {
	return s.mutate(platformID, func(conn *models.PlatformConnection) {
		conn.Connect(s.now())
	})
}

func (s *connectionService) Disconnect(platformID int64) (*models.PlatformConnection, error) {
	return s.mutate(platformID, func(conn *models.PlatformConnection) {
		conn.Disconnect(s.now())
	})
}

func (s *connectionService) RecordError(platformID int64) (*models.PlatformConnection, error) {
	return s.mutate(platformID, func(conn *models.PlatformConnection) {
		conn.RecordError()
		if conn.Status == models.ConnError {
			s.logger.Warn("Platform connection degraded to error",
				zap.Int64("platform_id", platformID),
				zap.Int("error_count", conn.ErrorCount))
		}
	})
}

func (s *connectionService) RecordSuccess(platformID int64, responseTimeMs float64) (*models.PlatformConnection, error) {
	return s.mutate(platformID, func(conn *models.PlatformConnection) {
		conn.RecordResponseTime(responseTimeMs)
	})
}

func (s *connectionService) UpdateRateLimit(platformID int64, remaining int, reset time.Time) (*models.PlatformConnection, error) {
	return s.mutate(platformID, func(conn *models.PlatformConnection) {
		conn.UpdateRateLimit(remaining, reset)
	})
}

func (s *connectionService) ResetErrors(platformID int64) (*models.PlatformConnection, error) {
	return s.mutate(platformID, func(conn *models.PlatformConnection) {
		conn.ResetErrors()
	})
}

func (s *connectionService) mutate(platformID int64, apply func(*models.PlatformConnection)) (*models.PlatformConnection, error) {
	conn, err := s.connections.GetByPlatform(platformID)
	if err != nil {
		return nil, err
	}
	apply(conn)
	if err := s.connections.Update(conn); err != nil {
		return nil, fmt.Errorf("failed to persist connection: %w", err)
	}
	return conn, nil
}
