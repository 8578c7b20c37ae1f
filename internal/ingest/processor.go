package ingest

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"backend/internal/collector"
	"backend/internal/config"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"
)

// Processor drives the monitoring sessions: it polls the collector for each
// active session, stores what comes back, runs the content through the
// active patterns and keeps the session and connection counters honest.
type Processor struct {
	fetcher     collector.Fetcher
	sessions    service.SessionService
	detections  service.DetectionService
	connections service.ConnectionService
	patterns    repository.PatternRepository
	platforms   repository.PlatformRepository
	content     repository.ContentRepository
	dispatcher  *service.Dispatcher
	logger      *zap.Logger
	cfg         config.CollectorConfig
	now         func() time.Time
}

func NewProcessor(
	fetcher collector.Fetcher,
	sessions service.SessionService,
	detections service.DetectionService,
	connections service.ConnectionService,
	patterns repository.PatternRepository,
	platforms repository.PlatformRepository,
	content repository.ContentRepository,
	dispatcher *service.Dispatcher,
	cfg config.CollectorConfig,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		fetcher:     fetcher,
		sessions:    sessions,
		detections:  detections,
		connections: connections,
		patterns:    patterns,
		platforms:   platforms,
		content:     content,
		dispatcher:  dispatcher,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Run polls on the configured interval until the context is cancelled.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("Ingest processor started",
		zap.Int64("poll_interval_seconds", p.cfg.PollIntervalSeconds))

	ticker := time.NewTicker(time.Duration(p.cfg.PollIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Ingest processor stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one collection pass over every active session.
func (p *Processor) tick(ctx context.Context) {
	active, err := p.sessions.ListActive()
	if err != nil {
		p.logger.Error("Failed to list active sessions", zap.Error(err))
		return
	}
	if len(active) == 0 {
		p.logger.Debug("No active monitoring sessions")
		return
	}

	patterns, err := p.patterns.ListActive()
	if err != nil {
		p.logger.Error("Failed to list active patterns", zap.Error(err))
		return
	}

	for _, session := range active {
		if !p.due(session) {
			continue
		}
		p.collectSession(ctx, session, patterns)
	}
}

// due reports whether the session's own monitoring interval has elapsed
// since its last activity. Sessions can poll slower than the global tick,
// never faster.
func (p *Processor) due(session *models.MonitoringSession) bool {
	if session.MonitoringInterval <= 0 {
		return true
	}
	next := session.LastActivity.Add(time.Duration(session.MonitoringInterval) * time.Second)
	return !p.now().Before(next)
}

// collectSession runs one collection batch for a session and applies the
// resulting statistics in a single update.
func (p *Processor) collectSession(ctx context.Context, session *models.MonitoringSession, patterns []*models.DetectionPattern) {
	platform, err := p.platforms.GetByID(session.PlatformID)
	if err != nil {
		p.logger.Error("Failed to load platform for session",
			zap.Int64("session_id", session.ID), zap.Error(err))
		return
	}

	conn, err := p.connections.Get(platform.ID)
	if err != nil {
		p.logger.Error("Failed to load connection for platform",
			zap.Int64("platform_id", platform.ID), zap.Error(err))
		return
	}
	if !conn.Healthy() {
		p.logger.Warn("Skipping session, connection is not healthy",
			zap.Int64("session_id", session.ID),
			zap.String("platform", platform.PlatformType),
			zap.String("connection_status", conn.Status))
		return
	}

	channels := splitList(session.TargetChannels)
	if len(channels) == 0 {
		channels = []string{""}
	}

	var collected, detections, errors int64
	for _, channel := range channels {
		fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		started := p.now()
		items, rateLimit, err := p.fetcher.FetchContent(fetchCtx, platform.PlatformType, channel, p.cfg.BatchSize)
		cancel()

		if rateLimit != nil {
			reset := p.now().Add(time.Minute)
			if rateLimit.ResetAt != nil {
				reset = *rateLimit.ResetAt
			}
			if _, err := p.connections.UpdateRateLimit(platform.ID, rateLimit.Remaining, reset); err != nil {
				p.logger.Error("Failed to update rate limit", zap.Error(err))
			}
		}

		if err != nil {
			p.logger.Error("Failed to fetch content",
				zap.Int64("session_id", session.ID),
				zap.String("channel", channel),
				zap.Error(err))
			errors++
			if _, err := p.connections.RecordError(platform.ID); err != nil {
				p.logger.Error("Failed to record connection error", zap.Error(err))
			}
			continue
		}

		elapsed := float64(p.now().Sub(started).Milliseconds())
		if _, err := p.connections.RecordSuccess(platform.ID, elapsed); err != nil {
			p.logger.Error("Failed to record connection success", zap.Error(err))
		}

		for _, item := range items {
			stored, found, err := p.processItem(session, platform, patterns, item)
			if err != nil {
				p.logger.Error("Failed to process collected item",
					zap.Int64("session_id", session.ID),
					zap.String("content_id", item.ContentID),
					zap.Error(err))
				errors++
				continue
			}
			if stored {
				collected++
			}
			if found {
				detections++
			}
		}
	}

	if collected > 0 || detections > 0 || errors > 0 {
		if _, err := p.sessions.UpdateStatistics(session.ID, collected, detections, errors); err != nil {
			p.logger.Error("Failed to update session statistics",
				zap.Int64("session_id", session.ID), zap.Error(err))
		}
	} else {
		// Empty batches still count as activity, otherwise due() would keep
		// polling the session on every global tick.
		if err := p.sessions.TouchActivity(session.ID); err != nil {
			p.logger.Error("Failed to touch session activity",
				zap.Int64("session_id", session.ID), zap.Error(err))
		}
	}
	if err := p.platforms.TouchLastMonitoring(platform.ID); err != nil {
		p.logger.Error("Failed to touch platform monitoring timestamp", zap.Error(err))
	}

	p.logger.Info("Session batch complete",
		zap.Int64("session_id", session.ID),
		zap.Int64("collected", collected),
		zap.Int64("detections", detections),
		zap.Int64("errors", errors))
}

// processItem stores one collected item and evaluates it against the active
// patterns in priority order. The first matching pattern wins.
func (p *Processor) processItem(session *models.MonitoringSession, platform *models.Platform, patterns []*models.DetectionPattern, item collector.Item) (stored, found bool, err error) {
	contentType := item.ContentType
	if contentType == "" {
		contentType = models.ContentMessage
	}
	content := &models.CollectedContent{
		SessionID:      session.ID,
		ContentType:    contentType,
		ContentID:      item.ContentID,
		ContentText:    item.Text,
		ContentURL:     item.URL,
		AuthorID:       item.AuthorID,
		AuthorUsername: item.AuthorUsername,
		ChannelID:      item.ChannelID,
		ChannelName:    item.ChannelName,
		PostedAt:       item.PostedAt,
		CollectedAt:    p.now(),
	}
	if err := p.content.Create(content); err != nil {
		return false, false, err
	}

	if content.ContentText != "" {
		for _, pattern := range patterns {
			detection, err := p.detections.CreateFromContent(pattern, platform, content)
			if err != nil {
				p.logger.Warn("Pattern evaluation failed",
					zap.Int64("pattern_id", pattern.ID),
					zap.Error(err))
				continue
			}
			if detection != nil {
				content.MarkSuspicious(detection.ConfidenceScore, detection.DetectedKeywords)
				found = true
				break
			}
		}
	}

	content.MarkProcessed()
	if err := p.content.UpdateFlags(content); err != nil {
		return true, found, err
	}

	p.dispatcher.Dispatch(service.ContentCollected{Content: content})
	return true, found, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
