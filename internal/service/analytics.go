package service

import (
	"time"

	"go.uber.org/zap"

	"backend/internal/apperr"
	"backend/internal/models"
	"backend/internal/repository"
)

// Aggregator maintains the daily rollups from domain events and serves the
// dashboard reads. Detection-creation buckets are incremented inside the
// creation transaction by the detection repository; everything else lands
// here.
//
// Creation snapshots are deliberate: per-severity/status buckets count a
// detection once, at creation, and later transitions only bump the separate
// status_transitions counter. Mutating the snapshot on transitions would
// silently rewrite history.
type Aggregator struct {
	analytics repository.AnalyticsRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewAggregator(analytics repository.AnalyticsRepository, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		analytics: analytics,
		logger:    logger,
		now:       time.Now,
	}
}

func (a *Aggregator) today() time.Time {
	return a.now().UTC().Truncate(24 * time.Hour)
}

// HandleEvent implements EventHandler.
func (a *Aggregator) HandleEvent(event any) error {
	switch e := event.(type) {
	case DetectionCreated:
		// Creation buckets were already counted in the creation transaction.
		return nil
	case DetectionTransitioned:
		if err := a.analytics.RecordStatusTransition(a.today()); err != nil {
			return err
		}
		if e.Detection.Status == models.DetectionFalsePositive {
			return a.analytics.RecordFalsePositiveReview(a.today())
		}
		return nil
	case ContentCollected:
		return a.analytics.RecordContentCollected(a.today(), e.Content.IsSuspicious)
	case SessionCreated:
		return a.analytics.RecordSessionCreated(a.today(), e.PlatformType)
	case AlertRaised:
		return a.analytics.RecordAlert(e.AlertType, a.today(), repository.AlertSent)
	default:
		return nil
	}
}

// AcknowledgeAlert counts an analyst acknowledging an alert of the given
// type.
func (a *Aggregator) AcknowledgeAlert(alertType string) error {
	return a.analytics.RecordAlert(alertType, a.today(), repository.AlertAcknowledged)
}

// ResolveAlert counts an alert closed out.
func (a *Aggregator) ResolveAlert(alertType string) error {
	return a.analytics.RecordAlert(alertType, a.today(), repository.AlertResolved)
}

// Dashboard is the aggregate view served to the frontend.
type Dashboard struct {
	Date                 time.Time        `json:"date"`
	TotalDetections      int64            `json:"total_detections"`
	DetectionsByPlatform map[string]int64 `json:"detections_by_platform"`
	DetectionsBySeverity map[string]int64 `json:"detections_by_severity"`
	PendingReview        int64            `json:"pending_review"`
	Confirmed            int64            `json:"confirmed"`
	FalsePositives       int64            `json:"false_positives"`
	Escalated            int64            `json:"escalated"`
	TotalSessions        int64            `json:"total_sessions"`
	ContentCollected     int64            `json:"content_collected"`
	SuspiciousContent    int64            `json:"suspicious_content"`
	DetectionRate        float64          `json:"detection_rate"`
}

// GetDashboard assembles today's dashboard from the rollups. Missing rows
// (no events yet today) read as zeroes.
func (a *Aggregator) GetDashboard() (*Dashboard, error) {
	date := a.today()
	dashboard := &Dashboard{
		Date:                 date,
		DetectionsByPlatform: map[string]int64{},
		DetectionsBySeverity: map[string]int64{},
	}

	detections, err := a.analytics.GetDetectionDaily(date)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if detections != nil {
		dashboard.TotalDetections = detections.TotalDetections()
		dashboard.DetectionsByPlatform = map[string]int64{
			models.PlatformTelegram:  detections.TelegramDetections,
			models.PlatformInstagram: detections.InstagramDetections,
			models.PlatformWhatsApp:  detections.WhatsAppDetections,
			models.PlatformTwitter:   detections.TwitterDetections,
			models.PlatformOther:     detections.OtherDetections,
		}
		dashboard.DetectionsBySeverity = detections.TotalBySeverity()
		dashboard.PendingReview = detections.PendingReview
		dashboard.Confirmed = detections.Confirmed
		dashboard.FalsePositives = detections.FalsePositives
		dashboard.Escalated = detections.Escalated
	}

	monitoring, err := a.analytics.GetMonitoringDaily(date)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if monitoring != nil {
		dashboard.TotalSessions = monitoring.TotalSessions()
		dashboard.ContentCollected = monitoring.TotalContentCollected
		dashboard.SuspiciousContent = monitoring.SuspiciousContentFound
		dashboard.DetectionRate = monitoring.DetectionRate()
	}

	return dashboard, nil
}

// DetectionDaily returns the detection rollups between two dates inclusive.
func (a *Aggregator) DetectionDaily(from, to time.Time) ([]*models.DetectionAnalytics, error) {
	return a.analytics.ListDetectionDaily(from, to)
}

// MonitoringDaily returns the monitoring rollups between two dates inclusive.
func (a *Aggregator) MonitoringDaily(from, to time.Time) ([]*models.MonitoringMetrics, error) {
	return a.analytics.ListMonitoringDaily(from, to)
}

// AlertMetrics returns today's per-type alert rollups.
func (a *Aggregator) AlertMetrics() ([]*models.AlertMetrics, error) {
	return a.analytics.ListAlertMetrics(a.today())
}

// RecordPerformance stores one performance sample, re-deriving health and
// trend from the thresholds before writing.
func (a *Aggregator) RecordPerformance(metric *models.PerformanceMetric) error {
	if metric.RecordedAt.IsZero() {
		metric.RecordedAt = a.now().UTC()
	}
	metric.Evaluate()
	return a.analytics.UpsertPerformanceMetric(metric)
}

// PerformanceMetrics lists stored samples, optionally filtered by category.
func (a *Aggregator) PerformanceMetrics(category string) ([]*models.PerformanceMetric, error) {
	return a.analytics.ListPerformanceMetrics(category)
}

// RecordTrend stores one analyst-supplied trend analysis.
func (a *Aggregator) RecordTrend(trend *models.TrendAnalysis) error {
	if trend.MetricType == "" || trend.MetricName == "" {
		return apperr.Validation("metric_type and metric_name required")
	}
	if !models.ValidTrendDirection(trend.TrendDirection) {
		return apperr.Validation("unknown trend direction %q", trend.TrendDirection)
	}
	if trend.TrendStrength < 0 || trend.TrendStrength > 1 {
		return apperr.Validation("trend_strength must be in [0,1]")
	}
	if trend.EndDate.Before(trend.StartDate) {
		return apperr.Validation("end_date precedes start_date")
	}
	if trend.PeriodType == "" {
		trend.PeriodType = "daily"
	}
	return a.analytics.UpsertTrend(trend)
}

// Trends lists stored trend analyses, optionally filtered by metric type.
func (a *Aggregator) Trends(metricType string) ([]*models.TrendAnalysis, error) {
	return a.analytics.ListTrends(metricType)
}

// RecordGeographic stores one analyst-supplied location rollup.
func (a *Aggregator) RecordGeographic(analysis *models.GeographicAnalysis) error {
	if analysis.Country == "" {
		return apperr.Validation("country required")
	}
	if analysis.AnalysisDate.IsZero() {
		analysis.AnalysisDate = a.today()
	}
	return a.analytics.UpsertGeographic(analysis)
}

// Geographic lists the location rollups for a date.
func (a *Aggregator) Geographic(date time.Time) ([]*models.GeographicAnalysis, error) {
	return a.analytics.ListGeographic(date)
}
