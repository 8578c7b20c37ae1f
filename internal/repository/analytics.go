package repository

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"backend/internal/models"
)

// AnalyticsRepository maintains the daily rollup rows. Every write is a
// single-statement atomic upsert: INSERT ... ON CONFLICT (key) DO UPDATE SET
// col = tbl.col + n. The unique constraint makes get-or-create race-safe and
// the in-place addition avoids read-modify-write lost updates.
type AnalyticsRepository interface {
	RecordSessionCreated(date time.Time, platformType string) error
	RecordContentCollected(date time.Time, suspicious bool) error
	RecordStatusTransition(date time.Time) error
	RecordFalsePositiveReview(date time.Time) error
	RecordAlert(alertType string, date time.Time, bucket AlertBucket) error

	GetDetectionDaily(date time.Time) (*models.DetectionAnalytics, error)
	ListDetectionDaily(from, to time.Time) ([]*models.DetectionAnalytics, error)
	GetMonitoringDaily(date time.Time) (*models.MonitoringMetrics, error)
	ListMonitoringDaily(from, to time.Time) ([]*models.MonitoringMetrics, error)
	ListAlertMetrics(date time.Time) ([]*models.AlertMetrics, error)

	UpsertPerformanceMetric(metric *models.PerformanceMetric) error
	ListPerformanceMetrics(category string) ([]*models.PerformanceMetric, error)

	UpsertGeographic(analysis *models.GeographicAnalysis) error
	ListGeographic(date time.Time) ([]*models.GeographicAnalysis, error)

	UpsertTrend(trend *models.TrendAnalysis) error
	ListTrends(metricType string) ([]*models.TrendAnalysis, error)
}

// AlertBucket selects which alert counter an event increments.
type AlertBucket string

const (
	AlertSent         AlertBucket = "total_alerts"
	AlertAcknowledged AlertBucket = "acknowledged_alerts"
	AlertResolved     AlertBucket = "resolved_alerts"
	AlertEscalated    AlertBucket = "escalated_alerts"
)

type analyticsRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAnalyticsRepository(db *sqlx.DB, logger *zap.Logger) AnalyticsRepository {
	return &analyticsRepository{db: db, logger: logger}
}

// platformDetectionColumn maps a platform type to its detection rollup
// column. Types without a dedicated column land in the other bucket.
func platformDetectionColumn(platformType string) string {
	switch platformType {
	case models.PlatformTelegram:
		return "telegram_detections"
	case models.PlatformInstagram:
		return "instagram_detections"
	case models.PlatformWhatsApp:
		return "whatsapp_detections"
	case models.PlatformTwitter:
		return "twitter_detections"
	default:
		return "other_detections"
	}
}

func platformSessionColumn(platformType string) string {
	switch platformType {
	case models.PlatformTelegram:
		return "telegram_sessions"
	case models.PlatformInstagram:
		return "instagram_sessions"
	case models.PlatformWhatsApp:
		return "whatsapp_sessions"
	case models.PlatformTwitter:
		return "twitter_sessions"
	default:
		return "other_sessions"
	}
}

func severityColumn(severity string) string {
	switch severity {
	case models.SeverityLow:
		return "low_severity"
	case models.SeverityMedium:
		return "medium_severity"
	case models.SeverityHigh:
		return "high_severity"
	default:
		return "critical_severity"
	}
}

func statusColumn(status string) string {
	switch status {
	case models.DetectionConfirmed:
		return "confirmed"
	case models.DetectionFalsePositive:
		return "false_positives"
	case models.DetectionEscalated:
		return "escalated"
	default:
		return "pending_review"
	}
}

// incrementDetectionRollup bumps today's detection buckets for one newly
// created detection. Exported within the package so the detection repository
// can run it inside the creation transaction.
func incrementDetectionRollup(e sqlx.Ext, date time.Time, platformType, severity, status string) error {
	platformCol := platformDetectionColumn(platformType)
	severityCol := severityColumn(severity)
	statusCol := statusColumn(status)

	// Column names come from the fixed mappings above, never from input.
	query := fmt.Sprintf(`
		INSERT INTO detection_analytics (date, %[1]s, %[2]s, %[3]s)
		VALUES ($1, 1, 1, 1)
		ON CONFLICT (date) DO UPDATE SET
			%[1]s = detection_analytics.%[1]s + 1,
			%[2]s = detection_analytics.%[2]s + 1,
			%[3]s = detection_analytics.%[3]s + 1,
			updated_at = NOW()`, platformCol, severityCol, statusCol)
	_, err := e.Exec(query, date)
	return err
}

func (r *analyticsRepository) RecordSessionCreated(date time.Time, platformType string) error {
	col := platformSessionColumn(platformType)
	query := fmt.Sprintf(`
		INSERT INTO monitoring_metrics (date, %[1]s) VALUES ($1, 1)
		ON CONFLICT (date) DO UPDATE SET
			%[1]s = monitoring_metrics.%[1]s + 1,
			updated_at = NOW()`, col)
	_, err := r.db.Exec(query, date)
	return err
}

func (r *analyticsRepository) RecordContentCollected(date time.Time, suspicious bool) error {
	suspiciousInc := 0
	if suspicious {
		suspiciousInc = 1
	}
	query := `
		INSERT INTO monitoring_metrics (date, total_content_collected, suspicious_content_found)
		VALUES ($1, 1, $2)
		ON CONFLICT (date) DO UPDATE SET
			total_content_collected = monitoring_metrics.total_content_collected + 1,
			suspicious_content_found = monitoring_metrics.suspicious_content_found + $2,
			updated_at = NOW()`
	_, err := r.db.Exec(query, date, suspiciousInc)
	return err
}

func (r *analyticsRepository) RecordStatusTransition(date time.Time) error {
	query := `
		INSERT INTO detection_analytics (date, status_transitions) VALUES ($1, 1)
		ON CONFLICT (date) DO UPDATE SET
			status_transitions = detection_analytics.status_transitions + 1,
			updated_at = NOW()`
	_, err := r.db.Exec(query, date)
	return err
}

func (r *analyticsRepository) RecordFalsePositiveReview(date time.Time) error {
	query := `
		INSERT INTO monitoring_metrics (date, false_positives) VALUES ($1, 1)
		ON CONFLICT (date) DO UPDATE SET
			false_positives = monitoring_metrics.false_positives + 1,
			updated_at = NOW()`
	_, err := r.db.Exec(query, date)
	return err
}

func (r *analyticsRepository) RecordAlert(alertType string, date time.Time, bucket AlertBucket) error {
	// total_alerts counts every raised alert; the other buckets track its
	// lifecycle and always imply an existing row, but the upsert keeps the
	// write race-safe either way.
	query := fmt.Sprintf(`
		INSERT INTO alert_metrics (alert_type, date, %[1]s) VALUES ($1, $2, 1)
		ON CONFLICT (alert_type, date) DO UPDATE SET
			%[1]s = alert_metrics.%[1]s + 1,
			updated_at = NOW()`, string(bucket))
	_, err := r.db.Exec(query, alertType, date)
	return err
}

const detectionAnalyticsColumns = `id, date, telegram_detections, instagram_detections,
	whatsapp_detections, twitter_detections, other_detections,
	low_severity, medium_severity, high_severity, critical_severity,
	pending_review, confirmed, false_positives, escalated, status_transitions,
	created_at, updated_at`

func (r *analyticsRepository) GetDetectionDaily(date time.Time) (*models.DetectionAnalytics, error) {
	var row models.DetectionAnalytics
	query := `SELECT ` + detectionAnalyticsColumns + ` FROM detection_analytics WHERE date = $1`
	if err := r.db.Get(&row, query, date); err != nil {
		return nil, notFound(err, "detection analytics", 0)
	}
	return &row, nil
}

func (r *analyticsRepository) ListDetectionDaily(from, to time.Time) ([]*models.DetectionAnalytics, error) {
	rows := []*models.DetectionAnalytics{}
	query := `SELECT ` + detectionAnalyticsColumns + ` FROM detection_analytics
	          WHERE date BETWEEN $1 AND $2 ORDER BY date DESC`
	if err := r.db.Select(&rows, query, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}

const monitoringMetricsColumns = `id, date, telegram_sessions, instagram_sessions,
	whatsapp_sessions, twitter_sessions, other_sessions,
	total_content_collected, suspicious_content_found, false_positives,
	created_at, updated_at`

func (r *analyticsRepository) GetMonitoringDaily(date time.Time) (*models.MonitoringMetrics, error) {
	var row models.MonitoringMetrics
	query := `SELECT ` + monitoringMetricsColumns + ` FROM monitoring_metrics WHERE date = $1`
	if err := r.db.Get(&row, query, date); err != nil {
		return nil, notFound(err, "monitoring metrics", 0)
	}
	return &row, nil
}

func (r *analyticsRepository) ListMonitoringDaily(from, to time.Time) ([]*models.MonitoringMetrics, error) {
	rows := []*models.MonitoringMetrics{}
	query := `SELECT ` + monitoringMetricsColumns + ` FROM monitoring_metrics
	          WHERE date BETWEEN $1 AND $2 ORDER BY date DESC`
	if err := r.db.Select(&rows, query, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepository) ListAlertMetrics(date time.Time) ([]*models.AlertMetrics, error) {
	rows := []*models.AlertMetrics{}
	query := `SELECT id, alert_type, date, total_alerts, acknowledged_alerts, resolved_alerts,
	              escalated_alerts, created_at, updated_at
	          FROM alert_metrics WHERE date = $1 ORDER BY alert_type`
	if err := r.db.Select(&rows, query, date); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepository) UpsertPerformanceMetric(metric *models.PerformanceMetric) error {
	query := `
		INSERT INTO performance_metrics (category, metric_name, current_value, target_value,
		    warning_threshold, critical_threshold, is_healthy, trend, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (category, metric_name, recorded_at) DO UPDATE SET
			current_value = EXCLUDED.current_value,
			is_healthy = EXCLUDED.is_healthy,
			trend = EXCLUDED.trend,
			updated_at = NOW()
		RETURNING id`
	return r.db.QueryRowx(query, metric.Category, metric.MetricName, metric.CurrentValue,
		metric.TargetValue, metric.WarningThreshold, metric.CriticalThreshold,
		metric.IsHealthy, metric.Trend, metric.RecordedAt).Scan(&metric.ID)
}

func (r *analyticsRepository) ListPerformanceMetrics(category string) ([]*models.PerformanceMetric, error) {
	rows := []*models.PerformanceMetric{}
	query := `SELECT id, category, metric_name, current_value, target_value, warning_threshold,
	              critical_threshold, is_healthy, trend, recorded_at, updated_at
	          FROM performance_metrics`
	var err error
	if category != "" {
		err = r.db.Select(&rows, query+` WHERE category = $1 ORDER BY metric_name, recorded_at DESC`, category)
	} else {
		err = r.db.Select(&rows, query+` ORDER BY category, metric_name, recorded_at DESC`)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepository) UpsertGeographic(analysis *models.GeographicAnalysis) error {
	query := `
		INSERT INTO geographic_analyses (country, region, city, total_detections, unique_users,
		    active_channels, risk_level, risk_score, analysis_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (country, region, city, analysis_date) DO UPDATE SET
			total_detections = EXCLUDED.total_detections,
			unique_users = EXCLUDED.unique_users,
			active_channels = EXCLUDED.active_channels,
			risk_level = EXCLUDED.risk_level,
			risk_score = EXCLUDED.risk_score,
			updated_at = NOW()
		RETURNING id`
	return r.db.QueryRowx(query, analysis.Country, analysis.Region, analysis.City,
		analysis.TotalDetections, analysis.UniqueUsers, analysis.ActiveChannels,
		analysis.RiskLevel, analysis.RiskScore, analysis.AnalysisDate).Scan(&analysis.ID)
}

func (r *analyticsRepository) UpsertTrend(trend *models.TrendAnalysis) error {
	query := `
		INSERT INTO trend_analyses (metric_type, metric_name, start_date, end_date, period_type,
		    data_points, trend_direction, trend_strength, mean_value, median_value,
		    standard_deviation, correlation_coefficient, key_insights, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (metric_type, metric_name, period_type, start_date, end_date) DO UPDATE SET
			data_points = EXCLUDED.data_points,
			trend_direction = EXCLUDED.trend_direction,
			trend_strength = EXCLUDED.trend_strength,
			mean_value = EXCLUDED.mean_value,
			median_value = EXCLUDED.median_value,
			standard_deviation = EXCLUDED.standard_deviation,
			correlation_coefficient = EXCLUDED.correlation_coefficient,
			key_insights = EXCLUDED.key_insights,
			recommendations = EXCLUDED.recommendations,
			updated_at = NOW()
		RETURNING id`
	return r.db.QueryRowx(query, trend.MetricType, trend.MetricName, trend.StartDate,
		trend.EndDate, trend.PeriodType, trend.DataPoints, trend.TrendDirection,
		trend.TrendStrength, trend.MeanValue, trend.MedianValue, trend.StandardDeviation,
		trend.CorrelationCoefficient, trend.KeyInsights, trend.Recommendations).Scan(&trend.ID)
}

func (r *analyticsRepository) ListTrends(metricType string) ([]*models.TrendAnalysis, error) {
	rows := []*models.TrendAnalysis{}
	query := `SELECT id, metric_type, metric_name, start_date, end_date, period_type,
	              data_points, trend_direction, trend_strength, mean_value, median_value,
	              standard_deviation, correlation_coefficient, key_insights, recommendations,
	              created_at, updated_at
	          FROM trend_analyses`
	var err error
	if metricType != "" {
		err = r.db.Select(&rows, query+` WHERE metric_type = $1 ORDER BY end_date DESC, metric_name`, metricType)
	} else {
		err = r.db.Select(&rows, query+` ORDER BY end_date DESC, metric_type, metric_name`)
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *analyticsRepository) ListGeographic(date time.Time) ([]*models.GeographicAnalysis, error) {
	rows := []*models.GeographicAnalysis{}
	query := `SELECT id, country, region, city, total_detections, unique_users, active_channels,
	              risk_level, risk_score, analysis_date, created_at, updated_at
	          FROM geographic_analyses WHERE analysis_date = $1
	          ORDER BY total_detections DESC, country`
	if err := r.db.Select(&rows, query, date); err != nil {
		return nil, err
	}
	return rows, nil
}
