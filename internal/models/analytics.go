package models

import "time"

// DetectionAnalytics is the daily detection rollup, one row per date. Bucket
// counters are incremented once per detection at creation time; subsequent
// status changes land in StatusTransitions so the creation snapshot stays
// intact.
type DetectionAnalytics struct {
	ID   int64     `db:"id" json:"id"`
	Date time.Time `db:"date" json:"date"`

	TelegramDetections  int64 `db:"telegram_detections" json:"telegram_detections"`
	InstagramDetections int64 `db:"instagram_detections" json:"instagram_detections"`
	WhatsAppDetections  int64 `db:"whatsapp_detections" json:"whatsapp_detections"`
	TwitterDetections   int64 `db:"twitter_detections" json:"twitter_detections"`
	OtherDetections     int64 `db:"other_detections" json:"other_detections"`

	LowSeverity      int64 `db:"low_severity" json:"low_severity"`
	MediumSeverity   int64 `db:"medium_severity" json:"medium_severity"`
	HighSeverity     int64 `db:"high_severity" json:"high_severity"`
	CriticalSeverity int64 `db:"critical_severity" json:"critical_severity"`

	PendingReview  int64 `db:"pending_review" json:"pending_review"`
	Confirmed      int64 `db:"confirmed" json:"confirmed"`
	FalsePositives int64 `db:"false_positives" json:"false_positives"`
	Escalated      int64 `db:"escalated" json:"escalated"`

	StatusTransitions int64 `db:"status_transitions" json:"status_transitions"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TotalDetections sums the per-platform buckets. Computed on read, never
// stored, so it cannot drift from the counters.
func (a *DetectionAnalytics) TotalDetections() int64 {
	return a.TelegramDetections + a.InstagramDetections + a.WhatsAppDetections +
		a.TwitterDetections + a.OtherDetections
}

// TotalBySeverity returns the severity breakdown as a map.
func (a *DetectionAnalytics) TotalBySeverity() map[string]int64 {
	return map[string]int64{
		SeverityLow:      a.LowSeverity,
		SeverityMedium:   a.MediumSeverity,
		SeverityHigh:     a.HighSeverity,
		SeverityCritical: a.CriticalSeverity,
	}
}

// MonitoringMetrics is the daily monitoring rollup, one row per date.
type MonitoringMetrics struct {
	ID   int64     `db:"id" json:"id"`
	Date time.Time `db:"date" json:"date"`

	TelegramSessions  int64 `db:"telegram_sessions" json:"telegram_sessions"`
	InstagramSessions int64 `db:"instagram_sessions" json:"instagram_sessions"`
	WhatsAppSessions  int64 `db:"whatsapp_sessions" json:"whatsapp_sessions"`
	TwitterSessions   int64 `db:"twitter_sessions" json:"twitter_sessions"`
	OtherSessions     int64 `db:"other_sessions" json:"other_sessions"`

	TotalContentCollected  int64 `db:"total_content_collected" json:"total_content_collected"`
	SuspiciousContentFound int64 `db:"suspicious_content_found" json:"suspicious_content_found"`
	FalsePositives         int64 `db:"false_positives" json:"false_positives"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TotalSessions sums the per-platform session buckets.
func (m *MonitoringMetrics) TotalSessions() int64 {
	return m.TelegramSessions + m.InstagramSessions + m.WhatsAppSessions +
		m.TwitterSessions + m.OtherSessions
}

// DetectionRate is the percentage of collected content flagged suspicious.
func (m *MonitoringMetrics) DetectionRate() float64 {
	if m.TotalContentCollected == 0 {
		return 0.0
	}
	return float64(m.SuspiciousContentFound) / float64(m.TotalContentCollected) * 100
}

// PerformanceMetric is one tracked system metric, unique per
// (category, metric_name, recorded_at).
type PerformanceMetric struct {
	ID         int64  `db:"id" json:"id"`
	Category   string `db:"category" json:"category"`
	MetricName string `db:"metric_name" json:"metric_name"`

	CurrentValue float64  `db:"current_value" json:"current_value"`
	TargetValue  *float64 `db:"target_value" json:"target_value,omitempty"`

	WarningThreshold  *float64 `db:"warning_threshold" json:"warning_threshold,omitempty"`
	CriticalThreshold *float64 `db:"critical_threshold" json:"critical_threshold,omitempty"`

	IsHealthy bool   `db:"is_healthy" json:"is_healthy"`
	Trend     string `db:"trend" json:"trend"` // improving|stable|declining|critical

	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PerformanceScore derives a [0,1] score from the distance to target.
// Computed on read. Metrics without a target score 1.0.
func (p *PerformanceMetric) PerformanceScore() float64 {
	if p.TargetValue == nil || *p.TargetValue <= 0 {
		return 1.0
	}
	if p.CurrentValue >= *p.TargetValue {
		return 1.0
	}
	if p.CurrentValue <= 0 {
		return 0.0
	}
	return p.CurrentValue / *p.TargetValue
}

// Evaluate re-derives the health flag and trend from the thresholds. The
// critical threshold is checked before the warning one, so a single sample
// never reports both critical and declining.
func (p *PerformanceMetric) Evaluate() {
	switch {
	case p.CriticalThreshold != nil && p.CurrentValue >= *p.CriticalThreshold:
		p.IsHealthy = false
		p.Trend = "critical"
	case p.WarningThreshold != nil && p.CurrentValue >= *p.WarningThreshold:
		p.IsHealthy = false
		p.Trend = "declining"
	default:
		p.IsHealthy = true
		p.Trend = "stable"
	}
}

// AlertMetrics is the daily alert rollup, unique per (alert_type, date).
type AlertMetrics struct {
	ID        int64     `db:"id" json:"id"`
	AlertType string    `db:"alert_type" json:"alert_type"`
	Date      time.Time `db:"date" json:"date"`

	TotalAlerts        int64 `db:"total_alerts" json:"total_alerts"`
	AcknowledgedAlerts int64 `db:"acknowledged_alerts" json:"acknowledged_alerts"`
	ResolvedAlerts     int64 `db:"resolved_alerts" json:"resolved_alerts"`
	EscalatedAlerts    int64 `db:"escalated_alerts" json:"escalated_alerts"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AcknowledgmentRate is the percentage of alerts acknowledged. Zero alerts
// yields 0.0, not a division error.
func (a *AlertMetrics) AcknowledgmentRate() float64 {
	if a.TotalAlerts == 0 {
		return 0.0
	}
	return float64(a.AcknowledgedAlerts) / float64(a.TotalAlerts) * 100
}

// ResolutionRate is the percentage of alerts resolved.
func (a *AlertMetrics) ResolutionRate() float64 {
	if a.TotalAlerts == 0 {
		return 0.0
	}
	return float64(a.ResolvedAlerts) / float64(a.TotalAlerts) * 100
}

const (
	TrendIncreasing  = "increasing"
	TrendDecreasing  = "decreasing"
	TrendStable      = "stable"
	TrendFluctuating = "fluctuating"
)

// ValidTrendDirection reports whether d is a known trend direction.
func ValidTrendDirection(d string) bool {
	switch d {
	case TrendIncreasing, TrendDecreasing, TrendStable, TrendFluctuating:
		return true
	}
	return false
}

// TrendAnalysis is an analyst-computed trend of one metric over a period,
// unique per (metric_type, metric_name, period_type, start_date, end_date).
type TrendAnalysis struct {
	ID         int64  `db:"id" json:"id"`
	MetricType string `db:"metric_type" json:"metric_type"`
	MetricName string `db:"metric_name" json:"metric_name"`

	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	PeriodType string    `db:"period_type" json:"period_type"` // hourly|daily|weekly|monthly

	DataPoints     string  `db:"data_points" json:"data_points,omitempty"` // JSON time series
	TrendDirection string  `db:"trend_direction" json:"trend_direction"`
	TrendStrength  float64 `db:"trend_strength" json:"trend_strength"` // [0,1]

	MeanValue              float64  `db:"mean_value" json:"mean_value"`
	MedianValue            float64  `db:"median_value" json:"median_value"`
	StandardDeviation      float64  `db:"standard_deviation" json:"standard_deviation"`
	CorrelationCoefficient *float64 `db:"correlation_coefficient" json:"correlation_coefficient,omitempty"`

	KeyInsights     string `db:"key_insights" json:"key_insights,omitempty"`       // comma-separated
	Recommendations string `db:"recommendations" json:"recommendations,omitempty"` // comma-separated

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GeographicAnalysis is a per-location activity rollup, unique per
// (country, region, city, analysis_date). Populated by analysts.
type GeographicAnalysis struct {
	ID      int64  `db:"id" json:"id"`
	Country string `db:"country" json:"country"`
	Region  string `db:"region" json:"region,omitempty"`
	City    string `db:"city" json:"city,omitempty"`

	TotalDetections int64 `db:"total_detections" json:"total_detections"`
	UniqueUsers     int64 `db:"unique_users" json:"unique_users"`
	ActiveChannels  int64 `db:"active_channels" json:"active_channels"`

	RiskLevel string  `db:"risk_level" json:"risk_level"`
	RiskScore float64 `db:"risk_score" json:"risk_score"` // [0,1]

	AnalysisDate time.Time `db:"analysis_date" json:"analysis_date"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
