package models

import "time"

// Detection severity levels.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Detection review statuses. A detection moves pending -> reviewed/confirmed/
// false_positive/escalated -> resolved; reassignment is the only path back to
// pending.
const (
	DetectionPending       = "pending"
	DetectionReviewed      = "reviewed"
	DetectionConfirmed     = "confirmed"
	DetectionFalsePositive = "false_positive"
	DetectionEscalated     = "escalated"
	DetectionResolved      = "resolved"
)

// ValidReviewStatus reports whether status is an acceptable outcome of a
// review action.
func ValidReviewStatus(status string) bool {
	switch status {
	case DetectionReviewed, DetectionConfirmed, DetectionFalsePositive:
		return true
	}
	return false
}

// DetectionResult is a single flagged content match. Rows are never deleted,
// only transitioned.
type DetectionResult struct {
	ID        int64 `db:"id" json:"id"`
	PlatformID int64 `db:"platform_id" json:"platform_id"`
	PatternID  int64 `db:"pattern_id" json:"pattern_id"`

	ContentText string `db:"content_text" json:"content_text"`
	ContentURL  string `db:"content_url" json:"content_url,omitempty"`
	ContentID   string `db:"content_id" json:"content_id,omitempty"`

	AuthorID       string `db:"author_id" json:"author_id,omitempty"`
	AuthorUsername string `db:"author_username" json:"author_username,omitempty"`

	ConfidenceScore  float64 `db:"confidence_score" json:"confidence_score"`
	SeverityLevel    string  `db:"severity_level" json:"severity_level"`
	DetectedKeywords string  `db:"detected_keywords" json:"detected_keywords,omitempty"` // comma-separated

	Status     string `db:"status" json:"status"`
	AssignedTo *int64 `db:"assigned_to" json:"assigned_to,omitempty"`
	ReviewedBy *int64 `db:"reviewed_by" json:"reviewed_by,omitempty"`

	DetectedAt time.Time  `db:"detected_at" json:"detected_at"`
	ReviewedAt *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// SeverityForConfidence derives a severity level from a confidence score,
// bumped one step when the triggering pattern carries a critical-risk
// category.
func SeverityForConfidence(confidence float64, patternRisk string) string {
	var severity string
	switch {
	case confidence >= 0.95:
		severity = SeverityCritical
	case confidence >= 0.85:
		severity = SeverityHigh
	case confidence >= 0.70:
		severity = SeverityMedium
	default:
		severity = SeverityLow
	}
	if patternRisk == RiskCritical {
		switch severity {
		case SeverityLow:
			severity = SeverityMedium
		case SeverityMedium:
			severity = SeverityHigh
		case SeverityHigh:
			severity = SeverityCritical
		}
	}
	return severity
}

// AssignToUser hands the detection to a user for review. Always resets the
// status to pending, regardless of the prior state: an investigator may
// reclaim a case at any point.
func (d *DetectionResult) AssignToUser(userID int64) {
	d.AssignedTo = &userID
	d.Status = DetectionPending
}

// MarkReviewed records the review outcome. Valid from any state.
func (d *DetectionResult) MarkReviewed(userID int64, status string, now time.Time) {
	d.ReviewedBy = &userID
	d.ReviewedAt = &now
	d.Status = status
}

// Escalate flags the detection for further investigation and assigns it to
// the escalating user. Idempotent when already escalated.
func (d *DetectionResult) Escalate(userID int64) {
	d.Status = DetectionEscalated
	d.AssignedTo = &userID
}

// Resolve closes out the detection. Terminal; only reassignment reopens it.
func (d *DetectionResult) Resolve(userID int64, now time.Time) {
	d.Status = DetectionResolved
	d.ReviewedBy = &userID
	d.ResolvedAt = &now
}
