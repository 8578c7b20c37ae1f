package models

import "time"

// Pattern types. Only keyword and regex evaluate to a real confidence today;
// the remaining types are declared for forward compatibility and score 0.0.
const (
	PatternKeyword    = "keyword"
	PatternRegex      = "regex"
	PatternMLModel    = "ml_model"
	PatternBehavioral = "behavioral"
	PatternMetadata   = "metadata"
)

// Risk levels shared by drug categories and geographic analyses.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

const DefaultConfidenceThreshold = 0.7

// DrugCategory is a classification tag attached to detection patterns.
type DrugCategory struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	RiskLevel   string    `db:"risk_level" json:"risk_level"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DetectionPattern holds a single detection rule. PatternData is opaque to the
// store; its interpretation depends on PatternType (comma-separated keywords,
// a regular expression, or model configuration).
type DetectionPattern struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	PatternType string `db:"pattern_type" json:"pattern_type"`
	PatternData string `db:"pattern_data" json:"pattern_data"`
	Description string `db:"description" json:"description,omitempty"`

	ConfidenceThreshold float64 `db:"confidence_threshold" json:"confidence_threshold"`
	IsActive            bool    `db:"is_active" json:"is_active"`
	Priority            int     `db:"priority" json:"priority"`

	Categories []DrugCategory `db:"-" json:"categories,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	LastUsed  *time.Time `db:"last_used" json:"last_used,omitempty"`
}

// Threshold returns the per-pattern confidence threshold, falling back to the
// default when unset.
func (p *DetectionPattern) Threshold() float64 {
	if p.ConfidenceThreshold <= 0 {
		return DefaultConfidenceThreshold
	}
	return p.ConfidenceThreshold
}

// HighestRisk returns the most severe risk level among the pattern's
// categories, or RiskLow when it has none.
func (p *DetectionPattern) HighestRisk() string {
	rank := map[string]int{RiskLow: 0, RiskMedium: 1, RiskHigh: 2, RiskCritical: 3}
	highest := RiskLow
	for _, c := range p.Categories {
		if rank[c.RiskLevel] > rank[highest] {
			highest = c.RiskLevel
		}
	}
	return highest
}
