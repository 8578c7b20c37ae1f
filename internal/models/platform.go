package models

import "time"

// Platform types under monitoring.
const (
	PlatformTelegram  = "telegram"
	PlatformInstagram = "instagram"
	PlatformWhatsApp  = "whatsapp"
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformDiscord   = "discord"
	PlatformSignal    = "signal"
	PlatformOther     = "other"
)

// ValidPlatformType reports whether t is a known platform type.
func ValidPlatformType(t string) bool {
	switch t {
	case PlatformTelegram, PlatformInstagram, PlatformWhatsApp, PlatformTwitter,
		PlatformFacebook, PlatformDiscord, PlatformSignal, PlatformOther:
		return true
	}
	return false
}

// Platform represents a social platform being monitored. The API secret is
// sealed with the master key before it reaches the database.
type Platform struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	PlatformType string `db:"platform_type" json:"platform_type"`

	APIEndpoint  string `db:"api_endpoint" json:"api_endpoint,omitempty"`
	APIKey       string `db:"api_key" json:"-"`
	APISecretEnc string `db:"api_secret_enc" json:"-"`

	IsActive          bool `db:"is_active" json:"is_active"`
	MonitoringEnabled bool `db:"monitoring_enabled" json:"monitoring_enabled"`
	RateLimit         int  `db:"rate_limit" json:"rate_limit"` // requests per minute

	TotalDetections int64      `db:"total_detections" json:"total_detections"`
	LastMonitoring  *time.Time `db:"last_monitoring" json:"last_monitoring,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
