package models

import "time"

// Collected content types.
const (
	ContentMessage  = "message"
	ContentPost     = "post"
	ContentComment  = "comment"
	ContentStory    = "story"
	ContentMedia    = "media"
	ContentMetadata = "metadata"
)

// CollectedContent is a single item captured during a monitoring session.
// Immutable once processed except for the suspicious/processed flags.
type CollectedContent struct {
	ID        int64 `db:"id" json:"id"`
	SessionID int64 `db:"session_id" json:"session_id"`

	ContentType string `db:"content_type" json:"content_type"`
	ContentID   string `db:"content_id" json:"content_id"`
	ContentText string `db:"content_text" json:"content_text,omitempty"`
	ContentURL  string `db:"content_url" json:"content_url,omitempty"`

	AuthorID       string `db:"author_id" json:"author_id,omitempty"`
	AuthorUsername string `db:"author_username" json:"author_username,omitempty"`
	ChannelID      string `db:"channel_id" json:"channel_id,omitempty"`
	ChannelName    string `db:"channel_name" json:"channel_name,omitempty"`

	IsSuspicious     bool     `db:"is_suspicious" json:"is_suspicious"`
	ConfidenceScore  *float64 `db:"confidence_score" json:"confidence_score,omitempty"`
	DetectedKeywords string   `db:"detected_keywords" json:"detected_keywords,omitempty"` // comma-separated

	PostedAt    time.Time `db:"posted_at" json:"posted_at"`
	CollectedAt time.Time `db:"collected_at" json:"collected_at"`
	Processed   bool      `db:"processed" json:"processed"`
}

// MarkSuspicious flags the content with the confidence that tripped it.
func (c *CollectedContent) MarkSuspicious(confidence float64, keywords string) {
	c.IsSuspicious = true
	c.ConfidenceScore = &confidence
	if keywords != "" {
		c.DetectedKeywords = keywords
	}
}

// MarkClean clears the suspicious flag after analyst review.
func (c *CollectedContent) MarkClean() {
	c.IsSuspicious = false
}

// MarkProcessed marks the content as having been through pattern evaluation.
func (c *CollectedContent) MarkProcessed() {
	c.Processed = true
}
