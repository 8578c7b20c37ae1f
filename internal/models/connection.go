package models

import "time"

// Platform connection statuses.
const (
	ConnConnected    = "connected"
	ConnConnecting   = "connecting"
	ConnDisconnected = "disconnected"
	ConnError        = "error"
	ConnRateLimited  = "rate_limited"
)

// errorThreshold is the cumulative error count that trips a connection into
// the error state. Recovery requires an explicit successful Connect.
const errorThreshold = 5

// PlatformConnection tracks reachability for one platform (1:1). It is pure
// bookkeeping: no network calls happen at this layer; the collector records
// outcomes here.
type PlatformConnection struct {
	ID         int64 `db:"id" json:"id"`
	PlatformID int64 `db:"platform_id" json:"platform_id"`

	Status           string     `db:"status" json:"status"`
	LastConnected    *time.Time `db:"last_connected" json:"last_connected,omitempty"`
	LastDisconnected *time.Time `db:"last_disconnected" json:"last_disconnected,omitempty"`

	ResponseTime       *float64   `db:"response_time" json:"response_time,omitempty"` // milliseconds
	ErrorCount         int        `db:"error_count" json:"error_count"`
	RateLimitRemaining *int       `db:"rate_limit_remaining" json:"rate_limit_remaining,omitempty"`
	RateLimitReset     *time.Time `db:"rate_limit_reset" json:"rate_limit_reset,omitempty"`

	APIVersion string `db:"api_version" json:"api_version,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Healthy reports whether the connection can serve collection.
func (c *PlatformConnection) Healthy() bool {
	return c.Status == ConnConnected
}

// Connect marks the platform as reachable and resets the error count. This is
// the only way out of the error and rate_limited states.
func (c *PlatformConnection) Connect(now time.Time) {
	c.Status = ConnConnected
	c.LastConnected = &now
	c.ErrorCount = 0
}

// Disconnect marks the platform as unreachable.
func (c *PlatformConnection) Disconnect(now time.Time) {
	c.Status = ConnDisconnected
	c.LastDisconnected = &now
}

// RecordError counts a collection failure. At the threshold the connection
// degrades to error and stays there until an explicit Connect.
func (c *PlatformConnection) RecordError() {
	c.ErrorCount++
	if c.ErrorCount >= errorThreshold {
		c.Status = ConnError
	}
}

// ResetErrors zeroes the error counter without touching the status.
func (c *PlatformConnection) ResetErrors() {
	c.ErrorCount = 0
}

// UpdateRateLimit stores the latest rate-limit window. Exhaustion forces the
// rate_limited state regardless of the prior status.
func (c *PlatformConnection) UpdateRateLimit(remaining int, reset time.Time) {
	c.RateLimitRemaining = &remaining
	c.RateLimitReset = &reset
	if remaining == 0 {
		c.Status = ConnRateLimited
	}
}

// RecordResponseTime stores the most recent round-trip time in milliseconds.
func (c *PlatformConnection) RecordResponseTime(ms float64) {
	c.ResponseTime = &ms
}
