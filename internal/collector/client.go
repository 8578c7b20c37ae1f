package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Item is a single piece of content returned by the collector service. The
// shape matches the collector's /collect endpoints across platforms.
type Item struct {
	ContentID      string    `json:"content_id"`
	ContentType    string    `json:"content_type"` // "message", "post", "comment", ...
	Text           string    `json:"text"`
	URL            string    `json:"url,omitempty"`
	AuthorID       string    `json:"author_id,omitempty"`
	AuthorUsername string    `json:"author_username,omitempty"`
	ChannelID      string    `json:"channel_id,omitempty"`
	ChannelName    string    `json:"channel_name,omitempty"`
	PostedAt       time.Time `json:"posted_at"`
}

// Channel is a monitorable target known to the collector.
type Channel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsGroup  bool   `json:"is_group"`
	Type     string `json:"type"` // "user", "chat", "channel", "group"
	Platform string `json:"platform"`
}

// RateLimit is the remaining-quota snapshot the collector reports per
// platform.
type RateLimit struct {
	Remaining int        `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// Fetcher is the part of the collector the ingest loop depends on.
type Fetcher interface {
	FetchContent(ctx context.Context, platformType, channel string, limit int) ([]Item, *RateLimit, error)
}

// Client talks to the content collector service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new collector API client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// FetchContent pulls up to limit items for one channel of a platform. The
// collector's rate-limit snapshot rides along in the response.
func (c *Client) FetchContent(ctx context.Context, platformType, channel string, limit int) ([]Item, *RateLimit, error) {
	endpoint := fmt.Sprintf("%s/%s/collect?channel=%s&limit=%d",
		c.baseURL, platformType, url.QueryEscape(channel), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to make request to collector", zap.Error(err))
		return nil, nil, fmt.Errorf("failed to make request to collector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimit{Remaining: 0}, fmt.Errorf("collector rate limited for %s", platformType)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Collector returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.String("platform", platformType))
		return nil, nil, fmt.Errorf("collector returned status: %d", resp.StatusCode)
	}

	var response struct {
		Items     []Item     `json:"items"`
		RateLimit *RateLimit `json:"rate_limit,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, nil, fmt.Errorf("failed to decode collector response: %w", err)
	}

	c.logger.Debug("Fetched content from collector",
		zap.String("platform", platformType),
		zap.String("channel", channel),
		zap.Int("count", len(response.Items)))
	return response.Items, response.RateLimit, nil
}

// ListChannels fetches the monitorable channels the collector knows for a
// platform.
func (c *Client) ListChannels(ctx context.Context, platformType string) ([]Channel, error) {
	endpoint := fmt.Sprintf("%s/%s/channels", c.baseURL, platformType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to make request to collector for channels", zap.Error(err))
		return nil, fmt.Errorf("failed to make request to collector for channels: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("collector returned status for channels: %d", resp.StatusCode)
	}

	var response struct {
		Channels []Channel `json:"channels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode collector channels response: %w", err)
	}

	c.logger.Info("Fetched channels from collector",
		zap.String("platform", platformType),
		zap.Int("count", len(response.Channels)))
	return response.Channels, nil
}

// Ping verifies the collector is reachable for a platform. Used by the
// connection health check before a session starts pulling.
func (c *Client) Ping(ctx context.Context, platformType string) error {
	endpoint := fmt.Sprintf("%s/%s/health", c.baseURL, platformType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("collector unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collector health check returned status: %d", resp.StatusCode)
	}
	return nil
}
