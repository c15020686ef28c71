// Package realtime is a client for the transit realtime API that supplies
// departures, operator messages, dark mode status and heartbeats.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kioskled/ledupdater/internal/display"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/version"
)

const maxBodyBytes = 4 << 20

// Config holds the realtime endpoints.
type Config struct {
	DeparturesURL string
	MessagesURL   string
	DarkModeURL   string
	HeartbeatURL  string
	APIKey        string
	Timeout       time.Duration
}

// Client calls the realtime API. It is safe for concurrent use.
type Client struct {
	cfg    Config
	http   *http.Client
	logger logging.Logger
}

// New creates a realtime client.
func New(cfg Config, logger logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cfg.DeparturesURL = strings.TrimRight(cfg.DeparturesURL, "/")
	cfg.HeartbeatURL = strings.TrimRight(cfg.HeartbeatURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Departures returns upcoming departures for a stop, soonest first.
func (c *Client) Departures(ctx context.Context, stopID, kioskID string) ([]display.Departure, error) {
	endpoint := fmt.Sprintf("%s/%s/led?kioskId=%s", c.cfg.DeparturesURL, url.PathEscape(stopID), url.QueryEscape(kioskID))

	body, err := c.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.logger.Warn("Empty departures response", "stop_id", stopID)
		return []display.Departure{}, nil
	}

	var deps []display.Departure
	if err := json.Unmarshal(body, &deps); err != nil {
		return nil, &Error{Code: ErrCodeDecodeFailed, Message: "departures for stop " + stopID, Cause: err}
	}
	c.logger.Debug("Fetched departures", "stop_id", stopID, "count", len(deps))
	if deps == nil {
		deps = []display.Departure{}
	}
	return deps, nil
}

// ActiveMessages returns the operator messages currently in effect.
func (c *Client) ActiveMessages(ctx context.Context) ([]display.GeneralMessage, error) {
	body, err := c.do(ctx, http.MethodGet, c.cfg.MessagesURL)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var msgs []display.GeneralMessage
	if err := json.Unmarshal(body, &msgs); err != nil {
		return nil, &Error{Code: ErrCodeDecodeFailed, Message: "general messages", Cause: err}
	}
	return msgs, nil
}

// DarkMode reports whether signs should use the dark mode brightness.
func (c *Client) DarkMode(ctx context.Context) (bool, error) {
	body, err := c.do(ctx, http.MethodGet, c.cfg.DarkModeURL)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(string(body)), "true"), nil
}

// LogHeartbeat records that the kiosk's sign was updated.
func (c *Client) LogHeartbeat(ctx context.Context, kioskID string) error {
	endpoint := fmt.Sprintf("%s/led?kioskId=%s", c.cfg.HeartbeatURL, url.QueryEscape(kioskID))
	_, err := c.do(ctx, http.MethodPost, endpoint)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, &Error{Code: ErrCodeRequestFailed, Message: "build request", Cause: err}
	}
	req.Header.Set("X-ApiKey", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Code: ErrCodeRequestFailed, Message: method + " " + redact(endpoint), Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Code: ErrCodeRequestFailed, Message: "read response", Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Code:       ErrCodeBadStatus,
			Message:    fmt.Sprintf("%s %s returned %s", method, redact(endpoint), resp.Status),
			StatusCode: resp.StatusCode,
		}
	}
	return body, nil
}

// redact strips the query string from endpoint.
func redact(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
