// Package sanity reads the kiosk directory from a Sanity dataset.
package sanity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/version"
)

// Error codes for directory queries.
const (
	ErrCodeRequestFailed = "REQUEST_FAILED"
	ErrCodeBadStatus     = "BAD_STATUS"
	ErrCodeDecodeFailed  = "DECODE_FAILED"
	ErrCodeNoKiosks      = "NO_KIOSKS"
)

// Error is returned by ListKiosks.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

const (
	kioskQuery    = `*[_type == "kiosk" && defined(ledIp)]{_id, stopId, displayName, ledIp}`
	devKioskQuery = `*[_type == "kiosk" && isDevelopmentKiosk && defined(ledIp)]{_id, stopId, displayName, ledIp}`
)

// Config identifies the dataset to query.
type Config struct {
	ProjectID       string
	Dataset         string
	APIVersion      string
	Token           string
	UseCDN          bool
	DevelopmentOnly bool
	Timeout         time.Duration
}

// Client queries kiosk documents.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// New creates a directory client.
func New(cfg Config, logger logging.Logger) *Client {
	host := "api"
	if cfg.UseCDN {
		host = "apicdn"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		baseURL: fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type kioskDocument struct {
	ID          string `json:"_id"`
	StopID      string `json:"stopId"`
	DisplayName string `json:"displayName"`
	LedIP       string `json:"ledIp"`
}

type queryResponse struct {
	Query  string          `json:"query"`
	Result []kioskDocument `json:"result"`
	Ms     int             `json:"ms"`
}

// ListKiosks returns every kiosk with a sign address. Documents missing an
// id, stop or address are skipped. An empty result is an error.
func (c *Client) ListKiosks(ctx context.Context) ([]led.Kiosk, error) {
	query := kioskQuery
	if c.cfg.DevelopmentOnly {
		query = devKioskQuery
	}
	endpoint := fmt.Sprintf("%s/%s/data/query/%s?query=%s",
		c.baseURL, c.cfg.APIVersion, url.PathEscape(c.cfg.Dataset), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Code: ErrCodeRequestFailed, Message: "build query", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Code: ErrCodeRequestFailed, Message: "query " + c.baseURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			Code:    ErrCodeBadStatus,
			Message: fmt.Sprintf("sanity returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))),
		}
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Code: ErrCodeDecodeFailed, Message: "decode query response", Cause: err}
	}
	c.logger.Debug("Kiosk query complete", "documents", len(out.Result), "ms", out.Ms)

	kiosks := make([]led.Kiosk, 0, len(out.Result))
	for _, doc := range out.Result {
		if doc.ID == "" || doc.StopID == "" || doc.LedIP == "" {
			c.logger.Warn("Skipping incomplete kiosk document", "id", doc.ID, "stop_id", doc.StopID, "led_ip", doc.LedIP)
			continue
		}
		name := doc.DisplayName
		if name == "" {
			name = doc.ID
		}
		kiosks = append(kiosks, led.Kiosk{
			ID:          doc.ID,
			StopID:      doc.StopID,
			DisplayName: name,
			SignAddress: doc.LedIP,
		})
	}

	if len(kiosks) == 0 {
		return nil, &Error{Code: ErrCodeNoKiosks, Message: "directory returned no kiosks with a sign address"}
	}
	return kiosks, nil
}
