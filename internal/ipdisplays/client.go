// Package ipdisplays is a client for the SOAP API exposed by IP Displays
// LED sign controllers.
package ipdisplays

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kioskled/ledupdater/internal/logging"
)

// DefaultTimeout is used when New is given a zero timeout.
const DefaultTimeout = 16 * time.Second

// KeepAliveItem is the data item the sign uses to detect a stale feed.
const KeepAliveItem = "Time_Since_Last_Update"

// Brightness range accepted by SetSignBrightness.
const (
	MinBrightness = 1
	MaxBrightness = 127
)

const maxResponseBytes = 1 << 20

// Client talks to one sign controller. Layout states are cached after the
// first GetLayouts call so EnsureLayoutEnabled only sends changes.
type Client struct {
	address  string
	endpoint string
	http     *http.Client
	logger   logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	layouts map[string]bool
	order   []string
}

// New creates a client for the controller at address (host or host:port).
func New(address string, timeout time.Duration, logger logging.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		address:  address,
		endpoint: "http://" + address + "/soap1.wsdl",
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
		now:      time.Now,
	}
}

// Address returns the controller address.
func (c *Client) Address() string {
	return c.address
}

// RefreshTimer writes the current time into the keep-alive item.
func (c *Client) RefreshTimer(ctx context.Context) error {
	return c.UpdateDataItem(ctx, KeepAliveItem, c.now().Format("2006-01-02 15:04:05"))
}

// UpdateDataItem sets a single named data item.
func (c *Client) UpdateDataItem(ctx context.Context, name, value string) error {
	return c.call(ctx, "UpdateDataItemValueByName", updateDataItemRequest{
		NS:    Namespace,
		Name:  name,
		Value: value,
	}, nil)
}

// UpdateDataItems sets several data items in one request. Items are sent
// in name order.
func (c *Client) UpdateDataItems(ctx context.Context, items map[string]string) error {
	const op = "UpdateDataItemValues"
	if len(items) == 0 {
		return nil
	}

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	slices.Sort(names)

	doc := DataItems{Items: make([]DataItem, 0, len(names))}
	for _, name := range names {
		doc.Items = append(doc.Items, DataItem{Name: name, Value: items[name]})
	}
	payload, err := xml.Marshal(doc)
	if err != nil {
		return newError(op, ErrCodeInvalidValue, "encode data items", err)
	}

	return c.call(ctx, op, updateDataItemsRequest{NS: Namespace, DataItems: string(payload)}, nil)
}

// SetLayoutState enables or disables one layout.
func (c *Client) SetLayoutState(ctx context.Context, layout string, enabled bool) error {
	state := 0
	if enabled {
		state = 1
	}
	return c.call(ctx, "SetLayoutState", setLayoutStateRequest{
		NS:         Namespace,
		LayoutName: layout,
		State:      state,
	}, nil)
}

// Layouts lists the layouts configured on the sign and refreshes the
// layout state cache.
func (c *Client) Layouts(ctx context.Context) ([]Layout, error) {
	const op = "GetLayouts"

	var resp getLayoutsResponse
	if err := c.call(ctx, op, getLayoutsRequest{NS: Namespace}, &resp); err != nil {
		return nil, err
	}

	doc := resp.Result.Doc
	if doc == nil {
		text := strings.TrimSpace(resp.Result.Text)
		if text == "" {
			return nil, newError(op, ErrCodeDecodeFailed, "empty layouts result", nil)
		}
		doc = &Layouts{}
		if err := xml.Unmarshal([]byte(text), doc); err != nil {
			return nil, newError(op, ErrCodeDecodeFailed, "parse layouts document", err)
		}
	}

	states := make(map[string]bool, len(doc.Layouts))
	order := make([]string, 0, len(doc.Layouts))
	for _, l := range doc.Layouts {
		if l.Name == "" {
			continue
		}
		if _, dup := states[l.Name]; !dup {
			order = append(order, l.Name)
		}
		states[l.Name] = l.IsEnabled()
	}

	c.mu.Lock()
	c.layouts = states
	c.order = order
	c.mu.Unlock()

	return doc.Layouts, nil
}

// EnsureLayoutEnabled leaves exactly layout enabled. The target is
// switched on before the others are switched off, and only layouts whose
// cached state differs are touched. Any failure drops the cache so the
// next call re-reads the sign.
func (c *Client) EnsureLayoutEnabled(ctx context.Context, layout string) error {
	const op = "EnsureLayoutEnabled"

	states, order, err := c.layoutStates(ctx)
	if err != nil {
		return err
	}
	if _, ok := states[layout]; !ok {
		return newError(op, ErrCodeUnknownLayout, fmt.Sprintf("sign %s has no layout %q", c.address, layout), nil)
	}

	if !states[layout] {
		if err := c.setCached(ctx, layout, true); err != nil {
			return err
		}
	}
	for _, name := range order {
		if name == layout || !states[name] {
			continue
		}
		if err := c.setCached(ctx, name, false); err != nil {
			return err
		}
	}
	return nil
}

// SetBrightness sets the sign brightness.
func (c *Client) SetBrightness(ctx context.Context, level int) error {
	const op = "SetSignBrightness"
	if level < MinBrightness || level > MaxBrightness {
		return newError(op, ErrCodeInvalidValue,
			fmt.Sprintf("brightness %d outside %d-%d", level, MinBrightness, MaxBrightness), nil)
	}
	return c.call(ctx, op, setSignBrightnessRequest{NS: Namespace, Brightness: level}, nil)
}

func (c *Client) layoutStates(ctx context.Context) (map[string]bool, []string, error) {
	c.mu.Lock()
	cached := c.layouts != nil
	c.mu.Unlock()

	if !cached {
		if _, err := c.Layouts(ctx); err != nil {
			return nil, nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.layouts), slices.Clone(c.order), nil
}

func (c *Client) setCached(ctx context.Context, layout string, enabled bool) error {
	if err := c.SetLayoutState(ctx, layout, enabled); err != nil {
		c.mu.Lock()
		c.layouts = nil
		c.order = nil
		c.mu.Unlock()
		return err
	}
	c.mu.Lock()
	if c.layouts != nil {
		c.layouts[layout] = enabled
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) call(ctx context.Context, op string, request, response any) error {
	payload, err := marshalEnvelope(request)
	if err != nil {
		return newError(op, ErrCodeInvalidValue, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return newError(op, ErrCodeRequestFailed, "build request", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", fmt.Sprintf("%q", Namespace+"#"+op))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return newError(op, ErrCodeRequestFailed, "send to "+c.address, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return newError(op, ErrCodeRequestFailed, "read response", err)
	}
	c.logger.Debug("Sign call", "sign", c.address, "op", op, "status", resp.StatusCode, "elapsed", time.Since(start))

	var env responseEnvelope
	decodeErr := xml.Unmarshal(data, &env)
	if decodeErr == nil && env.Body.Fault != nil {
		return newError(op, ErrCodeFault, strings.TrimSpace(env.Body.Fault.String), errors.New(env.Body.Fault.Code))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(op, ErrCodeBadStatus, fmt.Sprintf("sign %s returned %s", c.address, resp.Status), nil)
	}
	if response == nil {
		return nil
	}
	if decodeErr != nil {
		return newError(op, ErrCodeDecodeFailed, "parse envelope", decodeErr)
	}
	if err := xml.Unmarshal(env.Body.Content, response); err != nil {
		return newError(op, ErrCodeDecodeFailed, "parse response body", err)
	}
	return nil
}
