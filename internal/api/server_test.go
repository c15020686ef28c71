package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kioskled/ledupdater/internal/api/models"
	"github.com/kioskled/ledupdater/internal/events"
	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/metrics/exporters"
)

type fakeFleet struct {
	kiosks []led.Kiosk
	frames map[string]led.Frame
}

func (f *fakeFleet) Kiosks() []led.Kiosk { return f.kiosks }

func (f *fakeFleet) Kiosk(id string) (led.Kiosk, bool) {
	for _, k := range f.kiosks {
		if k.ID == id {
			return k, true
		}
	}
	return led.Kiosk{}, false
}

func (f *fakeFleet) Frame(id string) (led.Frame, bool) {
	fr, ok := f.frames[id]
	return fr, ok
}

type fakeStatus map[string]led.KioskStatus

func (f fakeStatus) Get(id string) (led.KioskStatus, bool) {
	s, ok := f[id]
	return s, ok
}

type fakeBrightness led.BrightnessState

func (f fakeBrightness) State() led.BrightnessState { return led.BrightnessState(f) }

func newTestServer(t *testing.T, opts *Options) *httptest.Server {
	t.Helper()
	if opts.Fleet == nil {
		opts.Fleet = &fakeFleet{
			kiosks: []led.Kiosk{
				{ID: "k1", StopID: "IT", DisplayName: "Illinois Terminal", SignAddress: "10.0.0.1"},
				{ID: "k2", StopID: "PLAZA", DisplayName: "Transit Plaza", SignAddress: "10.0.0.2"},
			},
			frames: map[string]led.Frame{
				"k1": {Layout: led.LayoutTwoLineDepartures, Items: map[string]string{led.ItemTopLeft: "10"}},
			},
		}
	}
	srv := NewServer(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url, user, pass string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHealth_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret", InstanceID: "abc"})

	resp := get(t, ts.URL+"/api/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[models.HealthData](t, resp)
	if body.Status != "ok" || body.Kiosks != 2 || body.InstanceID != "abc" {
		t.Errorf("health = %+v", body)
	}
}

func TestVersion(t *testing.T) {
	ts := newTestServer(t, &Options{})

	resp := get(t, ts.URL+"/api/version", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["version"] == "" || body["go_version"] == "" {
		t.Errorf("version = %v", body)
	}
}

func TestBasicAuth(t *testing.T) {
	ts := newTestServer(t, &Options{AuthUsername: "admin", AuthPassword: "secret"})

	tests := []struct {
		name   string
		user   string
		pass   string
		query  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "wrong password", user: "admin", pass: "nope", status: http.StatusUnauthorized},
		{name: "valid header", user: "admin", pass: "secret", status: http.StatusOK},
		{name: "valid query", query: "?auth=" + base64.StdEncoding.EncodeToString([]byte("admin:secret")), status: http.StatusOK},
		{name: "garbage query", query: "?auth=!!!", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+"/api/kiosks"+tt.query, tt.user, tt.pass)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status == http.StatusUnauthorized && resp.Header.Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestListKiosks(t *testing.T) {
	ts := newTestServer(t, &Options{
		Status: fakeStatus{"k1": {KioskID: "k1", State: led.StateSteady, Layout: led.LayoutTwoLineDepartures, LastSuccess: true}},
	})

	resp := get(t, ts.URL+"/api/kiosks", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[models.KioskListData](t, resp)
	if body.Count != 2 || len(body.Kiosks) != 2 {
		t.Fatalf("count = %d, kiosks = %d", body.Count, len(body.Kiosks))
	}
	if body.Kiosks[0].ID != "k1" || body.Kiosks[0].Status.State != led.StateSteady {
		t.Errorf("kiosk[0] = %+v", body.Kiosks[0])
	}
	if body.Kiosks[1].Status.KioskName != "Transit Plaza" {
		t.Errorf("kiosk without status should fall back to its name: %+v", body.Kiosks[1].Status)
	}
}

func TestGetKiosk(t *testing.T) {
	ts := newTestServer(t, &Options{})

	resp := get(t, ts.URL+"/api/kiosks/k1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[models.KioskDetailData](t, resp)
	if body.StopID != "IT" || body.Frame.Layout != led.LayoutTwoLineDepartures || body.Frame.Items[led.ItemTopLeft] != "10" {
		t.Errorf("kiosk = %+v", body)
	}

	missing := get(t, ts.URL+"/api/kiosks/nope", "", "")
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing kiosk status = %d, want 404", missing.StatusCode)
	}
}

func TestBrightness(t *testing.T) {
	off := newTestServer(t, &Options{})
	if resp := get(t, off.URL+"/api/brightness", "", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status without loop = %d, want 503", resp.StatusCode)
	}

	on := newTestServer(t, &Options{Brightness: fakeBrightness{Level: 40, DarkMode: true, Signs: 2}})
	resp := get(t, on.URL+"/api/brightness", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[led.BrightnessState](t, resp)
	if body.Level != 40 || !body.DarkMode || body.Signs != 2 {
		t.Errorf("brightness = %+v", body)
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	ts := newTestServer(t, &Options{
		AuthUsername:      "admin",
		AuthPassword:      "secret",
		PrometheusHandler: exporters.HTTPHandler(),
	})

	resp := get(t, ts.URL+"/metrics", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 without auth", resp.StatusCode)
	}
}

func TestLogs(t *testing.T) {
	logging.Initialize(logging.Config{Level: "debug", Format: "text"})
	logging.GetLogger("kiosk").Info("Sign updated", "layout", led.LayoutOneLineMessage)
	logging.GetLogger("brightness").Warn("Failed to fetch dark mode status")

	ts := newTestServer(t, &Options{})

	resp := get(t, ts.URL+"/api/logs?module=kiosk", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[models.LogsData](t, resp)
	found := false
	for _, e := range body.Entries {
		if e.Module != "kiosk" {
			t.Errorf("entry from module %q leaked through filter", e.Module)
		}
		if e.Message == "Sign updated" {
			found = true
		}
	}
	if !found {
		t.Errorf("entries = %+v, want the kiosk log line", body.Entries)
	}
}

func TestRecentLogs(t *testing.T) {
	now := time.Now()
	history := logging.NewHistory(10)
	for _, e := range []logging.LogEntry{
		{Timestamp: now, Level: "debug", Module: "kiosk", KioskID: "k1", Message: "a"},
		{Timestamp: now, Level: "info", Module: "kiosk", KioskID: "k2", Message: "b"},
		{Timestamp: now, Level: "warn", Module: "brightness", Message: "c"},
		{Timestamp: now, Level: "error", Module: "kiosk", KioskID: "k1", Message: "d"},
	} {
		history.Append(e)
	}

	tests := []struct {
		name  string
		input models.LogsRequest
		want  string
	}{
		{name: "all", want: "abcd"},
		{name: "warn and up", input: models.LogsRequest{Level: "warn"}, want: "cd"},
		{name: "module", input: models.LogsRequest{Module: "kiosk"}, want: "abd"},
		{name: "kiosk", input: models.LogsRequest{Kiosk: "k1"}, want: "ad"},
		{name: "limit keeps newest", input: models.LogsRequest{Limit: 2}, want: "cd"},
		{name: "combined", input: models.LogsRequest{Level: "info", Module: "kiosk", Limit: 1}, want: "d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got strings.Builder
			for _, e := range recentLogs(history, &tt.input) {
				got.WriteString(e.Message)
			}
			if got.String() != tt.want {
				t.Errorf("recentLogs() = %q, want %q", got.String(), tt.want)
			}
		})
	}

	if got := recentLogs(nil, &models.LogsRequest{}); got == nil || len(got) != 0 {
		t.Errorf("recentLogs(nil) = %v, want empty slice", got)
	}
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"module=kiosk", "module=kiosk"},
		{"auth=YWRtaW46c2VjcmV0&level=warn", "auth=REDACTED&level=warn"},
	}
	for _, tt := range tests {
		if got := redactQuery(tt.in); got != tt.want {
			t.Errorf("redactQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEventStream(t *testing.T) {
	bus := events.New()
	ts := newTestServer(t, &Options{EventBus: bus})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}

	// The handler subscribes after the request arrives, so keep
	// publishing until the client sees an event.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				bus.Publish(events.SignCycleEvent{KioskID: "k1", Layout: led.LayoutTwoLineDepartures, Success: true})
			}
		}
	}()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var sawEvent, sawData bool
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event: sign-cycle" {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"kiosk_id":"k1"`) {
			sawData = true
		}
		if sawEvent && sawData {
			break
		}
	}
	if !sawEvent || !sawData {
		t.Errorf("did not see sign-cycle event (event=%v data=%v)", sawEvent, sawData)
	}
}
