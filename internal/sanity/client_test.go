package sanity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kioskled/ledupdater/internal/led"
)

func newTestClient(t *testing.T, cfg Config, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = srv.URL
	return c
}

func TestNew_BaseURL(t *testing.T) {
	logger := slog.Default()
	if got := New(Config{ProjectID: "abc"}, logger).baseURL; got != "https://abc.api.sanity.io" {
		t.Errorf("baseURL = %q", got)
	}
	if got := New(Config{ProjectID: "abc", UseCDN: true}, logger).baseURL; got != "https://abc.apicdn.sanity.io" {
		t.Errorf("CDN baseURL = %q", got)
	}
}

func TestClient_ListKiosks(t *testing.T) {
	cfg := Config{ProjectID: "abc", Dataset: "production", APIVersion: "v2021-10-21", Token: "tok"}
	c := newTestClient(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2021-10-21/data/query/production" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query().Get("query")
		if !strings.Contains(q, "defined(ledIp)") || strings.Contains(q, "isDevelopmentKiosk") {
			t.Errorf("query = %q", q)
		}
		io.WriteString(w, `{"query":"...","ms":4,"result":[
			{"_id":"k1","stopId":"IT","displayName":"Illinois Terminal","ledIp":"10.0.0.5"},
			{"_id":"k2","stopId":"PLAZA","ledIp":"10.0.0.6"},
			{"_id":"k3","stopId":"","ledIp":"10.0.0.7"},
			{"_id":"k4","stopId":"GRG","displayName":"Garage"}
		]}`)
	})

	kiosks, err := c.ListKiosks(context.Background())
	if err != nil {
		t.Fatalf("ListKiosks() error = %v", err)
	}
	want := []led.Kiosk{
		{ID: "k1", StopID: "IT", DisplayName: "Illinois Terminal", SignAddress: "10.0.0.5"},
		{ID: "k2", StopID: "PLAZA", DisplayName: "k2", SignAddress: "10.0.0.6"},
	}
	if len(kiosks) != len(want) {
		t.Fatalf("got %d kiosks, want %d: %+v", len(kiosks), len(want), kiosks)
	}
	for i := range want {
		if kiosks[i] != want[i] {
			t.Errorf("kiosk %d = %+v, want %+v", i, kiosks[i], want[i])
		}
	}
}

func TestClient_ListKiosksDevelopmentOnly(t *testing.T) {
	cfg := Config{ProjectID: "abc", Dataset: "production", APIVersion: "v1", DevelopmentOnly: true}
	c := newTestClient(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Query().Get("query"), "isDevelopmentKiosk") {
			t.Errorf("query missing development filter: %q", r.URL.Query().Get("query"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("no token configured, Authorization should be empty")
		}
		io.WriteString(w, `{"result":[{"_id":"k1","stopId":"IT","ledIp":"10.0.0.5"}]}`)
	})

	if _, err := c.ListKiosks(context.Background()); err != nil {
		t.Fatalf("ListKiosks() error = %v", err)
	}
}

func TestClient_ListKiosksErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode string
	}{
		{
			name:     "no kiosks",
			handler:  func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, `{"result":[]}`) },
			wantCode: ErrCodeNoKiosks,
		},
		{
			name: "bad status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			},
			wantCode: ErrCodeBadStatus,
		},
		{
			name:     "malformed",
			handler:  func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, `{"result":[`) },
			wantCode: ErrCodeDecodeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, Config{ProjectID: "abc", Dataset: "production", APIVersion: "v1"}, tt.handler)
			_, err := c.ListKiosks(context.Background())
			var sErr *Error
			if !errors.As(err, &sErr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if sErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", sErr.Code, tt.wantCode)
			}
		})
	}
}
