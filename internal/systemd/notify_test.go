package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	states []string
	err    error
}

func (r *recorder) notify(state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return r.err == nil, r.err
}

func (r *recorder) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.states {
		if s == state {
			n++
		}
	}
	return n
}

func newTestNotifier(r *recorder, watchdog time.Duration) *Notifier {
	n := NewNotifier(slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.notify = r.notify
	n.watchdog = func() (time.Duration, error) { return watchdog, nil }
	return n
}

func TestNotifier_Lifecycle(t *testing.T) {
	r := &recorder{}
	n := newTestNotifier(r, 0)

	n.Ready()
	n.Status("12 kiosks")
	n.Stopping()

	want := []string{"READY=1", "STATUS=12 kiosks", "STOPPING=1"}
	if len(r.states) != len(want) {
		t.Fatalf("states = %v, want %v", r.states, want)
	}
	for i := range want {
		if r.states[i] != want[i] {
			t.Errorf("state[%d] = %q, want %q", i, r.states[i], want[i])
		}
	}
}

func TestNotifier_ErrorsAreSwallowed(t *testing.T) {
	r := &recorder{err: errors.New("socket gone")}
	n := newTestNotifier(r, 0)

	n.Ready()
	if r.count("READY=1") != 1 {
		t.Error("notify should still be attempted")
	}
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	r := &recorder{}
	n := newTestNotifier(r, 0)

	done := make(chan struct{})
	go func() {
		n.RunWatchdog(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunWatchdog should return when no watchdog is configured")
	}
}

func TestNotifier_WatchdogPings(t *testing.T) {
	r := &recorder{}
	n := newTestNotifier(r, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.RunWatchdog(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for r.count("WATCHDOG=1") < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for watchdog pings")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}
