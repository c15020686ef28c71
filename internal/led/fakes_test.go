package led

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sync"

	"github.com/kioskled/ledupdater/internal/display"
)

var errFake = errors.New("fake failure")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeController records every command it receives.
type fakeController struct {
	mu         sync.Mutex
	address    string
	calls      []string
	items      map[string]string
	layout     string
	brightness int
	fail       map[string]error
}

func newFakeController(address string) *fakeController {
	return &fakeController{address: address, fail: make(map[string]error)}
}

func (f *fakeController) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.fail[op]
}

func (f *fakeController) RefreshTimer(_ context.Context) error {
	return f.record("RefreshTimer")
}

func (f *fakeController) UpdateDataItems(_ context.Context, items map[string]string) error {
	if err := f.record("UpdateDataItems"); err != nil {
		return err
	}
	f.mu.Lock()
	f.items = maps.Clone(items)
	f.mu.Unlock()
	return nil
}

func (f *fakeController) EnsureLayoutEnabled(_ context.Context, layout string) error {
	if err := f.record("EnsureLayoutEnabled"); err != nil {
		return err
	}
	f.mu.Lock()
	f.layout = layout
	f.mu.Unlock()
	return nil
}

func (f *fakeController) SetBrightness(_ context.Context, level int) error {
	if err := f.record("SetBrightness"); err != nil {
		return err
	}
	f.mu.Lock()
	f.brightness = level
	f.mu.Unlock()
	return nil
}

func (f *fakeController) setFail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeController) snapshot() (calls []string, items map[string]string, layout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), maps.Clone(f.items), f.layout
}

func (f *fakeController) level() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.brightness
}

func (f *fakeController) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

// fakeTelemetry serves canned realtime responses.
type fakeTelemetry struct {
	mu            sync.Mutex
	departures    [][]display.Departure
	departuresErr error
	messages      []display.GeneralMessage
	messagesErr   error
	panicMessages bool
	fetches       int

	heartbeats chan string
}

func newFakeTelemetry() *fakeTelemetry {
	return &fakeTelemetry{heartbeats: make(chan string, 64)}
}

// Departures returns the queued batches in order, then empty batches.
func (f *fakeTelemetry) Departures(_ context.Context, _, _ string) ([]display.Departure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.departuresErr != nil {
		return nil, f.departuresErr
	}
	if len(f.departures) == 0 {
		return []display.Departure{}, nil
	}
	batch := f.departures[0]
	f.departures = f.departures[1:]
	return batch, nil
}

func (f *fakeTelemetry) ActiveMessages(_ context.Context) ([]display.GeneralMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicMessages {
		f.panicMessages = false
		panic("messages exploded")
	}
	return f.messages, f.messagesErr
}

func (f *fakeTelemetry) LogHeartbeat(_ context.Context, kioskID string) error {
	select {
	case f.heartbeats <- kioskID:
	default:
	}
	return nil
}

func (f *fakeTelemetry) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// fakeDarkMode returns queued answers, repeating the last one.
type fakeDarkMode struct {
	mu      sync.Mutex
	answers []bool
	err     error
}

func (f *fakeDarkMode) DarkMode(_ context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if len(f.answers) == 0 {
		return false, nil
	}
	v := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return v, nil
}

func (f *fakeDarkMode) set(dark bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = []bool{dark}
	f.err = err
}

// fakeDirectory returns a fixed kiosk list.
type fakeDirectory struct {
	kiosks []Kiosk
	err    error
}

func (f *fakeDirectory) ListKiosks(_ context.Context) ([]Kiosk, error) {
	return f.kiosks, f.err
}

// controllerSet hands out one fakeController per address.
type controllerSet struct {
	mu    sync.Mutex
	ctrls map[string][]*fakeController
}

func newControllerSet() *controllerSet {
	return &controllerSet{ctrls: make(map[string][]*fakeController)}
}

func (s *controllerSet) factory(address string) Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := newFakeController(address)
	s.ctrls[address] = append(s.ctrls[address], c)
	return c
}

func (s *controllerSet) get(address string) []*fakeController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeController(nil), s.ctrls[address]...)
}
