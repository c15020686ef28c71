package led

import (
	"context"
	"sync"

	"github.com/kioskled/ledupdater/internal/display"
	"github.com/kioskled/ledupdater/internal/logging"
)

// Sign layouts.
const (
	LayoutTwoLineDepartures = "TwoLineDepartures"
	LayoutOneLineMessage    = "OneLineMessage"
	LayoutTwoLineMessage    = "TwoLineMessage"
)

// Sign data items.
const (
	ItemTopLeft      = "Top_Left"
	ItemTopRight     = "Top_Right"
	ItemTopCenter    = "Top_Center"
	ItemBottomLeft   = "Bottom_Left"
	ItemBottomRight  = "Bottom_Right"
	ItemBottomCenter = "Bottom_Center"
)

// Frame is what one cycle put on a sign.
type Frame struct {
	Layout string            `json:"layout" example:"TwoLineDepartures" doc:"Layout enabled on the sign"`
	Items  map[string]string `json:"items" doc:"Data item values written to the sign"`
}

// Presenter turns a selected message and the departure buffer into sign
// commands for one kiosk.
type Presenter struct {
	ctrl   Controller
	logger logging.Logger

	mu   sync.RWMutex
	last Frame
}

// NewPresenter creates a presenter for ctrl.
func NewPresenter(ctrl Controller, logger logging.Logger) *Presenter {
	return &Presenter{ctrl: ctrl, logger: logger}
}

// Present shows one cycle's content and reports whether every sign
// command succeeded. The keep-alive is refreshed first; if that fails
// nothing else is sent and buf is left untouched. msg may be nil.
func (p *Presenter) Present(ctx context.Context, msg *display.GeneralMessage, buf *display.Buffer) bool {
	if err := p.ctrl.RefreshTimer(ctx); err != nil {
		p.logger.Warn("Failed to refresh sign keep-alive", "error", err)
		return false
	}
	return p.show(ctx, compose(msg, buf))
}

// Blank clears the sign to an empty two-line message.
func (p *Presenter) Blank(ctx context.Context) bool {
	if err := p.ctrl.RefreshTimer(ctx); err != nil {
		p.logger.Warn("Failed to refresh sign keep-alive", "error", err)
		return false
	}
	return p.show(ctx, messageFrame(""))
}

// Last returns the frame most recently written in full.
func (p *Presenter) Last() Frame {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

func (p *Presenter) show(ctx context.Context, f Frame) bool {
	if err := p.ctrl.UpdateDataItems(ctx, f.Items); err != nil {
		p.logger.Warn("Failed to update sign data items", "layout", f.Layout, "error", err)
		return false
	}
	if err := p.ctrl.EnsureLayoutEnabled(ctx, f.Layout); err != nil {
		p.logger.Warn("Failed to enable sign layout", "layout", f.Layout, "error", err)
		return false
	}

	p.mu.Lock()
	p.last = f
	p.mu.Unlock()

	p.logger.Debug("Sign updated", "layout", f.Layout)
	return true
}

// compose picks the layout for msg and pops the departures it needs.
func compose(msg *display.GeneralMessage, buf *display.Buffer) Frame {
	switch {
	case msg != nil && msg.Blocking:
		return messageFrame(msg.Text)
	case buf.IsEmpty():
		if msg != nil {
			return messageFrame(msg.Text)
		}
		return messageFrame(display.NoDeparturesText)
	case msg != nil:
		d, _ := buf.PopNext()
		return Frame{
			Layout: LayoutOneLineMessage,
			Items: map[string]string{
				ItemTopCenter:   display.SignText(msg.Text),
				ItemBottomLeft:  display.SignText(d.Route),
				ItemBottomRight: display.SignText(d.Time),
			},
		}
	}

	top, _ := buf.PopNext()
	bottom, err := buf.PopNext()
	if err != nil {
		bottom = display.Departure{}
	}
	return Frame{
		Layout: LayoutTwoLineDepartures,
		Items: map[string]string{
			ItemTopLeft:     display.SignText(top.Route),
			ItemTopRight:    display.SignText(top.Time),
			ItemBottomLeft:  display.SignText(bottom.Route),
			ItemBottomRight: display.SignText(bottom.Time),
		},
	}
}

func messageFrame(text string) Frame {
	return Frame{
		Layout: LayoutTwoLineMessage,
		Items: map[string]string{
			ItemTopCenter:    display.SignText(text),
			ItemBottomCenter: "",
		},
	}
}
