package led

import (
	"context"
	"maps"
	"slices"

	"github.com/kioskled/ledupdater/internal/logging"
)

// noop implements Controller for dry runs: it logs what would be shown
// and never touches a sign.
type noop struct {
	address string
	logger  logging.Logger
}

// newNoop creates a dry-run controller for the sign at address.
func newNoop(address string, logger logging.Logger) *noop {
	return &noop{
		address: address,
		logger:  logger,
	}
}

func (n *noop) RefreshTimer(_ context.Context) error {
	n.logger.Debug("Dry run: refresh keep-alive", "sign", n.address)
	return nil
}

// UpdateDataItems logs the items in name order.
func (n *noop) UpdateDataItems(_ context.Context, items map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(items)) {
		n.logger.Info("Dry run: data item",
			"sign", n.address,
			"item", name,
			"value", items[name])
	}
	return nil
}

func (n *noop) EnsureLayoutEnabled(_ context.Context, layout string) error {
	n.logger.Info("Dry run: enable layout", "sign", n.address, "layout", layout)
	return nil
}

func (n *noop) SetBrightness(_ context.Context, level int) error {
	n.logger.Info("Dry run: set brightness", "sign", n.address, "brightness", level)
	return nil
}
