package led

import (
	"time"

	"github.com/kioskled/ledupdater/internal/ipdisplays"
	"github.com/kioskled/ledupdater/internal/logging"
)

// NewFactory returns a Factory producing IP Displays clients with the
// given request timeout, or dry-run controllers that only log when
// dryRun is set.
func NewFactory(timeout time.Duration, dryRun bool, logger logging.Logger) Factory {
	if dryRun {
		if logger != nil {
			logger.Info("Sign dry run enabled, no commands will reach the signs")
		}
		return func(address string) Controller {
			return newNoop(address, logger)
		}
	}
	return func(address string) Controller {
		return ipdisplays.New(address, timeout, logger)
	}
}
