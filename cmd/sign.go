package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kioskled/ledupdater/internal/config"
	"github.com/kioskled/ledupdater/internal/ipdisplays"
	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/spf13/cobra"
)

// CreateSignCmd creates the sign command for poking a single controller.
func CreateSignCmd() *cobra.Command {
	var (
		address    string
		blank      bool
		brightness int
		layouts    bool
		timeout    time.Duration
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Send commands to one sign controller",
		Long: `Talks to a single IP Displays controller without the updater running. ` +
			`Use it to list layouts, blank the sign, or set its brightness while commissioning hardware.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if address == "" {
				return errors.New("--address is required")
			}
			if !blank && !layouts && brightness == 0 {
				return errors.New("nothing to do: pass --layouts, --blank or --brightness")
			}
			if brightness != 0 && (brightness < config.MinBrightness || brightness > config.MaxBrightness) {
				return fmt.Errorf("--brightness must be between %d and %d", config.MinBrightness, config.MaxBrightness)
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.Initialize(logging.Config{Level: level, Format: "text"})
			logger := logging.GetLogger("signs").With("address", address)

			client := ipdisplays.New(address, timeout, logger)
			return runSign(c.Context(), c.OutOrStdout(), isTerminal(os.Stdout), client, signActions{
				blank:      blank,
				brightness: brightness,
				layouts:    layouts,
			}, logger)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Sign controller address (host or host:port)")
	cmd.Flags().BoolVar(&blank, "blank", false, "Show an empty message on the sign")
	cmd.Flags().IntVar(&brightness, "brightness", 0, "Set sign brightness (1-127)")
	cmd.Flags().BoolVar(&layouts, "layouts", false, "List layouts configured on the sign")
	cmd.Flags().DurationVar(&timeout, "timeout", ipdisplays.DefaultTimeout, "Request timeout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every SOAP call")

	return cmd
}

type signActions struct {
	blank      bool
	brightness int
	layouts    bool
}

// signClient is the subset of the controller client the command uses.
type signClient interface {
	led.Controller
	Layouts(ctx context.Context) ([]ipdisplays.Layout, error)
}

func runSign(ctx context.Context, w io.Writer, tty bool, client signClient, act signActions, logger logging.Logger) error {
	if act.layouts {
		list, err := client.Layouts(ctx)
		if err != nil {
			return fmt.Errorf("get layouts: %w", err)
		}
		rows := make([][]string, 0, len(list))
		for _, l := range list {
			rows = append(rows, []string{l.RecID, l.Name, l.Order, strconv.FormatBool(l.IsEnabled())})
		}
		writeRows(w, tty, []string{"ID", "NAME", "ORDER", "ENABLED"}, rows)
	}

	if act.brightness != 0 {
		if err := client.SetBrightness(ctx, act.brightness); err != nil {
			return fmt.Errorf("set brightness: %w", err)
		}
		fmt.Fprintf(w, "brightness set to %d\n", act.brightness)
	}

	if act.blank {
		if !led.NewPresenter(client, logger).Blank(ctx) {
			return errors.New("blank sign: controller rejected the update, see log")
		}
		fmt.Fprintln(w, "sign blanked")
	}

	return nil
}
