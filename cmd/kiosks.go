package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kioskled/ledupdater/internal/config"
	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/sanity"
	"github.com/spf13/cobra"
)

// CreateKiosksCmd creates the kiosks command. options returns the service
// options after the root command has parsed flags, environment and config
// file.
func CreateKiosksCmd(options func() *config.Options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "kiosks",
		Short: "List kiosks from the directory",
		Long: `Queries the kiosk directory with the configured Sanity settings and prints ` +
			`every kiosk the updater would drive, with its stop and sign address.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			opts := options()
			if opts == nil {
				return errors.New("options not loaded")
			}
			if err := opts.ValidateDirectory(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			client := sanity.New(directoryConfig(opts), logging.GetLogger("sanity"))
			kiosks, err := client.ListKiosks(ctx)
			if err != nil {
				return fmt.Errorf("list kiosks: %w", err)
			}

			printKiosks(c.OutOrStdout(), isTerminal(os.Stdout), kiosks)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Directory query timeout")

	return cmd
}

// directoryConfig maps options onto the directory client config.
func directoryConfig(opts *config.Options) sanity.Config {
	return sanity.Config{
		ProjectID:       opts.SanityProjectID,
		Dataset:         opts.SanityDataset,
		APIVersion:      opts.SanityAPIVersion,
		Token:           opts.SanityToken,
		UseCDN:          opts.SanityUseCDN,
		DevelopmentOnly: opts.SanityDevelopmentOnly,
	}
}

func printKiosks(w io.Writer, tty bool, kiosks []led.Kiosk) {
	rows := make([][]string, 0, len(kiosks))
	for _, k := range kiosks {
		rows = append(rows, []string{k.ID, k.DisplayName, k.StopID, k.SignAddress})
	}
	writeRows(w, tty, []string{"ID", "NAME", "STOP", "SIGN"}, rows)
}
