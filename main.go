package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/kioskled/ledupdater/cmd"
	"github.com/kioskled/ledupdater/internal/api"
	"github.com/kioskled/ledupdater/internal/config"
	"github.com/kioskled/ledupdater/internal/events"
	"github.com/kioskled/ledupdater/internal/instance"
	"github.com/kioskled/ledupdater/internal/led"
	"github.com/kioskled/ledupdater/internal/logging"
	"github.com/kioskled/ledupdater/internal/metrics/exporters"
	"github.com/kioskled/ledupdater/internal/realtime"
	"github.com/kioskled/ledupdater/internal/sanity"
	"github.com/kioskled/ledupdater/internal/systemd"
	"github.com/kioskled/ledupdater/internal/version"
)

const (
	statsInterval   = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	var options *config.Options

	// Create Huma CLI
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *config.Options) {
		options = opts

		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(opts.LoggingConfig())
		logger := logging.GetLogger("main")

		var (
			ctx, cancel = context.WithCancel(context.Background())
			lock        *instance.Lock
			watcher     *config.Watcher[logging.Config]
			manager     *led.Manager
			tracker     *led.StatusTracker
			sseExporter *exporters.SSEExporter
			server      *api.Server
			notifier    = systemd.NewNotifier(logger)
		)

		hooks.OnStart(func() {
			if err := opts.Validate(); err != nil {
				logger.Error("Invalid configuration", "error", err)
				os.Exit(1)
			}

			var err error
			lock, err = instance.Acquire(opts.LockFile())
			if err != nil {
				logger.Error("Failed to acquire instance lock", "path", opts.LockFile(), "error", err)
				os.Exit(1)
			}

			// Module levels follow edits to the config file without a restart
			watcher = config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logger,
				config.WithErrorHandler[logging.Config](func(err error) {
					logger.Warn("Failed to reload logging config", "error", err)
				}))
			watcher.OnReload(func(cfg logging.Config) {
				logging.SetLevels(cfg.Level, cfg.Modules)
				logger.Info("Logging levels reloaded", "level", cfg.Level)
			})
			if err := watcher.Start(ctx); err != nil {
				logger.Warn("Config watcher disabled", "path", opts.Config, "error", err)
			}

			// Create event bus for in-process event handling
			eventBus := events.New()
			api.ForwardLogs(eventBus)

			telemetry := realtime.New(realtime.Config{
				DeparturesURL: opts.RealtimeDeparturesURL,
				MessagesURL:   opts.RealtimeMessagesURL,
				DarkModeURL:   opts.RealtimeDarkModeURL,
				HeartbeatURL:  opts.RealtimeHeartbeatURL,
				APIKey:        opts.RealtimeAPIKey,
				Timeout:       opts.RealtimeRequestTimeout(),
			}, logging.GetLogger("realtime"))

			directory := sanity.New(sanity.Config{
				ProjectID:       opts.SanityProjectID,
				Dataset:         opts.SanityDataset,
				APIVersion:      opts.SanityAPIVersion,
				Token:           opts.SanityToken,
				UseCDN:          opts.SanityUseCDN,
				DevelopmentOnly: opts.SanityDevelopmentOnly,
			}, logging.GetLogger("sanity"))

			factory := led.NewFactory(opts.SignTimeout(), opts.SignsDryRun, logging.GetLogger("signs"))
			if opts.SignsDryRun {
				logger.Warn("Dry run enabled, sign commands are logged and not sent")
			}

			// Subscribe before the loops start so no early cycle is missed
			tracker = led.NewStatusTracker(eventBus)
			tracker.Start()

			manager = led.NewManager(led.ManagerConfig{
				Directory:   directory,
				Factory:     factory,
				Telemetry:   telemetry,
				Bus:         eventBus,
				Interval:    opts.SignInterval(),
				Logger:      logging.GetLogger("fleet"),
				KioskLogger: logging.GetLogger("kiosk"),
			})
			if err := manager.Start(ctx); err != nil {
				logger.Error("Failed to start kiosk loops", "error", err)
				_ = lock.Release()
				os.Exit(1)
			}

			brightness := led.NewBrightnessLoop(led.BrightnessConfig{
				Light:    opts.BrightnessLight,
				Dark:     opts.BrightnessDark,
				Interval: opts.BrightnessInterval(),
			}, telemetry, manager.Kiosks, factory, eventBus, logging.GetLogger("brightness"))
			go brightness.Run(ctx)

			sseExporter = exporters.NewSSEExporter(eventBus, statsInterval)
			sseExporter.Start(ctx)

			apiOpts := &api.Options{
				AuthUsername: opts.AuthUsername,
				AuthPassword: opts.AuthPassword,
				InstanceID:   lock.ID(),
				Fleet:        manager,
				Status:       tracker,
				Brightness:   brightness,
				EventBus:     eventBus,
			}
			if opts.MetricsEnabled {
				apiOpts.PrometheusHandler = exporters.HTTPHandler()
			}
			server = api.NewServer(apiOpts)

			kiosks := len(manager.Kiosks())
			logger.Info("LED updater started",
				"version", version.String(),
				"instance_id", lock.ID(),
				"kiosks", kiosks,
				"sign_interval", opts.SignInterval(),
				"brightness_interval", opts.BrightnessInterval())

			notifier.Ready()
			notifier.Status(fmt.Sprintf("Driving %d kiosk signs", kiosks))
			go notifier.RunWatchdog(ctx)

			if startErr := server.Start(opts.Port); startErr != nil {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if server != nil {
				stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
				if stopErr := server.Stop(stopCtx); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
				stopCancel()
			}

			// Loops see the cancellation and finish their current cycle
			cancel()
			if manager != nil {
				manager.Stop()
			}
			if sseExporter != nil {
				sseExporter.Stop()
			}
			if tracker != nil {
				tracker.Stop()
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			if lock != nil {
				if releaseErr := lock.Release(); releaseErr != nil {
					logger.Warn("Failed to release instance lock", "error", releaseErr)
				}
			}
		})
	})

	cli.Root().Version = version.String()
	cli.Root().AddCommand(cmd.CreateKiosksCmd(func() *config.Options { return options }))
	cli.Root().AddCommand(cmd.CreateSignCmd())

	// Run the CLI
	cli.Run()
}
