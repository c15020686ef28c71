package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kioskled/ledupdater/internal/logging"
)

// Sign brightness range accepted by the controllers.
const (
	MinBrightness = 1
	MaxBrightness = 127
)

// Options is the flat option set shared by the CLI, the environment and
// the config file.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username" default:"admin" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"password" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Update cadence
	UpdateSignInterval       string `help:"Delay between sign update cycles" default:"5s" toml:"update.sign_interval" env:"UPDATE_SIGN_INTERVAL"`
	UpdateBrightnessInterval string `help:"Delay between dark mode polls" default:"60s" toml:"update.brightness_interval" env:"UPDATE_BRIGHTNESS_INTERVAL"`

	// Brightness levels
	BrightnessLight int `help:"Sign brightness in light mode (1-127)" default:"100" toml:"brightness.light" env:"BRIGHTNESS_LIGHT"`
	BrightnessDark  int `help:"Sign brightness in dark mode (1-127)" default:"40" toml:"brightness.dark" env:"BRIGHTNESS_DARK"`

	// Sign controllers
	SignsTimeout string `help:"Sign controller request timeout" default:"16s" toml:"signs.timeout" env:"SIGNS_TIMEOUT"`
	SignsDryRun  bool   `help:"Log sign commands instead of sending them" default:"false" toml:"signs.dry_run" env:"SIGNS_DRY_RUN"`

	// Realtime API
	RealtimeDeparturesURL string `help:"Departures endpoint base URL" toml:"realtime.departures_url" env:"REALTIME_DEPARTURES_URL"`
	RealtimeMessagesURL   string `help:"General messages endpoint URL" toml:"realtime.messages_url" env:"REALTIME_MESSAGES_URL"`
	RealtimeDarkModeURL   string `help:"Dark mode endpoint URL" toml:"realtime.dark_mode_url" env:"REALTIME_DARK_MODE_URL"`
	RealtimeHeartbeatURL  string `help:"Heartbeat endpoint base URL" toml:"realtime.heartbeat_url" env:"REALTIME_HEARTBEAT_URL"`
	RealtimeAPIKey        string `help:"Realtime API key" toml:"realtime.api_key" env:"REALTIME_API_KEY"`
	RealtimeTimeout       string `help:"Realtime API request timeout" default:"10s" toml:"realtime.timeout" env:"REALTIME_TIMEOUT"`

	// Kiosk directory
	SanityProjectID       string `help:"Sanity project ID" toml:"sanity.project_id" env:"SANITY_PROJECT_ID"`
	SanityDataset         string `help:"Sanity dataset" default:"production" toml:"sanity.dataset" env:"SANITY_DATASET"`
	SanityAPIVersion      string `help:"Sanity API version" default:"v2021-10-21" toml:"sanity.api_version" env:"SANITY_API_VERSION"`
	SanityToken           string `help:"Sanity read token" toml:"sanity.token" env:"SANITY_TOKEN"`
	SanityUseCDN          bool   `help:"Query the Sanity CDN" default:"true" toml:"sanity.use_cdn" env:"SANITY_USE_CDN"`
	SanityDevelopmentOnly bool   `help:"Only drive kiosks flagged for development" default:"false" toml:"sanity.development_only" env:"SANITY_DEVELOPMENT_ONLY"`

	// Process
	InstanceLockFile string `help:"Lock file preventing two updaters on one host (default: <tmp>/ledupdater.lock)" toml:"instance.lock_file" env:"INSTANCE_LOCK_FILE"`
	MetricsEnabled   bool   `help:"Serve Prometheus metrics on /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingFleet      string `help:"Fleet logging level" default:"info" toml:"logging.fleet" env:"LOGGING_FLEET"`
	LoggingKiosk      string `help:"Kiosk loop logging level" default:"info" toml:"logging.kiosk" env:"LOGGING_KIOSK"`
	LoggingBrightness string `help:"Brightness loop logging level" default:"info" toml:"logging.brightness" env:"LOGGING_BRIGHTNESS"`
	LoggingSigns      string `help:"Sign controller logging level" default:"info" toml:"logging.signs" env:"LOGGING_SIGNS"`
	LoggingRealtime   string `help:"Realtime API logging level" default:"info" toml:"logging.realtime" env:"LOGGING_REALTIME"`
	LoggingSanity     string `help:"Kiosk directory logging level" default:"info" toml:"logging.sanity" env:"LOGGING_SANITY"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// Validate reports every invalid option at once.
func (o *Options) Validate() error {
	errs := []error{o.ValidateDirectory()}

	errs = append(errs,
		checkDuration("update.sign_interval", o.UpdateSignInterval),
		checkDuration("update.brightness_interval", o.UpdateBrightnessInterval),
		checkDuration("signs.timeout", o.SignsTimeout),
		checkDuration("realtime.timeout", o.RealtimeTimeout),
		checkBrightness("brightness.light", o.BrightnessLight),
		checkBrightness("brightness.dark", o.BrightnessDark),
		checkURL("realtime.departures_url", o.RealtimeDeparturesURL),
		checkURL("realtime.messages_url", o.RealtimeMessagesURL),
		checkURL("realtime.dark_mode_url", o.RealtimeDarkModeURL),
		checkURL("realtime.heartbeat_url", o.RealtimeHeartbeatURL),
	)
	if o.RealtimeAPIKey == "" {
		errs = append(errs, errors.New("realtime.api_key is required"))
	}

	if o.LoggingFormat != "text" && o.LoggingFormat != "json" {
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", o.LoggingFormat))
	}
	for name, level := range o.moduleLevels() {
		if level != "" && !logging.ValidLevel(level) {
			errs = append(errs, fmt.Errorf("logging.%s: unknown level %q", name, level))
		}
	}
	if !logging.ValidLevel(o.LoggingLevel) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", o.LoggingLevel))
	}

	return errors.Join(errs...)
}

// ValidateDirectory checks only the options needed to query the kiosk
// directory.
func (o *Options) ValidateDirectory() error {
	var errs []error
	if o.SanityProjectID == "" {
		errs = append(errs, errors.New("sanity.project_id is required"))
	}
	if o.SanityDataset == "" {
		errs = append(errs, errors.New("sanity.dataset is required"))
	}
	if o.SanityAPIVersion == "" {
		errs = append(errs, errors.New("sanity.api_version is required"))
	}
	return errors.Join(errs...)
}

// SignInterval is the delay between kiosk cycles.
func (o *Options) SignInterval() time.Duration {
	return durationOr(o.UpdateSignInterval, 5*time.Second)
}

// BrightnessInterval is the delay between dark mode polls.
func (o *Options) BrightnessInterval() time.Duration {
	return durationOr(o.UpdateBrightnessInterval, time.Minute)
}

// SignTimeout bounds each sign controller request.
func (o *Options) SignTimeout() time.Duration {
	return durationOr(o.SignsTimeout, 16*time.Second)
}

// RealtimeRequestTimeout bounds each realtime API request.
func (o *Options) RealtimeRequestTimeout() time.Duration {
	return durationOr(o.RealtimeTimeout, 10*time.Second)
}

// LockFile returns the instance lock path.
func (o *Options) LockFile() string {
	if o.InstanceLockFile != "" {
		return o.InstanceLockFile
	}
	return filepath.Join(os.TempDir(), "ledupdater.lock")
}

// LoggingConfig builds the logging configuration from the options.
func (o *Options) LoggingConfig() logging.Config {
	return logging.Config{
		Level:   o.LoggingLevel,
		Format:  o.LoggingFormat,
		Modules: o.moduleLevels(),
	}
}

func (o *Options) moduleLevels() map[string]string {
	return map[string]string{
		"fleet":      o.LoggingFleet,
		"kiosk":      o.LoggingKiosk,
		"brightness": o.LoggingBrightness,
		"signs":      o.LoggingSigns,
		"realtime":   o.LoggingRealtime,
		"sanity":     o.LoggingSanity,
		"api":        o.LoggingAPI,
	}
}

func checkDuration(name, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return nil
}

func checkBrightness(name string, level int) error {
	if level < MinBrightness || level > MaxBrightness {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, MinBrightness, MaxBrightness, level)
	}
	return nil
}

func checkURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, value)
	}
	return nil
}

func durationOr(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
