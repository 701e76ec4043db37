package common

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// RemoteURLEnv names the environment variable that selects a remote automation grid.
// When it is unset the suite launches a local browser process.
const RemoteURLEnv = "EMS_REMOTE_BROWSER_URL"

// Config represents the suite configuration. It is loaded once per process and
// treated as read-only afterwards.
type Config struct {
	App       AppConfig       `toml:"app" yaml:"app"`
	Timeouts  TimeoutsConfig  `toml:"timeouts" yaml:"timeouts"`
	Browser   BrowserConfig   `toml:"browser" yaml:"browser"`
	Runner    RunnerConfig    `toml:"runner" yaml:"runner"`
	Output    OutputConfig    `toml:"output" yaml:"output"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `toml:"telemetry" yaml:"telemetry"`
	Smoke     SmokeConfig     `toml:"smoke" yaml:"smoke"`
}

// AppConfig locates the application under test
type AppConfig struct {
	BaseURL string `toml:"base_url" yaml:"base_url" validate:"required,url"`
	APIURL  string `toml:"api_url" yaml:"api_url" validate:"omitempty,url"` // Documented only, scenarios drive the UI
}

// TimeoutsConfig holds every bounded wait used by sessions and scenarios (seconds)
type TimeoutsConfig struct {
	ImplicitWaitSeconds    int `toml:"implicit_wait_seconds" yaml:"implicit_wait_seconds" validate:"gt=0"`
	ExplicitWaitSeconds    int `toml:"explicit_wait_seconds" yaml:"explicit_wait_seconds" validate:"gt=0"`
	PageLoadTimeoutSeconds int `toml:"page_load_timeout_seconds" yaml:"page_load_timeout_seconds" validate:"gt=0"`
	SettleSeconds          int `toml:"settle_seconds" yaml:"settle_seconds" validate:"gt=0"` // Upper bound for post-submit polling
}

// BrowserConfig controls how sessions are provisioned
type BrowserConfig struct {
	Headless   bool   `toml:"headless" yaml:"headless"`
	WindowSize string `toml:"window_size" yaml:"window_size" validate:"required"` // "1920,1080" or "1920x1080"
	BinaryPath string `toml:"binary_path" yaml:"binary_path"`
	DriverPath string `toml:"driver_path" yaml:"driver_path"`
	RemoteURL  string `toml:"remote_url" yaml:"remote_url"` // Overridden by EMS_REMOTE_BROWSER_URL

	// Remote grid connection race: fixed delay, no backoff
	RemoteAttempts int    `toml:"remote_attempts" yaml:"remote_attempts" validate:"gt=0"`
	RemoteDelay    string `toml:"remote_delay" yaml:"remote_delay" validate:"required"`
	// Bound on a single remote attempt; a grid that accepts but never answers
	// must not hold an attempt for the full page-load timeout
	RemoteConnectTimeout string `toml:"remote_connect_timeout" yaml:"remote_connect_timeout" validate:"required"`
}

// RunnerConfig controls scenario scheduling
type RunnerConfig struct {
	Parallel          int     `toml:"parallel" yaml:"parallel" validate:"gte=1"`
	SessionsPerSecond float64 `toml:"sessions_per_second" yaml:"sessions_per_second" validate:"gte=0"` // 0 = unlimited
}

// OutputConfig controls where run artifacts land
type OutputConfig struct {
	ResultsDir           string   `toml:"results_dir" yaml:"results_dir" validate:"required"`
	ReportTitle          string   `toml:"report_title" yaml:"report_title"`
	Formats              []string `toml:"formats" yaml:"formats" validate:"dive,oneof=json markdown html pdf"`
	ScreenshotsOnFailure bool     `toml:"screenshots_on_failure" yaml:"screenshots_on_failure"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output" yaml:"output"` // "stdout", "file"
}

// TelemetryConfig enables optional run metrics and traces
type TelemetryConfig struct {
	MetricsTextfile string `toml:"metrics_textfile" yaml:"metrics_textfile"` // Prometheus textfile collector output
	TraceStdout     bool   `toml:"trace_stdout" yaml:"trace_stdout"`
}

// SmokeConfig drives the browser start-up check
type SmokeConfig struct {
	URL           string `toml:"url" yaml:"url" validate:"omitempty,url"`
	TitleContains string `toml:"title_contains" yaml:"title_contains"`
}

// WindowSize is a parsed browser window geometry
type WindowSize struct {
	Width  int
	Height int
}

// NewDefaultConfig creates a configuration with default values matching a local
// Vite dev server and its API.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			BaseURL: "http://localhost:5173",
			APIURL:  "http://localhost:5000",
		},
		Timeouts: TimeoutsConfig{
			ImplicitWaitSeconds:    10,
			ExplicitWaitSeconds:    15,
			PageLoadTimeoutSeconds: 30,
			SettleSeconds:          3,
		},
		Browser: BrowserConfig{
			Headless:       true,
			WindowSize:     "1920,1080",
			RemoteAttempts: 30,
			RemoteDelay:    "2s",

			RemoteConnectTimeout: "2s",
		},
		Runner: RunnerConfig{
			Parallel: 1,
		},
		Output: OutputConfig{
			ResultsDir:           "./results",
			ReportTitle:          "Employee Management System - UI Test Report",
			Formats:              []string{"json", "html"},
			ScreenshotsOnFailure: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Smoke: SmokeConfig{
			URL:           "https://www.google.com",
			TitleContains: "Google",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Files ending in .yaml/.yml are decoded as YAML, everything else as TOML.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = toml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies EMS_* environment variable overrides to config. A
// value that does not parse is an error rather than a silently kept default.
func applyEnvOverrides(config *Config) error {
	if baseURL := os.Getenv("EMS_BASE_URL"); baseURL != "" {
		config.App.BaseURL = baseURL
	}
	if apiURL := os.Getenv("EMS_API_URL"); apiURL != "" {
		config.App.APIURL = apiURL
	}

	for _, o := range []struct {
		env    string
		target *int
	}{
		{"EMS_IMPLICIT_WAIT", &config.Timeouts.ImplicitWaitSeconds},
		{"EMS_EXPLICIT_WAIT", &config.Timeouts.ExplicitWaitSeconds},
		{"EMS_PAGE_LOAD_TIMEOUT", &config.Timeouts.PageLoadTimeoutSeconds},
	} {
		v := os.Getenv(o.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: expected whole seconds: %w", o.env, v, err)
		}
		*o.target = n
	}

	// HEADLESS=false is the conventional switch for watching a run locally
	for _, env := range []string{"EMS_HEADLESS", "HEADLESS"} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: expected true or false: %w", env, v, err)
		}
		config.Browser.Headless = b
		break
	}
	if v := os.Getenv("EMS_WINDOW_SIZE"); v != "" {
		config.Browser.WindowSize = v
	}
	if v := os.Getenv("EMS_CHROME_PATH"); v != "" {
		config.Browser.BinaryPath = v
	}
	if v := os.Getenv(RemoteURLEnv); v != "" {
		config.Browser.RemoteURL = v
	}

	if v := os.Getenv("EMS_RESULTS_DIR"); v != "" {
		config.Output.ResultsDir = v
	}
	if v := os.Getenv("EMS_LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// Validate checks the configuration invariants: all waits positive, a parseable
// window size with positive components and a parseable remote delay.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Window(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if d, err := time.ParseDuration(c.Browser.RemoteDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid configuration: browser.remote_delay %q is not a non-negative duration", c.Browser.RemoteDelay)
	}
	if d, err := time.ParseDuration(c.Browser.RemoteConnectTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid configuration: browser.remote_connect_timeout %q is not a positive duration", c.Browser.RemoteConnectTimeout)
	}
	return nil
}

// ParseWindowSize parses "WIDTH,HEIGHT" or "WIDTHxHEIGHT"
func ParseWindowSize(s string) (WindowSize, error) {
	sep := ","
	if !strings.Contains(s, sep) {
		sep = "x"
	}
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), sep)
	if len(parts) != 2 {
		return WindowSize{}, fmt.Errorf("window size %q must look like 1920,1080", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return WindowSize{}, fmt.Errorf("window size %q: bad width: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return WindowSize{}, fmt.Errorf("window size %q: bad height: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return WindowSize{}, fmt.Errorf("window size %q must have positive components", s)
	}
	return WindowSize{Width: width, Height: height}, nil
}

// Window returns the browser window geometry
func (c *Config) Window() (WindowSize, error) {
	return ParseWindowSize(c.Browser.WindowSize)
}

// ImplicitWait is the per-query element wait applied to every session
func (c *Config) ImplicitWait() time.Duration {
	return time.Duration(c.Timeouts.ImplicitWaitSeconds) * time.Second
}

// ExplicitWait is the budget for locating scenario targets
func (c *Config) ExplicitWait() time.Duration {
	return time.Duration(c.Timeouts.ExplicitWaitSeconds) * time.Second
}

// PageLoadTimeout bounds every navigation on a session
func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.Timeouts.PageLoadTimeoutSeconds) * time.Second
}

// SettleTimeout bounds polling after state-mutating submissions
func (c *Config) SettleTimeout() time.Duration {
	return time.Duration(c.Timeouts.SettleSeconds) * time.Second
}

// RemoteDelay is the fixed pause between remote connection attempts
func (c *Config) RemoteDelay() time.Duration {
	d, _ := time.ParseDuration(c.Browser.RemoteDelay)
	return d
}

// RemoteConnectTimeout bounds each remote connection attempt
func (c *Config) RemoteConnectTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Browser.RemoteConnectTimeout)
	return d
}

// BaseURL returns the application root without a trailing slash
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.App.BaseURL, "/")
}

// AppURL joins a path onto the application root
func (c *Config) AppURL(path string) string {
	if path == "" {
		return c.BaseURL()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.BaseURL() + path
}

// ParseRemoteURL validates a remote grid endpoint. Accepted schemes are the
// DevTools websocket (ws/wss) and http(s) discovery endpoints.
func ParseRemoteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("remote browser url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return nil, fmt.Errorf("remote browser url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("remote browser url %q: missing host", raw)
	}
	return u, nil
}
