package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the runner banner and logs the resolved target
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.PrintSimple("EMS Suite", GetVersion())

	mode := "local"
	if config.Browser.RemoteURL != "" {
		mode = "remote"
	}
	logger.Info().
		Str("version", GetFullVersion()).
		Str("base_url", config.BaseURL()).
		Str("browser_mode", mode).
		Bool("headless", config.Browser.Headless).
		Str("window_size", config.Browser.WindowSize).
		Msg("Suite configuration resolved")
}
