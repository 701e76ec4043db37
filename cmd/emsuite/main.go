package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/emsuite/internal/browser"
	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/employees"
	"github.com/ternarybob/emsuite/internal/harness"
	"github.com/ternarybob/emsuite/internal/httpclient"
	"github.com/ternarybob/emsuite/internal/report"
	"github.com/ternarybob/emsuite/internal/scenario"
	"github.com/ternarybob/emsuite/internal/server"
	"github.com/ternarybob/emsuite/internal/telemetry"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles configPaths
	runNames    = flag.String("run", "", "Comma-separated scenario names to run (default: all)")
	listOnly    = flag.Bool("list", false, "List the scenario catalogue and exit")
	useFixture  = flag.Bool("fixture", false, "Serve the built-in Employee app and test against it")
	showVersion = flag.Bool("version", false, "Print version information")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()
	flag.Parse()

	if *showVersion {
		fmt.Printf("emsuite version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	if *listOnly {
		for _, def := range employees.Catalog() {
			fmt.Printf("%-28s %s\n", def.Name, def.Description)
		}
		os.Exit(0)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("emsuite.toml"); err == nil {
			configFiles = append(configFiles, "emsuite.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.InstallCrashHandler(config.Output.ResultsDir)
	logger := common.InitLogger(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, config, logger)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, config *common.Config, logger arbor.ILogger) int {
	if *useFixture {
		fmt.Println("STEP 0: Starting fixture Employee app...")
		fmt.Println(strings.Repeat("-", 80))
		srv := server.New("127.0.0.1:0", logger, server.NewStore())
		baseURL, err := srv.Listen()
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start fixture app")
			return 1
		}
		common.SafeGoWithContext(ctx, logger, "fixture-server", srv.Serve)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("Fixture app shutdown failed")
			}
		}()
		config.App.BaseURL = baseURL
		fmt.Printf("✓ Fixture app ready on %s\n\n", baseURL)
	}

	common.PrintBanner(config, logger)

	if config.Telemetry.TraceStdout {
		tp, err := telemetry.NewTracerProvider("emsuite", common.GetVersion(), os.Stdout)
		if err != nil {
			logger.Warn().Err(err).Msg("Tracing disabled")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
		}
	}

	defs, err := selectScenarios(config, *runNames)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid scenario selection")
		return 1
	}

	fmt.Println("STEP 1: Verifying application is reachable...")
	fmt.Println(strings.Repeat("-", 80))
	if err := httpclient.WaitForService(ctx, config.BaseURL(), config.PageLoadTimeout(), 500*time.Millisecond); err != nil {
		logger.Warn().Err(err).Msg("Application not reachable, scenarios are likely to fail")
	} else {
		fmt.Printf("✓ %s is up\n\n", config.BaseURL())
	}

	fmt.Printf("STEP 2: Running %d scenarios against %s...\n", len(defs), config.BaseURL())
	fmt.Println(strings.Repeat("-", 80))

	provisioner := browser.NewProvisioner(config, logger)
	h := harness.New(config, logger, harness.FromProvisioner(provisioner))

	startedAt := time.Now()
	results, runErr := h.Run(ctx, defs)

	fmt.Println("\nSTEP 3: Writing reports...")
	fmt.Println(strings.Repeat("-", 80))
	summary := report.NewSummary(config.Output.ReportTitle, h.RunID, startedAt, results)
	if runErr != nil {
		summary.Aborted = runErr.Error()
	}
	if _, err := report.WriteAll(config.Output.ResultsDir, config.Output.Formats, summary, logger); err != nil {
		logger.Warn().Err(err).Msg("Some reports could not be written")
	}
	if path := config.Telemetry.MetricsTextfile; path != "" {
		if err := telemetry.WriteTextfile(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("Failed to write metrics textfile")
		}
	}

	printSummary(summary, config.Output.ResultsDir)

	if errors.Is(runErr, harness.ErrRemoteUnavailable) {
		logger.Error().Err(runErr).Msg("Run aborted")
		return 1
	}
	if !summary.OK() {
		return 1
	}
	return 0
}

// selectScenarios resolves -run against the catalogue. The smoke check runs
// first when a smoke URL is configured and is dropped otherwise.
func selectScenarios(config *common.Config, names string) ([]employees.Definition, error) {
	var picked []employees.Definition
	if strings.TrimSpace(names) == "" {
		picked = employees.Catalog()
	} else {
		for _, name := range strings.Split(names, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			def, ok := employees.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("unknown scenario %q (see -list)", name)
			}
			picked = append(picked, def)
		}
	}

	var smoke, rest []employees.Definition
	for _, def := range picked {
		if def.Smoke {
			if config.Smoke.URL != "" {
				smoke = append(smoke, def)
			}
			continue
		}
		rest = append(rest, def)
	}

	defs := append(smoke, rest...)
	if len(defs) == 0 {
		return nil, errors.New("no scenarios selected")
	}
	return defs, nil
}

func printSummary(s report.Summary, resultsDir string) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("TEST SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	for _, r := range s.Results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Printf("%-30s %s (%.2fs)\n", r.Name, status, r.Elapsed.Seconds())
		if !r.Passed {
			fmt.Printf("  %s\n", failureLine(r))
		}
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Total: %d passed, %d failed (%.2fs)\n", s.Passed, s.Failed, s.Duration.Seconds())
	fmt.Printf("Reports: %s\n", filepath.Clean(resultsDir))

	switch {
	case s.Aborted != "":
		fmt.Printf("\n✗ RUN ABORTED: %s\n", s.Aborted)
	case s.OK():
		fmt.Println("\n✓ ALL TESTS PASSED")
	default:
		fmt.Println("\n✗ SOME TESTS FAILED")
	}
}

func failureLine(r scenario.Result) string {
	if r.Screenshot != "" {
		return fmt.Sprintf("%s [%s] screenshot: %s", r.FailureReason, r.FailureKind, r.Screenshot)
	}
	return fmt.Sprintf("%s [%s]", r.FailureReason, r.FailureKind)
}
