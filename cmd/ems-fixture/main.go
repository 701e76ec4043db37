package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/emsuite/internal/common"
	"github.com/ternarybob/emsuite/internal/server"
)

var (
	addr      = flag.String("addr", "127.0.0.1:5173", "Listen address")
	seedCount = flag.Int("seed", 0, "Number of sample employees to create at start-up")
	logLevel  = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
)

func main() {
	defer common.RecoverWithCrashFile()
	flag.Parse()

	config := common.NewDefaultConfig()
	config.Logging.Level = *logLevel
	logger := common.InitLogger(config)

	store := server.NewStore()
	levels := []string{"Intern", "Junior", "Senior"}
	for i := 1; i <= *seedCount; i++ {
		if _, err := store.Create(server.Employee{
			Name:     fmt.Sprintf("Sample Employee %d", i),
			Position: "Engineer",
			Level:    levels[i%len(levels)],
		}); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed employees")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(*addr, logger, store)
	baseURL, err := srv.Listen()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to listen")
	}
	common.SafeGoWithContext(ctx, logger, "fixture-server", srv.Serve)

	logger.Info().
		Str("url", baseURL).
		Int("seeded", *seedCount).
		Msg("Fixture Employee app ready - Press Ctrl+C to stop")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
