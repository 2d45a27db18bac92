// Command sift runs the answer-engine HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wickcity/sift/pkg/config"
	"github.com/wickcity/sift/pkg/fetch"
	"github.com/wickcity/sift/pkg/pipeline"
	"github.com/wickcity/sift/pkg/search"
	"github.com/wickcity/sift/pkg/server"
	"github.com/wickcity/sift/pkg/worker"
)

// Filled at build time with the -X linker flag.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("SIFT_CONFIG"), "path to the YAML config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("sift %s (%s, built %s)\n", Tag, Commit, BuildTime)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	logger.Info().
		Str("version", Tag).
		Str("address", cfg.Server.Address).
		Msg("starting sift")

	fetcher := fetch.NewClient(&cfg.Fetch, logger)
	defer fetcher.Close()

	orchestrator := search.NewOrchestrator(&cfg.Search, fetcher, logger)
	answers := pipeline.New(fetcher, orchestrator, logger)
	workers := worker.NewRunner(cfg.Server.WorkerBinary, logger)
	srv := server.New(&cfg.Server, answers, workers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}

// newLogger builds the root logger from config: console writer for local
// development, JSON to stderr otherwise.
func newLogger(cfg config.Logging) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	logger = logger.Level(level).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
