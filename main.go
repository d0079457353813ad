package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/lifegrid/utils"
)

func main() {
	var (
		configPath = flag.String("config", "config.json", "Path to the JSON configuration file.")
		seed       = flag.Uint64("seed", 0, "Seed for the random fill. 0 picks one from the clock.")
		logLevel   = flag.String("log-level", "", "Logging level: debug, info, warn, error.")
		noClear    = flag.Bool("no-clear", false, "Do not clear the terminal between frames.")
	)
	flag.Parse()

	// Load configuration - fallback to defaults if file doesn't exist
	config, err := utils.LoadConfig(*configPath)
	missing := errors.Is(err, os.ErrNotExist)
	if err != nil && !missing {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if missing {
		config = utils.DefaultConfig()
	}
	if *seed != 0 {
		config.Seed = *seed
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}

	logger := utils.NewLogger(config.LogLevel, config.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	if missing {
		logger.Info("using default configuration", "path", *configPath)
	}

	// Handle Ctrl+C gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, config, !*noClear, logger); err != nil {
		logger.Error("session failed", "error", err)
		os.Exit(1)
	}
}

// run builds a session from config and serves commands from in until it ends
func run(ctx context.Context, in io.Reader, out io.Writer, config utils.Config, clearScreen bool, logger *slog.Logger) error {
	s, err := newSession(config, out, clearScreen, logger)
	if err != nil {
		return err
	}
	fmt.Fprint(out, helpText)
	return s.run(ctx, in)
}
