package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	cli "github.com/neboloop/pageverify/cmd/pageverify"
	"github.com/neboloop/pageverify/internal/browser"
	"github.com/neboloop/pageverify/internal/config"
	"github.com/neboloop/pageverify/internal/logging"
	"github.com/neboloop/pageverify/internal/verify"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Config files are read once flags are parsed
	c, err := config.Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return verify.ExitEnvironment
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cli.SetupRootCmd(&c).ExecuteContext(ctx)

	if serr := browser.Shutdown(); serr != nil {
		logging.Debug("playwright shutdown failed", zap.Error(serr))
	}
	logging.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return verify.ExitCode(err)
}
