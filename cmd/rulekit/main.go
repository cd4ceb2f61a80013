// Command rulekit compiles, checks and runs spawn and event rule files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/rulekit/internal/cli"
	"github.com/roach88/rulekit/internal/config"
	"github.com/roach88/rulekit/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rulekit: load config: %v\n", err)
		return cli.ExitCommandError
	}
	slog.SetDefault(logging.New(cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cli.NewRootCommand(cfg).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rulekit: %v\n", err)
	}
	return cli.GetExitCode(err)
}
