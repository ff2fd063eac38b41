// Package cmd wires the harness engines into a CLI.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tradeharness/tradeharness/internal/logging"
)

// RootCmd is the root Cobra command. All subcommands are registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tradeharness",
		Short: "tradeharness exercises a trading platform from the outside.",
		Long: `tradeharness exercises a trading platform from the outside.

It drives HTTP traffic against service endpoints in two modes: an ordered
test suite with retries and per-test timeouts, and a concurrent load run
with live latency statistics. Scenarios are described in a yaml file
passed with --scenario.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("log-level", "info", "zap log level")
	cmd.PersistentFlags().StringP("scenario", "f", "", "scenario yaml file")

	cmd.AddCommand(
		loadCmd(),
		suiteCmd(),
	)

	return cmd
}

func newLogger(cmd *cobra.Command) (*zap.SugaredLogger, error) {
	levelStr, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return nil, err
	}
	return logging.New(level)
}

// signalContext returns a context cancelled when the process receives
// SIGINT or SIGTERM, so in-flight runs stop cleanly on ctrl-C.
func signalContext(logger *zap.SugaredLogger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	procDone := make(chan os.Signal, 1)
	signal.Notify(procDone, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer cancel()

		select {
		case <-procDone:
			logger.Warnw("shutdown requested", "requester", "user")
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
