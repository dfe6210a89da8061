// Command heartbeatworker is the out-of-process body of the Heartbeat
// Agent's loop, run in a separate OS process on platforms where that's
// cheap. The parent process (internal/heartbeat's processWorker) spawns
// this binary, writes one WireStartConfig line to its stdin, and reads
// one WireTickEvent line per attempt back from stdout until it writes
// "stop" or its own stdin pipe closes.
//
// Shrunk from cmd/agent/main.go down to the one loop this process owns:
// cobra for the rare case this binary is invoked directly (for manual
// testing), buildLogger reused verbatim.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go/internal/heartbeat"
	"github.com/fitframework/fit-registry-go/internal/heartbeatrpc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "heartbeatworker",
		Short: "Out-of-process heartbeat loop spawned by fit-registry's heartbeat agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOrDefault("FIT_LOG_LEVEL", "info"), "log level written to stderr (debug, info, warn, error)")
	return root
}

func run(ctx context.Context, logLevel string) error {
	logger, err := buildLogger(logLevel)
	if err != nil {
		return fmt.Errorf("heartbeatworker: build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = heartbeat.RunChild(ctx, os.Stdin, os.Stdout, func(rpcAddr string) heartbeat.Transport {
		client, dialErr := heartbeatrpc.NewClient(rpcAddr)
		if dialErr != nil {
			logger.Fatal("heartbeatworker: dial heartbeat rpc", zap.Error(dialErr))
		}
		return client
	})
	if err != nil {
		logger.Info("heartbeatworker: exiting", zap.Error(err))
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	// Every log line from this process lands on the child's stderr, which
	// the parent's processWorker scans and re-logs (internal/heartbeat's
	// drainStderr) — stdout is reserved for framed WireTickEvent JSON.
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
