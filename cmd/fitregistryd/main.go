// Command fitregistryd is a reference binary wiring a minimal fit.Runtime
// around the facade — demonstrating the whole module the same way
// cmd/server/main.go demonstrates its own server.
//
// It is not itself a FIT Runtime: a real Runtime embeds package fit
// directly and implements fit.Runtime/fit.Notifier with its own fitable
// dispatch. This binary exists so the module can be exercised end to end
// (register a static demo fitable, go online, expose /metrics) without a
// full platform around it.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go"
	"github.com/fitframework/fit-registry-go/internal/config"
	"github.com/fitframework/fit-registry-go/types"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type cliConfig struct {
	env          string
	configDir    string
	metricsAddr  string
	workerBinary string
	logLevel     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &cliConfig{}

	root := &cobra.Command{
		Use:   "fitregistryd",
		Short: "fitregistryd — reference Runtime around the FIT registry/heartbeat facade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.env, "env", envOrDefault("FIT_ENV", "development"), "config environment overlay (development, production, ...)")
	root.PersistentFlags().StringVar(&cfg.configDir, "config-dir", envOrDefault("FIT_CONFIG_DIR", "config"), "directory containing base.yaml and <env>.yaml")
	root.PersistentFlags().StringVar(&cfg.metricsAddr, "metrics-addr", envOrDefault("FIT_METRICS_ADDR", ":9100"), "address to serve /metrics on")
	root.PersistentFlags().StringVar(&cfg.workerBinary, "heartbeat-worker-binary", envOrDefault("FIT_HEARTBEAT_WORKER_BIN", "heartbeatworker"), "path to the cmd/heartbeatworker binary")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("FIT_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fitregistryd %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func run(ctx context.Context, cliCfg *cliConfig) error {
	logger, err := buildLogger(cliCfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cliCfg.env, cliCfg.configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rt := newStandaloneRuntime(logger)

	f, err := fit.New(ctx, fit.Options{
		Config:       cfg,
		Runtime:      rt,
		Notifier:     fit.NopNotifier{Logger: logger},
		Logger:       logger,
		WorkerBinary: cliCfg.workerBinary,
	})
	if err != nil {
		return fmt.Errorf("failed to assemble fit facade: %w", err)
	}
	defer f.Close() //nolint:errcheck

	worker, app, metas := demoFitables(rt.workerID, cliCfg.metricsAddr)
	if err := f.RegisterFitables(ctx, metas, worker, app); err != nil {
		return fmt.Errorf("failed to register demo fitables: %w", err)
	}
	rt.registerAll = func() {
		if err := f.RegisterFitables(context.Background(), metas, worker, app); err != nil {
			logger.Error("re-register demo fitables failed", zap.Error(err))
		}
	}

	go serveMetrics(cliCfg.metricsAddr, logger)

	if err := f.Online(); err != nil {
		return fmt.Errorf("failed to go online: %w", err)
	}
	logger.Info("fitregistryd online", zap.String("worker_id", rt.workerID))

	<-ctx.Done()
	logger.Info("shutting down", zap.Bool("heartbeat_exited_unexpectedly", f.HeartBeatExitedUnexpectedly()))
	return f.Offline()
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}

// demoFitables builds the static Worker/Application/FitableMeta this
// binary registers at startup, standing in for the fitable set a real
// Runtime would assemble from its own plugin manifest. The single
// endpoint points at the metrics listener so the registration is at
// least reachable.
func demoFitables(workerID, metricsAddr string) (types.Worker, types.Application, []types.FitableMeta) {
	port := 9100
	if _, portStr, err := net.SplitHostPort(metricsAddr); err == nil {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	worker := types.Worker{
		Addresses: []types.Address{
			{Host: "127.0.0.1", Endpoints: []types.Endpoint{{Port: port, Protocol: types.ProtocolHTTP}}},
		},
		ID:          workerID,
		Environment: "standalone",
	}
	app := types.Application{Name: "fitregistryd", NameVersion: "1.0"}
	metas := []types.FitableMeta{
		{
			Fitable: types.Fitable{
				GenericableID:      "fitregistryd.demo",
				GenericableVersion: "1.0",
				FitableID:          "fitregistryd.demo.default",
				FitableVersion:     "1.0",
			},
			Formats: []types.WireFormat{types.WireFormatJSON},
		},
	}
	return worker, app, metas
}

// standaloneRuntime is the minimal fit.Runtime this reference binary
// supplies: a stable worker id, a re-registration hook wired up once the
// demo fitables are known, and a runtime shutdown that logs and exits the
// process — the two callbacks a real platform Runtime would otherwise
// implement.
type standaloneRuntime struct {
	workerID    string
	logger      *zap.Logger
	registerAll func()
}

func newStandaloneRuntime(logger *zap.Logger) *standaloneRuntime {
	return &standaloneRuntime{workerID: uuid.NewString(), logger: logger}
}

func (r *standaloneRuntime) GetRuntimeWorkerID() string { return r.workerID }

func (r *standaloneRuntime) RuntimeShutdown() {
	r.logger.Error("runtime shutdown requested by heartbeat supervisor")
	os.Exit(1)
}

func (r *standaloneRuntime) RegisterAllFitServices() {
	if r.registerAll != nil {
		r.registerAll()
		return
	}
	r.logger.Info("heartbeat reconnected: no fitables registered yet")
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config

	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

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
