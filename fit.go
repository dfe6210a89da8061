// Package fit is the facade of the FIT service-discovery and liveness
// subsystem: it wires Identity & Codec, the Backend Adapter, the Registry
// Client, and the Heartbeat Agent into the nine upstream entry points
// callers use.
//
// Follows the same wiring order as cmd/agent/main.go — build logger,
// build the dependency graph bottom-up, start long-lived loops, block on
// ctx.Done() — and the interface-injection style executor.Executor and
// connection.Manager use for the collaborators they call back into
// (LogSink, StatusReporter defined where consumed, implemented where
// produced).
package fit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go/internal/config"
	"github.com/fitframework/fit-registry-go/internal/heartbeat"
	"github.com/fitframework/fit-registry-go/internal/heartbeatrpc"
	"github.com/fitframework/fit-registry-go/internal/metrics"
	"github.com/fitframework/fit-registry-go/internal/nacosclient"
	"github.com/fitframework/fit-registry-go/internal/registry"
	"github.com/fitframework/fit-registry-go/internal/workerpool"
	"github.com/fitframework/fit-registry-go/types"
)

// Runtime is the set of downstream dependencies the core calls out to:
// getRuntimeWorkerId, runtimeShutdown, registerAllFitServices. Implemented
// by whatever owns the Runtime process embedding this module.
type Runtime interface {
	GetRuntimeWorkerID() string
	RuntimeShutdown()
	RegisterAllFitServices()
}

// Notifier is the injection point for delivering change notifications
// downstream: it receives a fresh FitableAddressInstance every time a
// backend listener fires for a subscribed (group, service) key.
type Notifier interface {
	Notify(callbackFitableID string, result types.FitableAddressInstance)
}

// NopNotifier logs and discards every notification. It documents the
// shape callers must implement and is the default used by
// cmd/fitregistryd when no real Runtime callback is wired.
type NopNotifier struct {
	Logger *zap.Logger
}

func (n NopNotifier) Notify(callbackFitableID string, result types.FitableAddressInstance) {
	if n.Logger != nil {
		n.Logger.Info("fit: notify (no-op)",
			zap.String("callbackFitableId", callbackFitableID),
			zap.String("fitable", types.ServiceName(result.Fitable)),
			zap.Int("applications", len(result.Applications)),
		)
	}
}

// Fit is the assembled facade: the nine upstream entry points of the
// registry and heartbeat subsystems.
type Fit struct {
	logger   *zap.Logger
	adapter  *nacosclient.Adapter
	pool     *workerpool.Pool
	registry *registry.Client
	agent    *heartbeat.Agent
	rpc      *heartbeatrpc.Client
}

// Options configures New beyond the option table already captured by
// config.Config.
type Options struct {
	Config   config.Config
	Runtime  Runtime
	Notifier Notifier
	Logger   *zap.Logger

	// WorkerBinary/ForceThreadWorker feed heartbeat.Config: see
	// internal/heartbeat's process/thread worker split.
	WorkerBinary      string
	ForceThreadWorker bool

	// PoolSize overrides workerpool.DefaultSize (10) when non-zero.
	PoolSize int
}

// New assembles the facade and starts the Backend Adapter and worker
// pool. Call Online to start the heartbeat agent once the Runtime has
// registered its initial fitables. Call Close to tear everything down.
func New(ctx context.Context, opts Options) (*Fit, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	nacosCfg := nacosclient.Config{
		ServerAddr:        opts.Config.Nacos.ServerAddr,
		Username:          opts.Config.Nacos.Username,
		Password:          opts.Config.Nacos.Password,
		AccessKey:         opts.Config.Nacos.AccessKey,
		SecretKey:         opts.Config.Nacos.SecretKey,
		Namespace:         opts.Config.Nacos.Namespace,
		IsEphemeral:       opts.Config.Nacos.IsEphemeral,
		HeartBeatInterval: opts.Config.NacosHeartBeatInterval(),
		HeartBeatTimeout:  opts.Config.NacosHeartBeatTimeout(),
		Weight:            opts.Config.Nacos.Weight,
	}
	defaults := nacosclient.DefaultConfig()
	if nacosCfg.CallTimeout == 0 {
		nacosCfg.CallTimeout = defaults.CallTimeout
	}
	if nacosCfg.InitTimeout == 0 {
		nacosCfg.InitTimeout = defaults.InitTimeout
	}

	adapter := nacosclient.New(nacosCfg, logger)
	if err := adapter.Start(ctx); err != nil {
		return nil, fmt.Errorf("fit: start backend adapter: %w", err)
	}

	poolSize := opts.PoolSize
	if poolSize == 0 {
		poolSize = workerpool.DefaultSize
	}
	pool := workerpool.New(poolSize, logger)
	pool.OnDrop(func() { metrics.WorkerPoolDroppedTotal.Inc() })

	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{Logger: logger}
	}

	client := registry.New(adapter, notifier, pool, registry.Config{
		HeartBeatIntervalMS: opts.Config.Nacos.HeartBeatInterval,
		HeartBeatTimeoutMS:  opts.Config.Nacos.HeartBeatTimeout,
		Weight:              opts.Config.Nacos.Weight,
	}, logger)

	f := &Fit{logger: logger, adapter: adapter, pool: pool, registry: client}

	if opts.Runtime != nil {
		hbCfg := heartbeat.Config{
			SceneType:         opts.Config.HeartBeatClient.SceneType,
			Interval:          opts.Config.HeartBeatInterval(),
			AliveTime:         opts.Config.HeartBeatAliveTime(),
			InitDelay:         opts.Config.HeartBeatInitDelay(),
			WorkerBinary:      opts.WorkerBinary,
			RPCAddr:           opts.Config.HeartBeatClient.RPCAddr,
			ForceThreadWorker: opts.ForceThreadWorker,
		}

		// The thread worker calls this Transport directly; the process
		// worker's child instead builds its own from Config.RPCAddr (a Go
		// interface value can't cross the process boundary,
		// internal/heartbeat/transport.go) and never touches this one —
		// built unconditionally here anyway because Agent.Online falls
		// back to the thread worker on GOOS=="windows" regardless of
		// ForceThreadWorker, so it must always have a transport ready.
		rpc, err := heartbeatrpc.NewClient(hbCfg.RPCAddr)
		if err != nil {
			adapter.Stop()
			pool.Stop()
			return nil, fmt.Errorf("fit: dial heartbeat rpc: %w", err)
		}
		f.rpc = rpc

		f.agent = heartbeat.New(hbCfg, rpc, opts.Runtime, logger)
	}

	return f, nil
}

// Close tears down the worker pool, the Backend Adapter, and (if online)
// the heartbeat agent, in reverse dependency order.
func (f *Fit) Close() error {
	if f.agent != nil {
		_ = f.agent.Offline()
	}
	if f.rpc != nil {
		_ = f.rpc.Close()
	}
	f.pool.Stop()
	f.adapter.Stop()
	return nil
}

// RegisterFitables is the registerFitables entry point.
func (f *Fit) RegisterFitables(ctx context.Context, metas []types.FitableMeta, worker types.Worker, app types.Application) error {
	return f.registry.Register(ctx, metas, worker, app)
}

// UnregisterFitables is the unregisterFitables entry point.
func (f *Fit) UnregisterFitables(ctx context.Context, fitables []types.Fitable, workerID string) error {
	return f.registry.Unregister(ctx, fitables, workerID)
}

// QueryFitableAddresses is the queryFitableAddresses entry point.
func (f *Fit) QueryFitableAddresses(ctx context.Context, fitables []types.Fitable, workerID string) ([]types.FitableAddressInstance, error) {
	return f.registry.Query(ctx, fitables, workerID)
}

// SubscribeFitService is the subscribeFitService entry point.
func (f *Fit) SubscribeFitService(ctx context.Context, fitables []types.Fitable, workerID, callbackFitableID string) ([]types.FitableAddressInstance, error) {
	return f.registry.Subscribe(ctx, fitables, workerID, callbackFitableID)
}

// UnsubscribeFitables is the unsubscribeFitables entry point.
func (f *Fit) UnsubscribeFitables(ctx context.Context, fitables []types.Fitable, workerID, callbackFitableID string) error {
	return f.registry.Unsubscribe(ctx, fitables, workerID, callbackFitableID)
}

// QueryFitableMetas is the queryFitableMetas entry point.
func (f *Fit) QueryFitableMetas(ctx context.Context, genericables []types.Genericable) ([]types.FitableMetaInstance, error) {
	return f.registry.QueryFitableMetas(ctx, genericables)
}

// Online is the heartbeat online entry point.
func (f *Fit) Online() error {
	if f.agent == nil {
		return fmt.Errorf("fit: no heartbeat agent configured (Options.Runtime was nil)")
	}
	return f.agent.Online()
}

// Offline is the heartbeat offline entry point.
func (f *Fit) Offline() error {
	if f.agent == nil {
		return nil
	}
	return f.agent.Offline()
}

// HeartBeatExitedUnexpectedly is the heartBeatExitedUnexpectedly entry
// point.
func (f *Fit) HeartBeatExitedUnexpectedly() bool {
	if f.agent == nil {
		return false
	}
	return f.agent.ExitedUnexpectedly()
}
