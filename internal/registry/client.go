// Package registry implements the Registry Client: register, unregister,
// query, subscribe, unsubscribe, and queryFitableMetas for fitables,
// layered over the Identity & Codec helpers and the Backend Adapter.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fitframework/fit-registry-go/internal/codec"
	"github.com/fitframework/fit-registry-go/internal/metrics"
	"github.com/fitframework/fit-registry-go/internal/nacosclient"
	"github.com/fitframework/fit-registry-go/internal/workerpool"
	"github.com/fitframework/fit-registry-go/types"
)

const pageSize = 1000

// Notifier receives a fresh FitableAddressInstance every time a backend
// listener fires for a subscribed (group, service) key. This interface is
// the injection point for delivering that notification downstream —
// implemented by whatever part of the Runtime owns the
// callbackFitableID.
type Notifier interface {
	Notify(callbackFitableID string, result types.FitableAddressInstance)
}

// Client is the Registry Client. The zero value is not usable — create
// with New.
type Client struct {
	adapter  *nacosclient.Adapter
	logger   *zap.Logger
	notifier Notifier
	pool     *workerpool.Pool
	subs     *subscriptionTable

	heartBeatIntervalMS int64
	heartBeatTimeoutMS  int64
	weight              float64
}

// Config configures the Registry Client's own encoding concerns — the
// Nacos-side lease parameters embedded in every instance's metadata and
// the default instance weight.
type Config struct {
	HeartBeatIntervalMS int64
	HeartBeatTimeoutMS  int64
	Weight              float64
}

// New creates a Registry Client over an already-started Backend Adapter.
func New(adapter *nacosclient.Adapter, notifier Notifier, pool *workerpool.Pool, cfg Config, logger *zap.Logger) *Client {
	return &Client{
		adapter:             adapter,
		logger:              logger.Named("registry"),
		notifier:            notifier,
		pool:                pool,
		subs:                newSubscriptionTable(),
		heartBeatIntervalMS: cfg.HeartBeatIntervalMS,
		heartBeatTimeoutMS:  cfg.HeartBeatTimeoutMS,
		weight:              cfg.Weight,
	}
}

// Register registers every (Address × Endpoint) pair of worker as a
// backend instance for each fitable meta. One failed sub-call never
// aborts the rest; the aggregate outcome is a *PartialFailure iff any
// sub-call failed.
func (c *Client) Register(ctx context.Context, metas []types.FitableMeta, worker types.Worker, app types.Application) error {
	defer observe("register", time.Now())
	var failed []types.Fitable
	var causes []error

	for _, meta := range metas {
		group := types.GroupName(meta.Fitable)
		service := types.ServiceName(meta.Fitable)

		md, err := codec.BuildMetadata(worker, app, meta, c.heartBeatIntervalMS, c.heartBeatTimeoutMS)
		if err != nil {
			c.logger.Error("register: failed to build metadata", zap.Error(err))
			failed = append(failed, meta.Fitable)
			causes = append(causes, err)
			continue
		}

		fitableFailed := false
		for _, addr := range worker.Addresses {
			for _, ep := range addr.Endpoints {
				err := c.adapter.RegisterInstance(ctx, nacosclient.RegisterParam{
					GroupName:   group,
					ServiceName: service,
					IP:          addr.Host,
					Port:        ep.Port,
					Weight:      c.weight,
					Ephemeral:   true,
					Metadata:    md,
				})
				if err != nil {
					c.logger.Error("register: registerInstance failed",
						zap.String("group", group), zap.String("service", service),
						zap.String("host", addr.Host), zap.Int("port", ep.Port), zap.Error(err))
					fitableFailed = true
					causes = append(causes, err)
				}
			}
		}
		if fitableFailed {
			failed = append(failed, meta.Fitable)
		}
	}

	return recordPartial("register", newPartialFailure(failed, causes))
}

// Unregister deregisters workerId's instances of each fitable. It lists
// healthy instances, decodes each one's Worker, and deregisters only
// those whose decoded id matches workerId — other workers' instances are
// untouched.
func (c *Client) Unregister(ctx context.Context, fitables []types.Fitable, workerID string) error {
	defer observe("unregister", time.Now())
	var failed []types.Fitable
	var causes []error

	for _, f := range fitables {
		group := types.GroupName(f)
		service := types.ServiceName(f)

		instances, err := c.adapter.ListInstances(ctx, group, service, true)
		if err != nil {
			c.logger.Error("unregister: listInstances failed", zap.String("group", group), zap.Error(err))
			failed = append(failed, f)
			causes = append(causes, err)
			continue
		}

		fitableFailed := false
		for _, in := range instances {
			w := codec.DecodeWorker(in.Metadata, in.IP, in.Port, c.logger)
			if w.ID != workerID {
				continue
			}
			err := c.adapter.DeregisterInstance(ctx, nacosclient.DeregisterParam{
				GroupName: group, ServiceName: service, IP: in.IP, Port: in.Port, Ephemeral: true,
			})
			if err != nil {
				c.logger.Error("unregister: deregisterInstance failed",
					zap.String("group", group), zap.String("host", in.IP), zap.Error(err))
				fitableFailed = true
				causes = append(causes, err)
			}
		}
		if fitableFailed {
			failed = append(failed, f)
		}
	}

	return recordPartial("unregister", newPartialFailure(failed, causes))
}

// Query returns one FitableAddressInstance per fitable with at least one
// instance, grouped by Application with a deduplicated worker set.
// A backend failure on one fitable is logged and that fitable is skipped;
// other fitables still query normally — the first error encountered is
// returned once every fitable has been attempted.
func (c *Client) Query(ctx context.Context, fitables []types.Fitable, workerID string) ([]types.FitableAddressInstance, error) {
	defer observe("query", time.Now())
	var firstErr error
	results := make([]types.FitableAddressInstance, 0, len(fitables))

	for _, f := range fitables {
		inst, err := c.queryOne(ctx, f)
		if err != nil {
			c.logger.Error("query: failed", zap.String("fitable", types.ServiceName(f)), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if inst != nil {
			results = append(results, *inst)
		}
	}

	return results, firstErr
}

// queryOne implements Query for a single fitable, and is reused by the
// subscription re-query path.
func (c *Client) queryOne(ctx context.Context, f types.Fitable) (*types.FitableAddressInstance, error) {
	group := types.GroupName(f)
	service := types.ServiceName(f)

	instances, err := c.adapter.ListInstances(ctx, group, service, true)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, nil
	}

	type appGroup struct {
		app     types.Application
		workers []types.Worker
		meta    types.FitableMeta
		hasMeta bool
	}
	var order []types.Application
	groups := make(map[string]*appGroup)

	for _, in := range instances {
		app := codec.DecodeApplication(in.Metadata, c.logger)
		worker := codec.DecodeWorker(in.Metadata, in.IP, in.Port, c.logger)

		key := app.Name + "::" + app.NameVersion
		g, ok := groups[key]
		if !ok {
			g = &appGroup{app: app}
			groups[key] = g
			order = append(order, app)
		}
		if !g.hasMeta {
			g.meta = codec.DecodeFitableMeta(in.Metadata, c.logger)
			g.hasMeta = true
		}

		duplicate := false
		for _, existing := range g.workers {
			if existing.Equal(worker) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			g.workers = append(g.workers, worker)
		}
	}

	appInstances := make([]types.ApplicationInstance, 0, len(order))
	for _, app := range order {
		key := app.Name + "::" + app.NameVersion
		g := groups[key]
		appInstances = append(appInstances, types.ApplicationInstance{
			Application: g.app,
			Workers:     g.workers,
			Formats:     g.meta.Formats,
		})
	}

	return &types.FitableAddressInstance{Fitable: f, Applications: appInstances}, nil
}

// Subscribe installs a backend listener for each fitable's (group,
// service) key if one does not already exist, otherwise folds workerID/
// callbackFitableID into the existing interest set. It always returns the
// current query result, regardless of whether the subscription already
// existed.
func (c *Client) Subscribe(ctx context.Context, fitables []types.Fitable, workerID, callbackFitableID string) ([]types.FitableAddressInstance, error) {
	defer observe("subscribe", time.Now())
	for _, f := range fitables {
		if err := c.subscribeOne(ctx, f, workerID, callbackFitableID); err != nil {
			return nil, fmt.Errorf("registry: subscribe %s failed: %w", types.ServiceName(f), err)
		}
	}
	metrics.RegistrySubscriptions.Set(float64(c.subs.count()))
	return c.Query(ctx, fitables, workerID)
}

func (c *Client) subscribeOne(ctx context.Context, f types.Fitable, workerID, callbackFitableID string) error {
	key := subscriptionKey{group: types.GroupName(f), service: types.ServiceName(f)}
	in := interest{workerID: workerID, callbackFitableID: callbackFitableID}

	isNew := c.subs.addInterest(key, in)
	if !isNew {
		return nil
	}

	fitable := f
	param, err := c.adapter.Subscribe(ctx, key.group, key.service, func(instances []nacosclient.Instance, err error) {
		c.onBackendEvent(fitable, err)
	})
	if err != nil {
		c.subs.rollback(key)
		return err
	}
	c.subs.setParam(key, param)
	return nil
}

// onBackendEvent runs on the goroutine the Nacos SDK delivers its
// subscription callback on. It must not block, so the re-query and
// notification are dispatched onto the worker pool — this keeps a backend
// callback from waiting on the adapter's scheduler through the client.
func (c *Client) onBackendEvent(f types.Fitable, backendErr error) {
	c.pool.Submit(func() {
		if backendErr != nil {
			c.logger.Warn("subscription event carried a backend error", zap.String("fitable", types.ServiceName(f)), zap.Error(backendErr))
		}

		ctx := context.Background()
		inst, err := c.queryOne(ctx, f)
		if err != nil {
			c.logger.Error("subscription re-query failed", zap.String("fitable", types.ServiceName(f)), zap.Error(err))
			return
		}
		if inst == nil {
			inst = &types.FitableAddressInstance{Fitable: f}
		}

		key := subscriptionKey{group: types.GroupName(f), service: types.ServiceName(f)}
		for _, cb := range c.interestedCallbacks(key) {
			c.notifier.Notify(cb, *inst)
		}
	})
}

// interestedCallbacks returns the distinct callbackFitableIDs currently
// interested in key.
func (c *Client) interestedCallbacks(key subscriptionKey) []string {
	c.subs.mu.Lock()
	defer c.subs.mu.Unlock()

	e, ok := c.subs.entries[key]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for in := range e.interests {
		if _, dup := seen[in.callbackFitableID]; dup {
			continue
		}
		seen[in.callbackFitableID] = struct{}{}
		out = append(out, in.callbackFitableID)
	}
	return out
}

// Unsubscribe removes workerID/callbackFitableID from each fitable's
// interest set. Only when a set becomes empty is the backend subscription
// torn down and the table entry removed.
func (c *Client) Unsubscribe(ctx context.Context, fitables []types.Fitable, workerID, callbackFitableID string) error {
	defer observe("unsubscribe", time.Now())
	defer func() { metrics.RegistrySubscriptions.Set(float64(c.subs.count())) }()
	var failed []types.Fitable
	var causes []error

	for _, f := range fitables {
		key := subscriptionKey{group: types.GroupName(f), service: types.ServiceName(f)}
		in := interest{workerID: workerID, callbackFitableID: callbackFitableID}

		param, shouldTeardown := c.subs.removeInterest(key, in)
		if !shouldTeardown {
			continue
		}
		if param == nil {
			c.subs.remove(key)
			continue
		}
		if err := c.adapter.Unsubscribe(ctx, param); err != nil {
			c.logger.Error("unsubscribe: backend unsubscribe failed", zap.String("fitable", types.ServiceName(f)), zap.Error(err))
			failed = append(failed, f)
			causes = append(causes, err)
			continue
		}
		c.subs.remove(key)
	}

	return recordPartial("unsubscribe", newPartialFailure(failed, causes))
}

// QueryFitableMetas enumerates every fitable registered under each
// genericable's group, paginating through the backend's service list, and
// returns one FitableMetaInstance per distinct meta observed along with
// the sorted set of environments that advertised it.
func (c *Client) QueryFitableMetas(ctx context.Context, genericables []types.Genericable) ([]types.FitableMetaInstance, error) {
	defer observe("queryFitableMetas", time.Now())
	byKey := make(map[string]*fitableMetaAccumulator)
	var order []string

	for _, g := range genericables {
		group := types.GenericableGroupName(g)

		pageNo := 1
		for {
			services, total, err := c.adapter.ListServices(ctx, "", group, pageNo, pageSize)
			if err != nil {
				return nil, fmt.Errorf("registry: queryFitableMetas list services failed: %w", err)
			}
			for _, service := range services {
				if err := c.accumulateFitableMeta(ctx, group, service, byKey, &order); err != nil {
					c.logger.Error("queryFitableMetas: failed for service", zap.String("service", service), zap.Error(err))
				}
			}
			if pageNo*pageSize >= total || len(services) == 0 {
				break
			}
			pageNo++
		}
	}

	out := make([]types.FitableMetaInstance, 0, len(order))
	for _, key := range order {
		acc := byKey[key]
		envs := make([]string, 0, len(acc.envs))
		for e := range acc.envs {
			envs = append(envs, e)
		}
		sort.Strings(envs)
		out = append(out, types.FitableMetaInstance{Meta: acc.meta, Environments: envs})
	}
	return out, nil
}

// fitableMetaAccumulator tracks one distinct meta observed while paginating
// QueryFitableMetas' service listing, and the set of environments that
// have advertised it.
type fitableMetaAccumulator struct {
	meta types.FitableMeta
	envs map[string]struct{}
}

func (c *Client) accumulateFitableMeta(ctx context.Context, group, service string, byKey map[string]*fitableMetaAccumulator, order *[]string) error {
	instances, err := c.adapter.ListInstances(ctx, group, service, true)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		return nil
	}

	meta := codec.DecodeFitableMeta(instances[0].Metadata, c.logger)
	key := types.ServiceName(meta.Fitable) + "@" + group

	acc, ok := byKey[key]
	if !ok {
		acc = &fitableMetaAccumulator{meta: meta, envs: make(map[string]struct{})}
		byKey[key] = acc
		*order = append(*order, key)
	}

	for _, in := range instances {
		worker := codec.DecodeWorker(in.Metadata, in.IP, in.Port, c.logger)
		if worker.Environment != "" {
			acc.envs[worker.Environment] = struct{}{}
		}
	}
	return nil
}

// observe records operation's wall-clock duration for the
// RegistryOperationDuration histogram. Called via defer with the call's
// start time.
func observe(operation string, start time.Time) {
	metrics.RegistryOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// recordPartial increments RegistryPartialFailuresTotal when err is a
// *PartialFailure, then returns err unchanged so callers can keep using
// it as their return value.
func recordPartial(operation string, err error) error {
	if err == nil {
		return nil
	}
	var pf *PartialFailure
	if errors.As(err, &pf) {
		metrics.RegistryPartialFailuresTotal.WithLabelValues(operation).Inc()
	}
	return err
}
