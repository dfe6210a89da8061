// Package metrics provides Prometheus instrumentation for the registry
// client, the backend adapter, and the heartbeat agent.
//
// Package-level promauto vars grouped by section, one Namespace for the
// whole package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fit_registry"

// ─── Heartbeat ──────────────────────────────────────────────────────────────

// HeartbeatAttemptsTotal counts every heartbeat RPC attempt by outcome
// ("success", "reconnected", "failure").
var HeartbeatAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "heartbeat_attempts_total",
	Help:      "Total heartbeat attempts by outcome.",
}, []string{"outcome"})

// HeartbeatFailCount mirrors the agent's in-memory consecutive-failure
// counter so it is visible without reading logs.
var HeartbeatFailCount = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "heartbeat_fail_count",
	Help:      "Consecutive heartbeat failures observed by the active worker.",
})

// HeartbeatExitedUnexpectedly is 1 once the supervisor has observed the
// worker terminate without a clean Offline call, 0 otherwise.
var HeartbeatExitedUnexpectedly = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "heartbeat_exited_unexpectedly",
	Help:      "1 if the heartbeat worker exited unexpectedly, 0 otherwise.",
})

// ─── Registry ───────────────────────────────────────────────────────────────

// RegistrySubscriptions tracks the live subscription table size.
var RegistrySubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "registry_subscriptions",
	Help:      "Number of distinct (group, service) keys currently subscribed.",
})

// RegistryOperationDuration tracks register/unregister/query/subscribe/
// unsubscribe/queryFitableMetas latency.
var RegistryOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "registry_operation_duration_seconds",
	Help:      "Registry client operation duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// RegistryPartialFailuresTotal counts bulk operations that returned a
// PartialFailure.
var RegistryPartialFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "registry_partial_failures_total",
	Help:      "Total bulk registry operations with at least one sub-failure.",
}, []string{"operation"})

// ─── Backend adapter ────────────────────────────────────────────────────────

// BackendCallDuration tracks Call latency by backend operation.
var BackendCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "backend_call_duration_seconds",
	Help:      "Backend Adapter call duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// BackendCallErrorsTotal counts Call failures by operation and error kind
// ("unavailable", "timeout", "shutdown", "other").
var BackendCallErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "backend_call_errors_total",
	Help:      "Total Backend Adapter call failures by operation and error kind.",
}, []string{"operation", "kind"})

// ─── Worker pool ────────────────────────────────────────────────────────────

// WorkerPoolDroppedTotal counts change notifications dropped because the
// worker pool's queue was full.
var WorkerPoolDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "worker_pool_dropped_total",
	Help:      "Total change notifications dropped because the worker pool queue was full.",
})
