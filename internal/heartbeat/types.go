// Package heartbeat implements the Heartbeat Agent: a long-lived worker
// that periodically renews this Runtime's lease with the heartbeat
// server, detects disruption and triggers re-registration, and detects its
// own unexpected death to escalate to Runtime shutdown.
package heartbeat

import "time"

// Default configuration values for the heart-beat.client.* options.
const (
	DefaultSceneType = "fit-registry"
	DefaultInterval  = 3000 * time.Millisecond
	DefaultAliveTime = 10000 * time.Millisecond
	DefaultInitDelay = 3000 * time.Millisecond
)

// HeartBeatInfo describes one lease this Runtime wants renewed.
type HeartBeatInfo struct {
	SceneType   string `json:"sceneType"`
	AliveTimeMS int64  `json:"aliveTime"`
	InitDelayMS int64  `json:"initDelay"`
}

// HeartBeatAddress identifies the Runtime sending the heartbeat.
type HeartBeatAddress struct {
	WorkerID string `json:"workerId"`
}

// Config configures one Agent.
type Config struct {
	SceneType string
	Interval  time.Duration
	AliveTime time.Duration
	InitDelay time.Duration

	// WorkerBinary is the path to the cmd/heartbeatworker executable used
	// by the process worker. Ignored when ForceThreadWorker is set.
	WorkerBinary string
	// RPCAddr is the heartbeat RPC server address the process worker's
	// child passes to internal/heartbeatrpc.NewClient. Ignored when
	// ForceThreadWorker is set.
	RPCAddr string

	// ForceThreadWorker selects the in-process goroutine worker
	// regardless of GOOS — the fallback path reserved for platforms
	// without reliable parent-liveness detection, and the seam tests use
	// to avoid spawning a real subprocess.
	ForceThreadWorker bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		SceneType: DefaultSceneType,
		Interval:  DefaultInterval,
		AliveTime: DefaultAliveTime,
		InitDelay: DefaultInitDelay,
	}
}

func (c Config) infos() []HeartBeatInfo {
	return []HeartBeatInfo{{
		SceneType:   c.SceneType,
		AliveTimeMS: c.AliveTime.Milliseconds(),
		InitDelayMS: c.InitDelay.Milliseconds(),
	}}
}
