package nacosclient

import "time"

// Config mirrors the recognized nacos.* options.
type Config struct {
	// ServerAddr is required: host:port of at least one Nacos server.
	// Multiple addresses are comma-separated.
	ServerAddr string

	Username  string
	Password  string
	AccessKey string
	SecretKey string

	// Namespace defaults to "" which EffectiveNamespace resolves to
	// "local" before it reaches the SDK's ClientConfig.
	Namespace string

	// IsEphemeral carries the nacos.isEphemeral option. Default true. The
	// adapter does not read it, and the Registry Client registers and
	// deregisters every instance as ephemeral whatever its value.
	IsEphemeral bool

	// HeartBeatInterval/HeartBeatTimeout are the Nacos-side lease
	// parameters carried in each instance's preserved.heart.beat.* keys,
	// not this module's own heartbeat.Agent interval.
	HeartBeatInterval time.Duration
	HeartBeatTimeout  time.Duration

	// Weight is the instance weight passed to RegisterInstance.
	Weight float64

	// CallTimeout bounds every Call, from submission to result (default 30s).
	CallTimeout time.Duration

	// InitTimeout bounds how long Start waits for the Nacos client to
	// become ready (default 10s).
	InitTimeout time.Duration
}

// DefaultConfig returns Config populated with the documented defaults for
// every field Config doesn't require the caller to set.
func DefaultConfig() Config {
	return Config{
		Namespace:         "",
		IsEphemeral:       true,
		HeartBeatInterval: 5 * time.Second,
		HeartBeatTimeout:  15 * time.Second,
		Weight:            1.0,
		CallTimeout:       30 * time.Second,
		InitTimeout:       10 * time.Second,
	}
}

// EffectiveNamespace returns "local" when Namespace is empty, matching
// Nacos's own substitution rule.
func (c Config) EffectiveNamespace() string {
	if c.Namespace == "" {
		return "local"
	}
	return c.Namespace
}
