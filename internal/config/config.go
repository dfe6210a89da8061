// Package config loads and validates the fifteen nacos.* and
// heart-beat.client.* options this subsystem recognizes.
//
// Layered YAML loading via go.uber.org/config, with gopkg.in/validator.v2
// struct-tag validation run immediately after Populate. cobra flags plus
// envOrDefault fit a handful of scalar flags well, but not this
// subsystem's two-namespace, fifteen-key table, so the richer YAML
// loader is used here instead.
package config

import (
	"fmt"
	"os"
	"time"

	uconfig "go.uber.org/config"
	"gopkg.in/validator.v2"
)

// Nacos holds the nacos.* options.
type Nacos struct {
	ServerAddr        string  `yaml:"serverAddr" validate:"nonzero"`
	Username          string  `yaml:"username"`
	Password          string  `yaml:"password"`
	AccessKey         string  `yaml:"accessKey"`
	SecretKey         string  `yaml:"secretKey"`
	Namespace         string  `yaml:"namespace"`
	IsEphemeral       bool    `yaml:"isEphemeral"`
	HeartBeatInterval int64   `yaml:"heartBeatInterval"` // milliseconds
	HeartBeatTimeout  int64   `yaml:"heartBeatTimeout"`  // milliseconds
	Weight            float64 `yaml:"weight"`
}

// HeartBeatClient holds the heart-beat.client.* options, plus rpcAddr:
// the heartbeat(infos, addr) downstream dependency the core calls out to
// has no transport address of its own, so this module resolves one as an
// ordinary config key alongside the other heart-beat.client.* options,
// consumed by internal/heartbeatrpc.NewClient.
type HeartBeatClient struct {
	SceneType   string `yaml:"sceneType" validate:"nonzero"`
	IntervalMS  int64  `yaml:"interval"`
	AliveTimeMS int64  `yaml:"aliveTime"`
	InitDelayMS int64  `yaml:"initDelay"`
	RPCAddr     string `yaml:"rpcAddr"`
}

// Config is the top-level document the recognized option table maps onto.
type Config struct {
	Nacos           Nacos           `yaml:"nacos"`
	HeartBeatClient HeartBeatClient `yaml:"heart-beat.client"`
}

// Default returns Config populated with every documented default except
// nacos.serverAddr, which has none and must come from a config file,
// environment expansion, or a CLI flag.
func Default() Config {
	return Config{
		Nacos: Nacos{
			Namespace:         "",
			IsEphemeral:       true,
			HeartBeatInterval: 5000,
			HeartBeatTimeout:  15000,
			Weight:            1.0,
		},
		HeartBeatClient: HeartBeatClient{
			SceneType:   "fit-registry",
			IntervalMS:  3000,
			AliveTimeMS: 10000,
			InitDelayMS: 3000,
			RPCAddr:     "127.0.0.1:8850",
		},
	}
}

// Load reads configDir/base.yaml plus configDir/<env>.yaml (when present),
// expanding ${VAR} references against the process environment, and
// validates the result. Defaults are applied before the YAML is
// populated on top, matching uconfig's "later values override earlier
// ones" merge order.
func Load(env, configDir string) (Config, error) {
	if configDir == "" {
		configDir = "config"
	}
	if env == "" {
		env = "development"
	}

	cfg := Default()

	files := candidateFiles(env, configDir)
	if len(files) == 0 {
		return Config{}, fmt.Errorf("config: no config files found under %s", configDir)
	}

	var options []uconfig.YAMLOption
	for _, f := range files {
		options = append(options, uconfig.File(f))
	}
	options = append(options, uconfig.Expand(os.LookupEnv))

	yaml, err := uconfig.NewYAML(options...)
	if err != nil {
		return Config{}, fmt.Errorf("config: build yaml parser: %w", err)
	}
	if err := yaml.Get(uconfig.Root).Populate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: populate: %w", err)
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func candidateFiles(env, configDir string) []string {
	candidates := []string{
		configDir + "/base.yaml",
		configDir + "/" + env + ".yaml",
	}
	var out []string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			out = append(out, c)
		}
	}
	return out
}

// NacosHeartBeatInterval/Timeout as time.Duration, for callers building
// internal/nacosclient.Config.
func (c Config) NacosHeartBeatInterval() time.Duration {
	return time.Duration(c.Nacos.HeartBeatInterval) * time.Millisecond
}

func (c Config) NacosHeartBeatTimeout() time.Duration {
	return time.Duration(c.Nacos.HeartBeatTimeout) * time.Millisecond
}

func (c Config) HeartBeatInterval() time.Duration {
	return time.Duration(c.HeartBeatClient.IntervalMS) * time.Millisecond
}

func (c Config) HeartBeatAliveTime() time.Duration {
	return time.Duration(c.HeartBeatClient.AliveTimeMS) * time.Millisecond
}

func (c Config) HeartBeatInitDelay() time.Duration {
	return time.Duration(c.HeartBeatClient.InitDelayMS) * time.Millisecond
}
