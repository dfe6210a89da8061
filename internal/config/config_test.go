package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestLoadPopulatesAndValidates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
nacos:
  serverAddr: 127.0.0.1:8848
  username: nacos
heart-beat.client:
  sceneType: fit-registry
  interval: 2500
`)

	cfg, err := Load("development", dir)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8848", cfg.Nacos.ServerAddr)
	assert.Equal(t, "nacos", cfg.Nacos.Username)
	assert.True(t, cfg.Nacos.IsEphemeral, "default isEphemeral survives when not overridden")
	assert.Equal(t, int64(5000), cfg.Nacos.HeartBeatInterval, "default heartBeatInterval survives when not overridden")
	assert.Equal(t, int64(2500), cfg.HeartBeatClient.IntervalMS)
}

func TestLoadMissingServerAddrFailsValidation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
heart-beat.client:
  sceneType: fit-registry
`)

	_, err := Load("development", dir)
	require.Error(t, err)
}

func TestLoadNoFilesFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Load("development", dir)
	require.Error(t, err)
}

func TestLoadEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
nacos:
  serverAddr: 127.0.0.1:8848
`)
	writeFile(t, dir, "production.yaml", `
nacos:
  serverAddr: nacos.prod.internal:8848
`)

	cfg, err := Load("production", dir)
	require.NoError(t, err)
	assert.Equal(t, "nacos.prod.internal:8848", cfg.Nacos.ServerAddr)
}

func TestDefaultDurationHelpers(t *testing.T) {
	cfg := Default()
	cfg.Nacos.ServerAddr = "x"

	assert.Equal(t, int64(5000), cfg.NacosHeartBeatInterval().Milliseconds())
	assert.Equal(t, int64(15000), cfg.NacosHeartBeatTimeout().Milliseconds())
	assert.Equal(t, int64(3000), cfg.HeartBeatInterval().Milliseconds())
	assert.Equal(t, int64(10000), cfg.HeartBeatAliveTime().Milliseconds())
	assert.Equal(t, int64(3000), cfg.HeartBeatInitDelay().Milliseconds())
}
