package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/volbridge/internal/bytesize"
	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/volume/memory"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleConfig = `
logging:
  level: debug
shutdown_timeout: 5s
api:
  enabled: true
  port: 8181
shares:
  - name: projects
    path: /export/projects
    volume: gv0
    volfile_server: gluster1
    backend: local
    log_file: /var/log/volbridge/gv0.log
    log_level: 7
    options:
      root: /srv/projects
      xattrs:
        store: badger
  - name: scratch
    path: /export/scratch
    backend: MEMORY
    options:
      capacity: 2Gi
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8181, cfg.API.Port)
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout)
	assert.Equal(t, 1.0, cfg.Telemetry.SampleRate)

	require.Len(t, cfg.Shares, 2)
	p := cfg.Shares[0]
	assert.Equal(t, "gv0", p.Volume)
	assert.Equal(t, "gluster1", p.VolfileServer)
	require.NotNil(t, p.LogLevel)
	assert.Equal(t, 7, *p.LogLevel)
	assert.Equal(t, "/srv/projects", p.Options["root"])

	s, ok := cfg.Share("scratch")
	require.True(t, ok)
	assert.Equal(t, "memory", s.Backend)
	assert.Nil(t, s.LogLevel)

	_, ok = cfg.Share("missing")
	assert.False(t, ok)
}

func TestShareConfigsResolveAtConnect(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	shares := cfg.ShareConfigs()
	require.Len(t, shares, 2)

	cc := shares[1].ConnectConfig()
	assert.Equal(t, "scratch", cc.Volume)
	assert.Equal(t, volume.DefaultServer, cc.Server)
	assert.Equal(t, volume.DefaultLogLevel, cc.LogLevel)

	// Backend options decode with byte sizes.
	var mc memory.Config
	require.NoError(t, volume.DecodeOptions(cc.Options, &mc))
	assert.Equal(t, 2*bytesize.GiB, mc.Capacity)
}

func TestLoadNoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad level": `
logging: {level: LOUD}
shares: [{name: a, path: /a, backend: memory}]`,
		"relative path": `
shares: [{name: a, path: a, backend: memory}]`,
		"unknown backend": `
shares: [{name: a, path: /a, backend: tape}]`,
		"duplicate name": `
shares:
  - {name: a, path: /a, backend: memory}
  - {name: a, path: /b, backend: memory}`,
		"log level range": `
shares: [{name: a, path: /a, backend: memory, log_level: 12}]`,
		"no shares": `
logging: {level: info}`,
		"sample rate": `
telemetry: {sample_rate: 2}
shares: [{name: a, path: /a, backend: memory}]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("VOLBRIDGE_LOGGING_LEVEL", "warn")
	t.Setenv("VOLBRIDGE_API_PORT", "9191")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, 9191, cfg.API.Port)
}

func TestValidateMetricsPortClash(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics = MetricsConfig{Enabled: true, Port: cfg.API.Port}
	assert.ErrorContains(t, Validate(cfg), "metrics.port")
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
	assert.True(t, cfg.API.Enabled)
	require.Len(t, cfg.Shares, 1)
	assert.Equal(t, "memory", cfg.Shares[0].Backend)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Logging, back.Logging)
	assert.Equal(t, cfg.ShutdownTimeout, back.ShutdownTimeout)
	assert.Equal(t, cfg.API, back.API)
	require.Len(t, back.Shares, 2)
	assert.Equal(t, cfg.Shares[0].Name, back.Shares[0].Name)
	assert.Equal(t, *cfg.Shares[0].LogLevel, *back.Shares[0].LogLevel)
}

func TestMustLoadMissingFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "volbridge config init")
}

func TestDefaultConfigPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "volbridge", "config.yaml"), GetDefaultConfigPath())
	assert.False(t, DefaultConfigExists())
}

func TestJSONSchema(t *testing.T) {
	out, err := JSONSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "volbridge configuration", doc["title"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "shares")
	assert.Contains(t, props, "shutdown_timeout")
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func(c *Config) { got <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := sampleConfig + `
  - name: extra
    path: /export/extra
    backend: memory
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case cfg := <-got:
		assert.Len(t, cfg.Shares, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config change")
	}

	cancel()
	assert.NoError(t, <-done)
}
