package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deadweight/argon/pkg/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7860", cfg.Server.Address)
	assert.Equal(t, "http://127.0.0.1:8188", cfg.Executor.BaseURL)
	assert.Equal(t, time.Second, cfg.Executor.PollInterval.Std())
	assert.Equal(t, 2, cfg.Engine.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "argon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9000"
executor:
  base_url: "http://comfy:8188"
  input_dir: "/data/input"
  poll_interval: "250ms"
engine:
  workers: 8
  checkpoint: "custom.safetensors"
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "http://comfy:8188", cfg.Executor.BaseURL)
	assert.Equal(t, "/data/input", cfg.Executor.InputDir)
	assert.Equal(t, 250*time.Millisecond, cfg.Executor.PollInterval.Std())
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "custom.safetensors", cfg.Engine.Checkpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched fields keep defaults.
	assert.Equal(t, ":19090", cfg.Server.AdminAddress)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARGON_ADDR", ":8001")
	t.Setenv("ARGON_EXECUTOR_URL", "http://gpu-box:8188")
	t.Setenv("ARGON_WORKERS", "5")
	t.Setenv("ARGON_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8001", cfg.Server.Address)
	assert.Equal(t, "http://gpu-box:8188", cfg.Executor.BaseURL)
	assert.Equal(t, 5, cfg.Engine.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing address", func(c *Config) { c.Server.Address = "" }},
		{"missing executor url", func(c *Config) { c.Executor.BaseURL = "" }},
		{"non-http executor url", func(c *Config) { c.Executor.BaseURL = "comfy:8188" }},
		{"negative workers", func(c *Config) { c.Engine.Workers = -1 }},
		{"negative rate limit", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, domain.ErrConfigInvalid))
		})
	}

	assert.NoError(t, Defaults().Validate())
}

func TestLoad_InvalidFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "argon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: verbose\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestFileProvider_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "argon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: 2\n"), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := NewFileProvider(path, logger)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 2, p.Current().Engine.Workers)

	ch := p.Subscribe()
	first := <-ch
	assert.Equal(t, 2, first.Engine.Workers)

	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: 6\n"), 0o644))
	require.Eventually(t, func() bool {
		return p.Current().Engine.Workers == 6
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case next := <-ch:
		assert.Equal(t, 6, next.Engine.Workers)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published after reload")
	}
}

func TestFileProvider_BadReloadKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "argon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: 2\n"), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p, err := NewFileProvider(path, logger)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: verbose\n"), 0o644))

	// Give the debounce window time to fire, then confirm the old snapshot
	// survived.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 2, p.Current().Engine.Workers)
}

func TestFileProvider_MissingFileFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := NewFileProvider(filepath.Join(t.TempDir(), "absent.yaml"), logger)
	assert.Error(t, err)
}
