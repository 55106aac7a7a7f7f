package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 64, cfg.Server.MaxUploadMB)
	assert.Equal(t, BackendOllama, cfg.Detection.Backend)
	assert.Equal(t, 30*time.Second, cfg.Detection.Timeout)
	assert.Equal(t, 400, cfg.Output.Size)
	assert.Equal(t, 95, cfg.Output.Quality)
	assert.Equal(t, 50, cfg.Batch.RadiusPercent)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
detection:
  backend: llamacpp
  url: http://vision.internal:8080
  model: test-model
  timeout: 10s
batch:
  radius_percent: 30
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendLlamaCpp, cfg.Detection.Backend)
	assert.Equal(t, "http://vision.internal:8080", cfg.Detection.URL)
	assert.Equal(t, 10*time.Second, cfg.Detection.Timeout)
	assert.Equal(t, 30, cfg.Batch.RadiusPercent)
	// Untouched sections keep their defaults
	assert.Equal(t, 400, cfg.Output.Size)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BADGEPHOTO_SERVER_PORT", "7070")
	t.Setenv("BADGEPHOTO_DETECTION_MODEL", "llava:13b")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "llava:13b", cfg.Detection.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"unknown backend", func(c *Config) { c.Detection.Backend = "rekognition" }},
		{"empty url", func(c *Config) { c.Detection.URL = "" }},
		{"empty model", func(c *Config) { c.Detection.Model = "" }},
		{"zero timeout", func(c *Config) { c.Detection.Timeout = 0 }},
		{"zero size", func(c *Config) { c.Output.Size = 0 }},
		{"quality too high", func(c *Config) { c.Output.Quality = 101 }},
		{"negative workers", func(c *Config) { c.Batch.Workers = -1 }},
		{"radius too low", func(c *Config) { c.Batch.RadiusPercent = 4 }},
		{"radius too high", func(c *Config) { c.Batch.RadiusPercent = 101 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := base()
			test.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
