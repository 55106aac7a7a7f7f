// Package config loads service configuration from an optional YAML file,
// BADGEPHOTO_* environment variables, and built-in defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/nexoria/badgephoto/pkg/cropper"
)

// Backend names accepted for detection.backend
const (
	BackendOllama   = "ollama"
	BackendLlamaCpp = "llamacpp"
)

// Config is the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Detection DetectionConfig `mapstructure:"detection"`
	Output    OutputConfig    `mapstructure:"output"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
}

// Addr returns the host:port listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DetectionConfig selects and tunes the vision backend used as face detector
type DetectionConfig struct {
	Backend string        `mapstructure:"backend"`
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"` // per-photo detection budget
}

// OutputConfig controls the produced badge images
type OutputConfig struct {
	Size    int `mapstructure:"size"`    // badge edge length in pixels
	Quality int `mapstructure:"quality"` // JPEG quality
}

// BatchConfig controls batch execution
type BatchConfig struct {
	Workers       int `mapstructure:"workers"` // 0 means NumCPU, capped
	RadiusPercent int `mapstructure:"radius_percent"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration from the given file (optional, YAML) and the
// environment, validates it, and returns it.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BADGEPHOTO")
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 64)

	v.SetDefault("detection.backend", BackendOllama)
	v.SetDefault("detection.url", "http://localhost:11434")
	v.SetDefault("detection.model", "openbmb/minicpm-v4.5")
	v.SetDefault("detection.timeout", "30s")

	v.SetDefault("output.size", 400)
	v.SetDefault("output.quality", 95)

	v.SetDefault("batch.workers", 0)
	v.SetDefault("batch.radius_percent", cropper.DefaultRadiusPercent)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.host", "BADGEPHOTO_SERVER_HOST")
	v.BindEnv("server.port", "BADGEPHOTO_SERVER_PORT")
	v.BindEnv("server.max_upload_mb", "BADGEPHOTO_SERVER_MAX_UPLOAD_MB")

	v.BindEnv("detection.backend", "BADGEPHOTO_DETECTION_BACKEND")
	v.BindEnv("detection.url", "BADGEPHOTO_DETECTION_URL")
	v.BindEnv("detection.model", "BADGEPHOTO_DETECTION_MODEL")
	v.BindEnv("detection.timeout", "BADGEPHOTO_DETECTION_TIMEOUT")

	v.BindEnv("output.size", "BADGEPHOTO_OUTPUT_SIZE")
	v.BindEnv("output.quality", "BADGEPHOTO_OUTPUT_QUALITY")

	v.BindEnv("batch.workers", "BADGEPHOTO_BATCH_WORKERS")
	v.BindEnv("batch.radius_percent", "BADGEPHOTO_BATCH_RADIUS_PERCENT")

	v.BindEnv("log.level", "BADGEPHOTO_LOG_LEVEL")
	v.BindEnv("log.development", "BADGEPHOTO_LOG_DEVELOPMENT")
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be at least 1")
	}

	switch c.Detection.Backend {
	case BackendOllama, BackendLlamaCpp:
	default:
		return fmt.Errorf("detection.backend must be %q or %q, got %q",
			BackendOllama, BackendLlamaCpp, c.Detection.Backend)
	}
	if c.Detection.URL == "" {
		return fmt.Errorf("detection.url is required")
	}
	if c.Detection.Model == "" {
		return fmt.Errorf("detection.model is required")
	}
	if c.Detection.Timeout <= 0 {
		return fmt.Errorf("detection.timeout must be positive")
	}

	if c.Output.Size < 1 {
		return fmt.Errorf("output.size must be at least 1")
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must not be negative")
	}
	if !cropper.ValidRadius(c.Batch.RadiusPercent) {
		return fmt.Errorf("batch.radius_percent must be between %d and %d",
			cropper.MinRadiusPercent, cropper.MaxRadiusPercent)
	}

	return nil
}
