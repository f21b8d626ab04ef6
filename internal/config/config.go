package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML accepts "30s" style values.
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Store backends selectable in the config file.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config is the application configuration, loaded from YAML.
type Config struct {
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen"`

	Gateway GatewayConfig `yaml:"gateway"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

// GatewayConfig points at the remote account/generation service.
type GatewayConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// StoreConfig selects the session/fragment persistence backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Address  string   `yaml:"address"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      Duration `yaml:"ttl"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Listen: ":8080",
		Gateway: GatewayConfig{
			BaseURL: "http://localhost:9090",
			Timeout: Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    ".ramp/sessions",
			Redis: RedisConfig{
				Address: "localhost:6379",
				TTL:     Duration(24 * time.Hour),
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	switch cfg.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return cfg, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	return cfg, nil
}

// LogLevel maps the configured level name onto slog.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
