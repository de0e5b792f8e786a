package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the console's configuration, loaded from a YAML file with
// BEACON_* environment overrides layered on top.
type Config struct {
	API struct {
		BaseURL   string `mapstructure:"base_url" yaml:"base_url"`
		TimeoutMs int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	} `mapstructure:"api" yaml:"api"`
	Push struct {
		URL       string `mapstructure:"url" yaml:"url"`
		Reconnect struct {
			Enabled          bool `mapstructure:"enabled" yaml:"enabled"`
			MaxAttempts      int  `mapstructure:"max_attempts" yaml:"max_attempts"`
			InitialBackoffMs int  `mapstructure:"initial_backoff_ms" yaml:"initial_backoff_ms"`
			MaxBackoffMs     int  `mapstructure:"max_backoff_ms" yaml:"max_backoff_ms"`
		} `mapstructure:"reconnect" yaml:"reconnect"`
	} `mapstructure:"push" yaml:"push"`
	Dashboard struct {
		PollIntervalMs int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	} `mapstructure:"dashboard" yaml:"dashboard"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled" yaml:"enabled"`
		Port    int  `mapstructure:"port" yaml:"port"`
	} `mapstructure:"metrics" yaml:"metrics"`
	Logging struct {
		Level string `mapstructure:"level" yaml:"level"`
	} `mapstructure:"logging" yaml:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8002/api")
	v.SetDefault("api.timeout_ms", 10000)
	v.SetDefault("push.url", "ws://localhost:8002")
	v.SetDefault("push.reconnect.enabled", false)
	v.SetDefault("push.reconnect.max_attempts", 5)
	v.SetDefault("push.reconnect.initial_backoff_ms", 1000)
	v.SetDefault("push.reconnect.max_backoff_ms", 30000)
	v.SetDefault("dashboard.poll_interval_ms", 5000)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 2115)
	v.SetDefault("logging.level", "info")
}

// Load reads the config file named by BEACON_CONFIG (or beacon.yaml in the
// working directory), merges BEACON_* env overrides, and falls back to
// defaults when no file exists.
func Load() (*Config, error) {
	cfgPath := os.Getenv("BEACON_CONFIG")
	if cfgPath == "" {
		cfgPath = "beacon.yaml"
	}
	return LoadFile(cfgPath)
}

// LoadFile loads configuration from an explicit path. A missing file is not
// an error; defaults and env overrides still apply.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BEACON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// APITimeout returns the HTTP client timeout.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutMs) * time.Millisecond
}

// PollInterval returns the dashboard poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Dashboard.PollIntervalMs) * time.Millisecond
}

// ReconnectInitialBackoff returns the first reconnect delay.
func (c *Config) ReconnectInitialBackoff() time.Duration {
	return time.Duration(c.Push.Reconnect.InitialBackoffMs) * time.Millisecond
}

// ReconnectMaxBackoff returns the reconnect delay cap.
func (c *Config) ReconnectMaxBackoff() time.Duration {
	return time.Duration(c.Push.Reconnect.MaxBackoffMs) * time.Millisecond
}

// WriteDefault writes a config file populated with defaults, creating
// parent directories as needed. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	}
	defaults, err := LoadFile(filepath.Join(os.TempDir(), "beacon-nonexistent.yaml"))
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, out, 0o644)
}
