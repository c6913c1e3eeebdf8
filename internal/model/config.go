package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides,
// e.g. THREAT_CONSOLE_API_BASE_URL.
const EnvPrefix = "THREAT_CONSOLE"

// APIConfig holds the backend connection settings.
type APIConfig struct {
	// BaseURL is the root URL of the tracker backend.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationConfig tunes the alert poller and toast queue.
type NotificationConfig struct {
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	ToastTTLSec     int `mapstructure:"toast_ttl_sec" yaml:"toast_ttl_sec"`
	MaxToasts       int `mapstructure:"max_toasts" yaml:"max_toasts"`

	// ViewedRetention caps how many viewed alert ids are kept.
	ViewedRetention int `mapstructure:"viewed_retention" yaml:"viewed_retention"`
}

// StorageConfig selects the preference medium.
type StorageConfig struct {
	// Driver is "sqlite" (default) or "redis".
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr is empty when the endpoint is disabled.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Storage       StorageConfig      `mapstructure:"storage" yaml:"storage"`
	Log           LogConfig          `mapstructure:"log" yaml:"log"`
	Metrics       MetricsConfig      `mapstructure:"metrics" yaml:"metrics"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
}

// PollInterval returns the poll period as a duration.
func (c NotificationConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// ToastTTL returns the toast lifetime as a duration.
func (c NotificationConfig) ToastTTL() time.Duration {
	return time.Duration(c.ToastTTLSec) * time.Second
}

// Timeout returns the request timeout as a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// ConfigDir returns ~/.config/threat-console, falling back to the
// working directory when the home directory is unknown.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "threat-console")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:5000",
			TimeoutSec: 15,
		},
		Notifications: NotificationConfig{
			PollIntervalSec: 10,
			ToastTTLSec:     5,
			MaxToasts:       3,
			ViewedRetention: 500,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   filepath.Join(ConfigDir(), "prefs.db"),
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(ConfigDir(), "threat-console.log"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults mirrors defaultAppConfig so that missing keys in a partial
// file still resolve.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout_sec", d.API.TimeoutSec)
	v.SetDefault("notifications.poll_interval_sec", d.Notifications.PollIntervalSec)
	v.SetDefault("notifications.toast_ttl_sec", d.Notifications.ToastTTLSec)
	v.SetDefault("notifications.max_toasts", d.Notifications.MaxToasts)
	v.SetDefault("notifications.viewed_retention", d.Notifications.ViewedRetention)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("display.theme", d.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A .env file in the working directory is loaded first and environment
// variables prefixed with THREAT_CONSOLE_ override file values.
// If the file does not exist, defaults (plus environment) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	normalize(cfg)
	return cfg, nil
}

// normalize replaces non-positive tunables with their defaults.
func normalize(cfg *AppConfig) {
	d := defaultAppConfig()
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = d.API.TimeoutSec
	}
	if cfg.Notifications.PollIntervalSec <= 0 {
		cfg.Notifications.PollIntervalSec = d.Notifications.PollIntervalSec
	}
	if cfg.Notifications.ToastTTLSec <= 0 {
		cfg.Notifications.ToastTTLSec = d.Notifications.ToastTTLSec
	}
	if cfg.Notifications.MaxToasts <= 0 {
		cfg.Notifications.MaxToasts = d.Notifications.MaxToasts
	}
	if cfg.Notifications.ViewedRetention <= 0 {
		cfg.Notifications.ViewedRetention = d.Notifications.ViewedRetention
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = d.Storage.Driver
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("metrics", cfg.Metrics)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
