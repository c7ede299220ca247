package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig
	Database DatabaseConfig
	Poll     PollConfig
	UI       UIConfig
	Log      LogConfig
}

// APIConfig points at the HeartMula backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout time.Duration
}

// DatabaseConfig holds the local state database path.
type DatabaseConfig struct {
	Path string
}

// PollConfig tunes task polling.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int `mapstructure:"max_attempts"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DownloadDir string `mapstructure:"download_dir"`
	DateFormat  string `mapstructure:"date_format"`
}

// LogConfig controls the slog sink.
type LogConfig struct {
	Level string
	Path  string
}

// Load reads configuration from file and env. Env var overrides use prefix
// MULASTUDIO_, e.g. MULASTUDIO_API_BASE_URL.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "http://localhost:10001/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "mulastudio", "state.db"))
	v.SetDefault("poll.interval", "2s")
	v.SetDefault("poll.max_attempts", 120)
	v.SetDefault("ui.download_dir", filepath.Join(os.Getenv("HOME"), "Music", "mulastudio"))
	v.SetDefault("ui.date_format", "02 Jan 15:04")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("MULASTUDIO_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "mulastudio"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("MULASTUDIO")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.BaseURL == "" {
		return Config{}, fmt.Errorf("api.base_url must not be empty")
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used by the settings flow for non-sensitive preferences; the auth
// token never goes through here.
func Save(cfg Config) error {
	path := os.Getenv("MULASTUDIO_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "mulastudio", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("database.path", cfg.Database.Path)
	v.Set("poll.interval", cfg.Poll.Interval.String())
	v.Set("poll.max_attempts", cfg.Poll.MaxAttempts)
	v.Set("ui.download_dir", cfg.UI.DownloadDir)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.path", cfg.Log.Path)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
