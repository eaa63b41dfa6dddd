package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Viewer   ViewerConfig   `mapstructure:"viewer"`
	UI       UIConfig       `mapstructure:"ui"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// UpstreamConfig describes the catalog listing source and image locators
type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`       // Listing endpoint host, e.g. https://picsum.photos
	ImageBaseURL string        `mapstructure:"image_base_url"` // Image host; defaults to BaseURL
	FullSize     int           `mapstructure:"full_size"`      // Full image edge in pixels
	PreviewSize  int           `mapstructure:"preview_size"`   // Preview image edge in pixels
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CatalogConfig holds catalog cache configuration
type CatalogConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	DefaultLimit  int           `mapstructure:"default_limit"`  // Used by lookups and neighbor queries
	FeedLimit     int           `mapstructure:"feed_limit"`     // Used by the home feed
	RetryInterval time.Duration `mapstructure:"retry_interval"` // Minimum spacing of upstream attempts after a failure
	CacheDir      string        `mapstructure:"cache_dir"`      // Empty disables the on-disk mirror
}

// PlaybackConfig holds viewer playback configuration
type PlaybackConfig struct {
	Interval    time.Duration `mapstructure:"interval"`     // Auto-advance delay
	PinSnapshot bool          `mapstructure:"pin_snapshot"` // Navigate a per-viewer copy of the catalog
}

// ViewerConfig holds the external image viewer configuration
type ViewerConfig struct {
	Command string   `mapstructure:"command"` // Empty for system default (open / xdg-open)
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	CardWidth int `mapstructure:"card_width"`
}

// ServerConfig holds the read-only API configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:     "https://picsum.photos",
			FullSize:    1080,
			PreviewSize: 200,
			Timeout:     15 * time.Second,
		},
		Catalog: CatalogConfig{
			TTL:           5 * time.Minute,
			DefaultLimit:  10,
			FeedLimit:     15,
			RetryInterval: 10 * time.Second,
			CacheDir:      defaultCachePath(),
		},
		Playback: PlaybackConfig{
			Interval:    5 * time.Second,
			PinSnapshot: false,
		},
		Viewer: ViewerConfig{
			Args: []string{},
		},
		UI: UIConfig{
			CardWidth: 28,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel", "reel.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "reel.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "reel")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "reel")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "reel", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "reel", "cache")
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("upstream.base_url", cfg.Upstream.BaseURL)
	v.SetDefault("upstream.image_base_url", cfg.Upstream.ImageBaseURL)
	v.SetDefault("upstream.full_size", cfg.Upstream.FullSize)
	v.SetDefault("upstream.preview_size", cfg.Upstream.PreviewSize)
	v.SetDefault("upstream.timeout", cfg.Upstream.Timeout)

	v.SetDefault("catalog.ttl", cfg.Catalog.TTL)
	v.SetDefault("catalog.default_limit", cfg.Catalog.DefaultLimit)
	v.SetDefault("catalog.feed_limit", cfg.Catalog.FeedLimit)
	v.SetDefault("catalog.retry_interval", cfg.Catalog.RetryInterval)
	v.SetDefault("catalog.cache_dir", cfg.Catalog.CacheDir)

	v.SetDefault("playback.interval", cfg.Playback.Interval)
	v.SetDefault("playback.pin_snapshot", cfg.Playback.PinSnapshot)

	v.SetDefault("viewer.command", cfg.Viewer.Command)
	v.SetDefault("viewer.args", cfg.Viewer.Args)

	v.SetDefault("ui.card_width", cfg.UI.CardWidth)

	v.SetDefault("server.addr", cfg.Server.Addr)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from file and environment.
// An empty path searches the default config directory and the working directory.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides (REEL_CATALOG_TTL=1m)
	v.SetEnvPrefix("REEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the catalog and player cannot run with
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Catalog.TTL <= 0 {
		return fmt.Errorf("catalog.ttl must be positive, got %s", c.Catalog.TTL)
	}
	if c.Catalog.DefaultLimit <= 0 || c.Catalog.FeedLimit <= 0 {
		return fmt.Errorf("catalog limits must be positive")
	}
	if c.Playback.Interval <= 0 {
		return fmt.Errorf("playback.interval must be positive, got %s", c.Playback.Interval)
	}
	return nil
}

// ImageBase returns the host used for image locators
func (c *Config) ImageBase() string {
	if c.Upstream.ImageBaseURL != "" {
		return c.Upstream.ImageBaseURL
	}
	return c.Upstream.BaseURL
}

// SaveConfig writes cfg as YAML to path, or to the default location when path is empty
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		path = filepath.Join(defaultConfigPath(), "config.yaml")
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, cfg)

	// Durations as strings so the file stays hand-editable ("5m0s")
	v.Set("upstream.timeout", cfg.Upstream.Timeout.String())
	v.Set("catalog.ttl", cfg.Catalog.TTL.String())
	v.Set("catalog.retry_interval", cfg.Catalog.RetryInterval.String())
	v.Set("playback.interval", cfg.Playback.Interval.String())

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
