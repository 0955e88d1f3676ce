package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig describes how to reach the mail backend.
type ServerConfig struct {
	// BaseURL is the root URL of the backend (scheme and host).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// AuthRoute is the path prefix of the authentication routes.
	AuthRoute string `mapstructure:"auth_route" yaml:"auth_route"`

	// ResourcesRoute is the path prefix of the message and user resources.
	ResourcesRoute string `mapstructure:"resources_route" yaml:"resources_route"`

	// TimeoutSec bounds every HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// RememberSession keeps the session cookie in the system keyring
	// so the next start can skip the login form.
	RememberSession bool `mapstructure:"remember_session" yaml:"remember_session"`

	// SearchRatePerSec caps user-search requests issued while typing.
	SearchRatePerSec float64 `mapstructure:"search_rate_per_sec" yaml:"search_rate_per_sec"`
}

// Timeout returns TimeoutSec as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// StoreConfig points at the local database for drafts and notices.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ExportConfig controls .eml export of messages.
type ExportConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Domain string `mapstructure:"domain" yaml:"domain"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// configDir returns ~/.config/webmail, falling back to the working
// directory when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "webmail")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/webmail/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	exportDir := "Mail"
	if home, err := os.UserHomeDir(); err == nil {
		exportDir = filepath.Join(home, "Mail")
	}

	return &AppConfig{
		Server: ServerConfig{
			BaseURL:          "http://localhost:5000",
			AuthRoute:        "/api/auth",
			ResourcesRoute:   "/api/resources",
			TimeoutSec:       30,
			RememberSession:  true,
			SearchRatePerSec: 4,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "webmail.log"),
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "webmail.db"),
		},
		Export: ExportConfig{
			Dir:    exportDir,
			Domain: "webmail.local",
		},
		Display: DisplayConfig{
			DateFormat: "2 Jan 06, 15:04",
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so that missing keys and
// environment overrides resolve consistently.
func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("server.base_url", cfg.Server.BaseURL)
	v.SetDefault("server.auth_route", cfg.Server.AuthRoute)
	v.SetDefault("server.resources_route", cfg.Server.ResourcesRoute)
	v.SetDefault("server.timeout_sec", cfg.Server.TimeoutSec)
	v.SetDefault("server.remember_session", cfg.Server.RememberSession)
	v.SetDefault("server.search_rate_per_sec", cfg.Server.SearchRatePerSec)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("export.dir", cfg.Export.Dir)
	v.SetDefault("export.domain", cfg.Export.Domain)
	v.SetDefault("display.date_format", cfg.Display.DateFormat)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values can be overridden with WEBMAIL_* environment variables, e.g.
// WEBMAIL_SERVER_BASE_URL. A missing file yields the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("webmail")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaultAppConfig()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Server.TimeoutSec <= 0 {
		cfg.Server.TimeoutSec = 30
	}

	return cfg, nil
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

	v.Set("server", cfg.Server)
	v.Set("log", cfg.Log)
	v.Set("store", cfg.Store)
	v.Set("export", cfg.Export)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
