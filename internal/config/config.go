package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
}

type ServerConfig struct {
	Port          int   `mapstructure:"port"`
	MaxUploadSize int64 `mapstructure:"max_upload_size"` // bytes accepted on document import
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// WorkspaceConfig describes the document opened at startup
type WorkspaceConfig struct {
	AutosaveSlot string  `mapstructure:"autosave_slot"`
	CenterLat    float64 `mapstructure:"center_lat"`
	CenterLng    float64 `mapstructure:"center_lng"`
	Zoom         int     `mapstructure:"zoom"`
}

// Load reads configuration from defaults, an optional config.yaml and
// MAPNOTES_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_size", 20<<20)
	v.SetDefault("database.path", "./data/mapnotes.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("rate_limit.requests", 600)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("workspace.autosave_slot", "autosave")
	v.SetDefault("workspace.center_lat", 45.1885)
	v.SetDefault("workspace.center_lng", 5.7245)
	v.SetDefault("workspace.zoom", 13)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// MAPNOTES_DATABASE_PATH -> database.path
	v.SetEnvPrefix("MAPNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every field is present and sane
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.MaxUploadSize <= 0 {
		errs = append(errs, "server.max_upload_size must be positive")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.RateLimit.Requests <= 0 {
		errs = append(errs, "rate_limit.requests must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		errs = append(errs, "rate_limit.window_seconds must be positive")
	}
	if c.Workspace.AutosaveSlot == "" {
		errs = append(errs, "workspace.autosave_slot is required")
	}
	if c.Workspace.CenterLat < -90 || c.Workspace.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("workspace.center_lat must be -90..90, got %v", c.Workspace.CenterLat))
	}
	if c.Workspace.CenterLng < -180 || c.Workspace.CenterLng > 180 {
		errs = append(errs, fmt.Sprintf("workspace.center_lng must be -180..180, got %v", c.Workspace.CenterLng))
	}
	if c.Workspace.Zoom < 0 || c.Workspace.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("workspace.zoom must be 0-22, got %d", c.Workspace.Zoom))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
