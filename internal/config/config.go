package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// LogConfig selects the slog handler. An empty File logs to stdout;
// otherwise the file is rotated by size.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ClientConfig configures the CLI and MCP clients of a running server.
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	CachePath string
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A .env file next to the config file, if present, is loaded first; variables
// already set in the environment win over it. Env vars use the prefix
// LIMITBEYOND_ and underscore-separated paths:
//
//	LIMITBEYOND_SERVER_HOST, LIMITBEYOND_SERVER_PORT,
//	LIMITBEYOND_DB_HOST, LIMITBEYOND_DB_PORT, LIMITBEYOND_DB_NAME,
//	LIMITBEYOND_DB_USER, LIMITBEYOND_DB_PASSWORD, LIMITBEYOND_DB_SSLMODE,
//	LIMITBEYOND_AUTH_API_KEY, LIMITBEYOND_TAILSCALE_ENABLED,
//	LIMITBEYOND_LOG_LEVEL, LIMITBEYOND_LOG_FILE, LIMITBEYOND_METRICS_ENABLED
func Load(path string) (*Config, error) {
	cfg := &Config{
		Tailscale: TailscaleConfig{Hostname: "limitbeyond", StateDir: "tsnet-state"},
		Log:       LogConfig{Level: "info", Format: "text", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 28},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadClient reads client settings from LIMITBEYOND_URL, LIMITBEYOND_API_KEY
// and LIMITBEYOND_CACHE, after loading ./.env when present.
func LoadClient() (ClientConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return ClientConfig{}, err
	}
	cfg := ClientConfig{
		BaseURL:   "http://localhost:8080",
		APIKey:    os.Getenv("LIMITBEYOND_API_KEY"),
		CachePath: os.Getenv("LIMITBEYOND_CACHE"),
	}
	if v := os.Getenv("LIMITBEYOND_URL"); v != "" {
		cfg.BaseURL = v
	}
	if cfg.CachePath == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			cfg.CachePath = filepath.Join(dir, "limitbeyond", "snapshot.db")
		}
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIMITBEYOND_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIMITBEYOND_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIMITBEYOND_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("LIMITBEYOND_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("LIMITBEYOND_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("LIMITBEYOND_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("LIMITBEYOND_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("LIMITBEYOND_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("LIMITBEYOND_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("LIMITBEYOND_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("LIMITBEYOND_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LIMITBEYOND_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("LIMITBEYOND_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
