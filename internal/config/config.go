package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Catalog   CatalogConfig   `yaml:"catalog"`
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

// TailscaleConfig controls tsnet serving. When disabled the server listens
// on a plain TCP socket and every request is attributed to the dev user.
type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// CatalogConfig points at the external exercise catalog (ExerciseDB via
// RapidAPI). The server degrades gracefully when it is unreachable, so an
// empty catalog config is valid.
type CatalogConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	APIHost string `yaml:"api_host"`
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
// Env vars use the prefix FITSTATS_ and underscore-separated paths:
//
//	FITSTATS_SERVER_HOST, FITSTATS_SERVER_PORT,
//	FITSTATS_DB_HOST, FITSTATS_DB_PORT, FITSTATS_DB_NAME,
//	FITSTATS_DB_USER, FITSTATS_DB_PASSWORD, FITSTATS_DB_SSLMODE,
//	FITSTATS_AUTH_API_KEY,
//	FITSTATS_CATALOG_BASE_URL, FITSTATS_CATALOG_API_KEY, FITSTATS_CATALOG_API_HOST
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITSTATS_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FITSTATS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FITSTATS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("FITSTATS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("FITSTATS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("FITSTATS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("FITSTATS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("FITSTATS_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("FITSTATS_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("FITSTATS_CATALOG_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}
	if v := os.Getenv("FITSTATS_CATALOG_API_KEY"); v != "" {
		cfg.Catalog.APIKey = v
	}
	if v := os.Getenv("FITSTATS_CATALOG_API_HOST"); v != "" {
		cfg.Catalog.APIHost = v
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
	return nil
}
