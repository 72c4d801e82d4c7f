package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Resource backends.
const (
	BackendFS       = "fs"
	BackendPostgres = "postgres"
)

// Navigation holds all configuration for the navigation service.
type Navigation struct {
	// Logging
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"` // empty: stdout only
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`

	// Navmesh resources
	ResourceBackend string         `yaml:"resource_backend"` // fs | postgres
	ResourceRoot    string         `yaml:"resource_root"`
	Database        DatabaseConfig `yaml:"database"`

	// Search
	GirthGrids        bool    `yaml:"girth_grids"`
	GridResolution    float32 `yaml:"grid_resolution"` // metres per outside chunk
	MaxSearchDistance float32 `yaml:"max_search_distance"`
	SearchNodeLimit   int     `yaml:"search_node_limit"`

	// Streaming
	LoadWorkers int `yaml:"load_workers"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultNavigation returns Navigation config with sensible defaults.
func DefaultNavigation() Navigation {
	return Navigation{
		LogLevel:          "info",
		LogMaxSizeMB:      100,
		LogMaxBackups:     3,
		ResourceBackend:   BackendFS,
		ResourceRoot:      "res",
		GirthGrids:        true,
		GridResolution:    100,
		MaxSearchDistance: 500,
		SearchNodeLimit:   100000,
		LoadWorkers:       4,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "chunknav",
			Password: "chunknav",
			DBName:   "chunknav",
			SSLMode:  "disable",
		},
	}
}

// Validate checks values that have no usable fallback.
func (n Navigation) Validate() error {
	switch n.ResourceBackend {
	case BackendFS, BackendPostgres:
	default:
		return fmt.Errorf("unknown resource_backend %q", n.ResourceBackend)
	}
	if n.GridResolution <= 0 {
		return fmt.Errorf("grid_resolution must be positive, got %g", n.GridResolution)
	}
	if n.LoadWorkers <= 0 {
		return fmt.Errorf("load_workers must be positive, got %d", n.LoadWorkers)
	}
	return nil
}

// LoadNavigation loads navigation config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadNavigation(path string) (Navigation, error) {
	cfg := DefaultNavigation()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
