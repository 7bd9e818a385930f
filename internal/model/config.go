package model

import (
	"runtime"
	"time"
)

// Config holds the complete gbdrill configuration
type Config struct {
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// DataConfig locates the cause hierarchy and the fact table
type DataConfig struct {
	HierarchyPath  string         `yaml:"hierarchy_path" mapstructure:"hierarchy_path"`   // JSON or YAML cause definition
	CausesSelector string         `yaml:"causes_selector" mapstructure:"causes_selector"` // JSONPath to the causes array
	FactsDB        string         `yaml:"facts_db" mapstructure:"facts_db"`               // SQLite database with gbd and locations tables
	Metric         string         `yaml:"metric" mapstructure:"metric"`                   // metric_name to keep (e.g., "Rate")
	DeniedCauses   []int          `yaml:"denied_causes" mapstructure:"denied_causes"`
	LocationNames  map[int]string `yaml:"location_names,omitempty" mapstructure:"location_names"` // Display-name overrides
}

// ServerConfig controls the HTTP transport
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	MaxConnections    int           `yaml:"max_connections" mapstructure:"max_connections"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" mapstructure:"read_header_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per client, 0 disables
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	ClientIdleTimeout time.Duration `yaml:"client_idle_timeout" mapstructure:"client_idle_timeout"`
}

// CacheConfig controls the response cache
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	YearWorkers int `yaml:"year_workers" mapstructure:"year_workers"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool `yaml:"pretty" mapstructure:"pretty"`
}

// DefaultDeniedCauses are GBD category ids that duplicate other branches
// or act as non-leaf placeholders in the source data.
var DefaultDeniedCauses = []int{1058, 1029, 1026, 1027, 1028, 1059, 294}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	denied := make([]int, len(DefaultDeniedCauses))
	copy(denied, DefaultDeniedCauses)

	return &Config{
		Data: DataConfig{
			HierarchyPath:  "data/filtered_hierarchical_causes.json",
			CausesSelector: "$.causes",
			FactsDB:        "data/gbd.db",
			Metric:         "Rate",
			DeniedCauses:   denied,
		},
		Server: ServerConfig{
			Addr:              ":5000",
			MaxConnections:    256,
			ReadHeaderTimeout: 5 * time.Second,
			RequestsPerSecond: 20,
			Burst:             40,
			ClientIdleTimeout: 10 * time.Minute,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			YearWorkers: runtime.NumCPU(),
		},
	}
}
