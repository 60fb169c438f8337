package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/tb0hdan/secscan-mcp/pkg/policy"
	"github.com/tb0hdan/secscan-mcp/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	// EnvPrefix is prepended to every environment override, e.g. SECSCAN_BIND.
	EnvPrefix = "SECSCAN"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Scan    ScanConfig    `yaml:"scan"`
}

// ServerConfig holds transport settings.
type ServerConfig struct {
	Transport string `yaml:"transport"` // "stdio" (default) or "http"
	Bind      string `yaml:"bind"`      // host:port for the http transport
	Debug     bool   `yaml:"debug"`
}

// StorageConfig holds history database settings.
type StorageConfig struct {
	DatabasePath string `yaml:"db_path"`
}

// ScanConfig holds the scan policy tables and scratch directory housekeeping.
type ScanConfig struct {
	Directory             string                   `yaml:"directory"`
	AllowedTargetPrefixes []string                 `yaml:"allowed_target_prefixes"`
	DefaultPorts          string                   `yaml:"default_ports"`
	MaxPortEntries        int                      `yaml:"max_port_entries"` // 0 = unlimited
	MaxTimeout            time.Duration            `yaml:"max_timeout"`
	Timeouts              map[string]time.Duration `yaml:"timeouts"`
	ExtraOptions          ExtraOptionsConfig       `yaml:"extra_options"`
	JanitorInterval       time.Duration            `yaml:"janitor_interval"`
	StaleFileAge          time.Duration            `yaml:"stale_file_age"`
}

// ExtraOptionsConfig controls the free-form flags callers may append to a tool command.
type ExtraOptionsConfig struct {
	Mode         policy.ExtraOptionsMode `yaml:"mode"`
	AllowedFlags []string                `yaml:"allowed_flags"`
}

// envOverrides are read from SECSCAN_* variables and win over the config file.
type envOverrides struct {
	Transport        string        `envconfig:"TRANSPORT"`
	Bind             string        `envconfig:"BIND"`
	Debug            bool          `envconfig:"DEBUG"`
	DatabasePath     string        `envconfig:"DB_PATH"`
	ScanDirectory    string        `envconfig:"SCAN_DIRECTORY"`
	ExtraOptionsMode string        `envconfig:"EXTRA_OPTIONS_MODE"`
	MaxTimeout       time.Duration `envconfig:"MAX_TIMEOUT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: TransportStdio,
			Bind:      "localhost:8990",
		},
		Storage: StorageConfig{
			DatabasePath: "build/secscan-mcp.db",
		},
		Scan: ScanConfig{
			Directory:             types.DefaultScanDirectory,
			AllowedTargetPrefixes: policy.DefaultAllowedPrefixes(),
			DefaultPorts:          types.DefaultPortSpec,
			MaxTimeout:            types.MaxScanTimeout,
			Timeouts:              policy.DefaultTimeouts(),
			ExtraOptions: ExtraOptionsConfig{
				Mode:         policy.ExtraOptionsPermissive,
				AllowedFlags: policy.DefaultAllowedFlags(),
			},
			JanitorInterval: 15 * time.Minute,
			StaleFileAge:    types.StaleFileAge,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to load environment overrides: %w", err)
	}

	if env.Transport != "" {
		c.Server.Transport = env.Transport
	}
	if env.Bind != "" {
		c.Server.Bind = env.Bind
	}
	if env.Debug {
		c.Server.Debug = true
	}
	if env.DatabasePath != "" {
		c.Storage.DatabasePath = env.DatabasePath
	}
	if env.ScanDirectory != "" {
		c.Scan.Directory = env.ScanDirectory
	}
	if env.ExtraOptionsMode != "" {
		c.Scan.ExtraOptions.Mode = policy.ExtraOptionsMode(env.ExtraOptionsMode)
	}
	if env.MaxTimeout > 0 {
		c.Scan.MaxTimeout = env.MaxTimeout
	}

	return nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Server.Transport != TransportStdio && c.Server.Transport != TransportHTTP {
		return fmt.Errorf("transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Server.Transport)
	}
	if c.Server.Transport == TransportHTTP && c.Server.Bind == "" {
		return errors.New("bind address is required for the http transport")
	}
	if c.Storage.DatabasePath == "" {
		return errors.New("db_path is required")
	}
	if c.Scan.Directory == "" {
		return errors.New("scan directory is required")
	}
	if len(c.Scan.AllowedTargetPrefixes) == 0 {
		return errors.New("at least one allowed target prefix is required")
	}
	if c.Scan.MaxTimeout <= 0 || c.Scan.MaxTimeout > types.MaxScanTimeout {
		return fmt.Errorf("max_timeout must be within (0, %s], got %s", types.MaxScanTimeout, c.Scan.MaxTimeout)
	}
	for key, timeout := range c.Scan.Timeouts {
		if timeout <= 0 {
			return fmt.Errorf("timeout for %q must be positive, got %s", key, timeout)
		}
	}
	if c.Scan.MaxPortEntries < 0 {
		return fmt.Errorf("max_port_entries cannot be negative, got %d", c.Scan.MaxPortEntries)
	}
	if !c.Scan.ExtraOptions.Mode.Valid() {
		return fmt.Errorf("extra_options.mode must be one of permissive, strict, disabled, got %q", c.Scan.ExtraOptions.Mode)
	}
	if c.Scan.JanitorInterval < 0 || c.Scan.StaleFileAge < 0 {
		return errors.New("janitor_interval and stale_file_age cannot be negative")
	}

	return nil
}

// PolicyOptions converts the scan section into policy construction options.
func (s ScanConfig) PolicyOptions() policy.Options {
	return policy.Options{
		AllowedPrefixes:  s.AllowedTargetPrefixes,
		DefaultPorts:     s.DefaultPorts,
		MaxPortEntries:   s.MaxPortEntries,
		MaxTimeout:       s.MaxTimeout,
		Timeouts:         s.Timeouts,
		ExtraOptionsMode: s.ExtraOptions.Mode,
		AllowedFlags:     s.ExtraOptions.AllowedFlags,
	}
}
