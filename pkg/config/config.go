package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thebestandgreatest/craftybroker/pkg/types"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// File is the broker configuration file
type File struct {
	// LogLevel is one of debug, info, warn, error (default info)
	LogLevel string `yaml:"logLevel,omitempty"`

	// JSONLogs switches from console to JSON log output
	JSONLogs bool `yaml:"jsonLogs,omitempty"`

	// DataDir is where the broker keeps its state database
	DataDir string `yaml:"dataDir,omitempty"`

	// MetricsAddr is the listen address for /metrics and /health (serve mode)
	MetricsAddr string `yaml:"metricsAddr,omitempty"`

	// RefreshInterval is how often serve mode re-reads remote statuses
	RefreshInterval Duration `yaml:"refreshInterval,omitempty"`

	// Servers are the managed server configurations
	Servers []types.Config `yaml:"servers"`
}

// Defaults applied by Parse
const (
	DefaultDataDir         = "data"
	DefaultMetricsAddr     = ":9652"
	DefaultRefreshInterval = 30 * time.Second
)

// Load reads and parses a broker configuration file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration YAML, applies defaults and validates it
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if f.DataDir == "" {
		f.DataDir = DefaultDataDir
	}
	if f.MetricsAddr == "" {
		f.MetricsAddr = DefaultMetricsAddr
	}
	if f.RefreshInterval == 0 {
		f.RefreshInterval = Duration(DefaultRefreshInterval)
	}

	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) validate() error {
	seen := make(map[string]bool)
	for i := range f.Servers {
		cfg := &f.Servers[i]
		if cfg.Name == "" {
			return fmt.Errorf("server %d: name is required", i)
		}
		if seen[cfg.Name] {
			return fmt.Errorf("duplicate server name %q", cfg.Name)
		}
		seen[cfg.Name] = true

		payload, err := cfg.CraftyPayload()
		if err != nil {
			return fmt.Errorf("server %q: %w", cfg.Name, err)
		}
		if payload.ServerID == "" {
			return fmt.Errorf("server %q: serverID is required", cfg.Name)
		}
		if payload.Token == "" {
			return fmt.Errorf("server %q: token is required", cfg.Name)
		}
		if payload.CraftyAddress == "" {
			return fmt.Errorf("server %q: craftyAddress is required", cfg.Name)
		}
	}
	return nil
}
