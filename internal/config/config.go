// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all quickdash configuration.
type Config struct {
	Server     Server     `yaml:"server"`
	Dashboards Dashboards `yaml:"dashboards"`
	Data       Data       `yaml:"data"`
	Cache      Cache      `yaml:"cache"`
	Log        Log        `yaml:"log"`
}

// Server holds HTTP front end settings.
type Server struct {
	Addr            string        `yaml:"addr"`
	Mode            string        `yaml:"mode"` // "debug" | "release" | "test"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Dashboards holds dashboard file discovery settings.
type Dashboards struct {
	Dir     string `yaml:"dir"`     // empty serves the bundled demos
	Pattern string `yaml:"pattern"` // doublestar glob relative to Dir
}

// Data holds data source settings.
type Data struct {
	Dir string `yaml:"dir"` // local files here shadow the bundled demo data
}

// Cache holds tab cache settings.
type Cache struct {
	LoadOnce bool `yaml:"load_once"` // coalesce concurrent cold loads
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "console" | "json"
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: Server{
			Addr:            ":8050",
			Mode:            "release",
			ShutdownTimeout: 5 * time.Second,
		},
		Dashboards: Dashboards{
			Pattern: "**/*.{yaml,yml,toml}",
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("config: server.addr cannot be empty")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode must be \"debug\", \"release\" or \"test\", got %q", c.Server.Mode)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Dashboards.Pattern == "" {
		return errors.New("config: dashboards.pattern cannot be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be \"console\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: QUICKDASH_ADDR, QUICKDASH_DASHBOARDS, QUICKDASH_DATA,
// QUICKDASH_LOG_LEVEL, QUICKDASH_CACHE_LOAD_ONCE.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("QUICKDASH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("QUICKDASH_DASHBOARDS"); v != "" {
		c.Dashboards.Dir = v
	}
	if v := os.Getenv("QUICKDASH_DATA"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("QUICKDASH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("QUICKDASH_CACHE_LOAD_ONCE"); v != "" {
		switch v {
		case "1", "true", "yes":
			c.Cache.LoadOnce = true
		case "0", "false", "no":
			c.Cache.LoadOnce = false
		default:
			return fmt.Errorf("config: invalid QUICKDASH_CACHE_LOAD_ONCE %q", v)
		}
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Server     *rawServer     `yaml:"server"`
	Dashboards *rawDashboards `yaml:"dashboards"`
	Data       *rawData       `yaml:"data"`
	Cache      *rawCache      `yaml:"cache"`
	Log        *rawLog        `yaml:"log"`
}

type rawServer struct {
	Addr            *string        `yaml:"addr"`
	Mode            *string        `yaml:"mode"`
	ShutdownTimeout *time.Duration `yaml:"shutdown_timeout"`
}

type rawDashboards struct {
	Dir     *string `yaml:"dir"`
	Pattern *string `yaml:"pattern"`
}

type rawData struct {
	Dir *string `yaml:"dir"`
}

type rawCache struct {
	LoadOnce *bool `yaml:"load_once"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if s := layer.Server; s != nil {
		if s.Addr != nil {
			c.Server.Addr = *s.Addr
		}
		if s.Mode != nil {
			c.Server.Mode = *s.Mode
		}
		if s.ShutdownTimeout != nil {
			c.Server.ShutdownTimeout = *s.ShutdownTimeout
		}
	}
	if d := layer.Dashboards; d != nil {
		if d.Dir != nil {
			c.Dashboards.Dir = *d.Dir
		}
		if d.Pattern != nil {
			c.Dashboards.Pattern = *d.Pattern
		}
	}
	if layer.Data != nil && layer.Data.Dir != nil {
		c.Data.Dir = *layer.Data.Dir
	}
	if layer.Cache != nil && layer.Cache.LoadOnce != nil {
		c.Cache.LoadOnce = *layer.Cache.LoadOnce
	}
	if l := layer.Log; l != nil {
		if l.Level != nil {
			c.Log.Level = *l.Level
		}
		if l.Format != nil {
			c.Log.Format = *l.Format
		}
	}
}
