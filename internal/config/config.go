// Package config loads and persists the noesis.yaml configuration:
// prover bounds, routing policy, bridge endpoints, cache persistence
// and knowledge-base location. A missing file yields defaults;
// NOESIS_* environment variables override individual fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all noesis configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Prover  ProverConfig  `yaml:"prover"`
	Router  RouterConfig  `yaml:"router"`
	Bridges BridgesConfig `yaml:"bridges"`
	Cache   CacheConfig   `yaml:"cache"`
	KB      KBConfig      `yaml:"kb"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProverConfig bounds the native engine.
type ProverConfig struct {
	MaxDepth int    `yaml:"max_depth"`
	Timeout  string `yaml:"timeout"`
	MaxFacts int    `yaml:"max_facts"`
}

// RouterConfig sets the routing policy.
type RouterConfig struct {
	// RaceWidth > 1 races that many top candidates in parallel.
	RaceWidth int `yaml:"race_width"`
	// BridgeTimeout bounds each external prover invocation.
	BridgeTimeout string `yaml:"bridge_timeout"`
	// PoolSize bounds concurrent bridge invocations.
	PoolSize int `yaml:"pool_size"`
}

// BridgesConfig configures the external prover adapters. An empty
// binary means the default is looked up on PATH.
type BridgesConfig struct {
	SMT      SMTBridgeConfig    `yaml:"smt"`
	Tableaux BinaryBridgeConfig `yaml:"tableaux"`
	Lean     BinaryBridgeConfig `yaml:"lean"`
	Coq      BinaryBridgeConfig `yaml:"coq"`
	Neural   NeuralBridgeConfig `yaml:"neural"`
}

// SMTBridgeConfig configures the SMT solver adapter.
type SMTBridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Binary  string `yaml:"binary"`
}

// BinaryBridgeConfig configures a plain subprocess adapter.
type BinaryBridgeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Binary  string `yaml:"binary"`
}

// NeuralBridgeConfig configures the LLM adapter.
type NeuralBridgeConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Model     string  `yaml:"model"`
	APIKey    string  `yaml:"api_key"`
	Threshold float64 `yaml:"threshold"`
}

// CacheConfig configures the proof cache. An empty path disables
// persistence.
type CacheConfig struct {
	Capacity int    `yaml:"capacity"`
	Path     string `yaml:"path"`
}

// KBConfig locates the knowledge base.
type KBConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "noesis",
		Version: "0.3.0",

		Prover: ProverConfig{
			MaxDepth: 12,
			Timeout:  "5s",
			MaxFacts: 5000,
		},

		Router: RouterConfig{
			RaceWidth:     1,
			BridgeTimeout: "10s",
			PoolSize:      4,
		},

		Bridges: BridgesConfig{
			SMT:      SMTBridgeConfig{Enabled: true, Binary: "z3"},
			Tableaux: BinaryBridgeConfig{Binary: "moltap"},
			Lean:     BinaryBridgeConfig{Binary: "lean"},
			Coq:      BinaryBridgeConfig{Binary: "coqc"},
			Neural: NeuralBridgeConfig{
				Model:     "gemini-2.0-flash",
				Threshold: 0.75,
			},
		},

		Cache: CacheConfig{
			Capacity: 4096,
			Path:     "data/proofs.db",
		},

		KB: KBConfig{
			Dir: "kb",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file returns
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies NOESIS_* environment variable overrides.
// The neural API key also falls back to GEMINI_API_KEY.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Bridges.Neural.APIKey = key
		c.Bridges.Neural.Enabled = true
	}
	if key := os.Getenv("NOESIS_API_KEY"); key != "" {
		c.Bridges.Neural.APIKey = key
		c.Bridges.Neural.Enabled = true
	}
	if dir := os.Getenv("NOESIS_KB_DIR"); dir != "" {
		c.KB.Dir = dir
	}
	if path := os.Getenv("NOESIS_CACHE_PATH"); path != "" {
		c.Cache.Path = path
	}
	if bin := os.Getenv("NOESIS_SMT_BINARY"); bin != "" {
		c.Bridges.SMT.Binary = bin
		c.Bridges.SMT.Enabled = true
	}
	if level := os.Getenv("NOESIS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if timeout := os.Getenv("NOESIS_PROVER_TIMEOUT"); timeout != "" {
		c.Prover.Timeout = timeout
	}
	if width := os.Getenv("NOESIS_RACE_WIDTH"); width != "" {
		if n, err := strconv.Atoi(width); err == nil && n > 0 {
			c.Router.RaceWidth = n
		}
	}
}

// ProverTimeout parses the prover timeout, falling back to the default
// on a malformed value.
func (c *Config) ProverTimeout() time.Duration {
	return parseDuration(c.Prover.Timeout, 5*time.Second)
}

// BridgeTimeout parses the per-bridge timeout.
func (c *Config) BridgeTimeout() time.Duration {
	return parseDuration(c.Router.BridgeTimeout, 10*time.Second)
}

// Fingerprint is the stable digest of every setting that can change a
// proof outcome. It is folded into cache keys so results computed under
// different bounds never answer for each other.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("d%d-t%s-f%d-r%d",
		c.Prover.MaxDepth, c.ProverTimeout(), c.Prover.MaxFacts, c.Router.RaceWidth)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
