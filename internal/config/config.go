package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration for the rotation tooling: where
// the wrapped tool keeps its credentials, how to invoke it, and how the
// HTTP service behaves.
type Config struct {
	// Rotation layout
	RootDir        string `yaml:"root_dir" json:"root_dir"`
	LockPath       string `yaml:"lock_path" json:"lock_path"`
	LockTimeoutSec int    `yaml:"lock_timeout_sec" json:"lock_timeout_sec"`
	TotalAccounts  int    `yaml:"total_accounts" json:"total_accounts"`

	// Wrapped tool invocation
	ToolBinary     string `yaml:"tool_binary" json:"tool_binary"`
	ToolTimeoutSec int    `yaml:"tool_timeout_sec" json:"tool_timeout_sec"`
	MaxRetries     int    `yaml:"max_retries" json:"max_retries"`
	PingPrompt     string `yaml:"ping_prompt" json:"ping_prompt"`

	// Service
	Port             int  `yaml:"port" json:"port"`
	RateLimitEnabled bool `yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitRPS     int  `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst   int  `yaml:"rate_limit_burst" json:"rate_limit_burst"`

	// Logging
	Debug   bool   `yaml:"debug" json:"debug"`
	LogFile string `yaml:"log_file" json:"log_file"`
}

// Default returns the built-in configuration targeting the qwen CLI.
func Default() *Config {
	return &Config{
		RootDir:        "~/.qwen",
		LockPath:       "/tmp/qwen_rotation.lock",
		TotalAccounts:  5,
		ToolBinary:     "qwen",
		ToolTimeoutSec: 30,
		MaxRetries:     3,
		PingPrompt:     "say hello in one word",
		Port:           8080,
		RateLimitRPS:   10,
		RateLimitBurst: 20,
	}
}

// Load reads the config file at path (YAML or JSON by extension), falling
// back to defaults when the file is absent, then applies environment
// overrides. A present-but-unparsable file is an error: silently ignoring
// an operator's config is worse than failing fast.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := unmarshalConfig(path, data, cfg); err != nil {
				return nil, err
			}
			log.WithField("path", path).Debug("configuration loaded")
		case os.IsNotExist(err):
			log.WithField("path", path).Debug("config file absent, using defaults")
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.mergeEnvVars()
	if err := cfg.ValidateAndExpandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshalConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse YAML config: %w", err)
		}
	}
	return nil
}

// ValidateAndExpandPaths expands a leading ~ in path fields and rejects
// nonsense values.
func (c *Config) ValidateAndExpandPaths() error {
	expanded, err := expandHome(c.RootDir)
	if err != nil {
		return fmt.Errorf("expand root_dir: %w", err)
	}
	c.RootDir = expanded

	if c.TotalAccounts <= 0 {
		return fmt.Errorf("total_accounts must be positive, got %d", c.TotalAccounts)
	}
	if c.ToolTimeoutSec <= 0 {
		return fmt.Errorf("tool_timeout_sec must be positive, got %d", c.ToolTimeoutSec)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
