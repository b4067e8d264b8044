package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all blendermcp configuration.
type Config struct {
	// Blender addon socket
	Blender BlenderConfig `yaml:"blender"`

	// LLM used for code repair
	LLM LLMConfig `yaml:"llm"`

	// Self-healing code execution
	Heal HealConfig `yaml:"heal"`

	// Anonymous usage telemetry
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Scene watch command
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BlenderConfig configures the connection to the Blender addon.
type BlenderConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	DialTimeout    string `yaml:"dial_timeout"`
	CommandTimeout string `yaml:"command_timeout"`
}

// LLMConfig configures the repair model.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// HealConfig configures self-healing code execution.
type HealConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxRepairs int  `yaml:"max_repairs"`
}

// TelemetryConfig configures anonymous usage recording.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig configures the scene watch loop.
type WatchConfig struct {
	Interval string `yaml:"interval"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Blender: BlenderConfig{
			Host:           "localhost",
			Port:           9876,
			DialTimeout:    "5s",
			CommandTimeout: "180s",
		},

		LLM: LLMConfig{
			Model:   "gemini-2.0-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: "60s",
		},

		Heal: HealConfig{
			Enabled:    true,
			MaxRepairs: 2,
		},

		Telemetry: TelemetryConfig{
			Enabled:      true,
			DatabasePath: defaultDatabasePath(),
		},

		Watch: WatchConfig{
			Interval: "2s",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "blendermcp.yaml"
	}
	return filepath.Join(home, ".blendermcp", "config.yaml")
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "blendermcp.db"
	}
	return filepath.Join(home, ".blendermcp", "telemetry.db")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
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

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("BLENDER_HOST"); host != "" {
		c.Blender.Host = host
	}
	if port := os.Getenv("BLENDER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Blender.Port = p
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if v := os.Getenv("BLENDER_MCP_TELEMETRY"); v != "" {
		c.Telemetry.Enabled = v != "0" && v != "false" && v != "off"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Blender.Port < 1 || c.Blender.Port > 65535 {
		return fmt.Errorf("invalid blender port: %d", c.Blender.Port)
	}
	if c.Heal.MaxRepairs < 0 {
		return fmt.Errorf("heal max_repairs must be >= 0, got %d", c.Heal.MaxRepairs)
	}
	if _, err := time.ParseDuration(c.Blender.CommandTimeout); err != nil {
		return fmt.Errorf("invalid blender command_timeout: %w", err)
	}
	if c.Watch.Interval != "" {
		if _, err := time.ParseDuration(c.Watch.Interval); err != nil {
			return fmt.Errorf("invalid watch interval: %w", err)
		}
	}
	return nil
}

// GetDialTimeout returns the Blender dial timeout as a duration.
func (c *Config) GetDialTimeout() time.Duration {
	d, err := time.ParseDuration(c.Blender.DialTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetCommandTimeout returns the Blender command timeout as a duration.
func (c *Config) GetCommandTimeout() time.Duration {
	d, err := time.ParseDuration(c.Blender.CommandTimeout)
	if err != nil {
		return 180 * time.Second
	}
	return d
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetWatchInterval returns the watch poll interval as a duration.
func (c *Config) GetWatchInterval() time.Duration {
	d, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 2 * time.Second
	}
	return d
}
