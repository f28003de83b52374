// Package config loads and validates the service configuration from
// YAML, with ${ENV} expansion and sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anthonylubrino/globalmcp/internal/domain/models"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig              `yaml:"server"`
	Compression CompressionConfig         `yaml:"compression"`
	Routing     RoutingConfig             `yaml:"routing"`
	Endpoints   map[string]EndpointConfig `yaml:"endpoints"`
	Logging     LoggingConfig             `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// CompressionConfig contains default parameters for the KV compression
// pipeline, used when a request does not override them.
type CompressionConfig struct {
	SinkTokens   int     `yaml:"sink_tokens"`
	KeepRatio    float64 `yaml:"keep_ratio"`
	OutputLength int     `yaml:"output_length"`
	KernelWidth  int     `yaml:"kernel_width"`
}

// RoutingConfig contains routing and transport settings.
type RoutingConfig struct {
	DispatchTimeout time.Duration       `yaml:"dispatch_timeout"`
	MaxTokens       int                 `yaml:"max_tokens"`
	OllamaBaseURL   string              `yaml:"ollama_base_url"`
	Patterns        map[string][]string `yaml:"patterns"`
}

// EndpointConfig is the YAML shape of one tier's model endpoint.
type EndpointConfig struct {
	URI       string `yaml:"uri"`
	Transport string `yaml:"transport"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns a configuration equivalent to loading an empty file:
// all defaults applied, built-in Ollama endpoints for every tier.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Validate checks if the configuration is valid, including every
// endpoint descriptor against the closed transport enum.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Compression.SinkTokens < 0 {
		return fmt.Errorf("compression sink_tokens must be >= 0, got %d", c.Compression.SinkTokens)
	}
	if c.Compression.KeepRatio <= 0 || c.Compression.KeepRatio > 1 {
		return fmt.Errorf("compression keep_ratio must be in (0, 1], got %g", c.Compression.KeepRatio)
	}
	if c.Compression.OutputLength < 1 {
		return fmt.Errorf("compression output_length must be >= 1, got %d", c.Compression.OutputLength)
	}
	if c.Compression.KernelWidth < 1 {
		return fmt.Errorf("compression kernel_width must be >= 1, got %d", c.Compression.KernelWidth)
	}

	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one model endpoint must be configured")
	}
	descriptors, err := c.Descriptors()
	if err != nil {
		return err
	}
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("endpoint %s: %w", d.Tier, err)
		}
	}

	return nil
}

// Descriptors converts the configured endpoint map into typed
// descriptors ready for registration.
func (c *Config) Descriptors() ([]models.ModelEndpointDescriptor, error) {
	descriptors := make([]models.ModelEndpointDescriptor, 0, len(c.Endpoints))
	for tier, endpoint := range c.Endpoints {
		d := models.ModelEndpointDescriptor{
			Tier:      models.Tier(tier),
			URI:       endpoint.URI,
			Transport: models.Transport(endpoint.Transport),
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", tier, err)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// setDefaults sets default values for optional fields.
func (c *Config) setDefaults() {
	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}

	// Compression defaults
	if c.Compression.SinkTokens == 0 {
		c.Compression.SinkTokens = 10
	}
	if c.Compression.KeepRatio == 0 {
		c.Compression.KeepRatio = 0.7
	}
	if c.Compression.OutputLength == 0 {
		c.Compression.OutputLength = 256
	}
	if c.Compression.KernelWidth == 0 {
		c.Compression.KernelWidth = 7
	}

	// Routing defaults
	if c.Routing.DispatchTimeout == 0 {
		c.Routing.DispatchTimeout = 30 * time.Second
	}
	if c.Routing.MaxTokens == 0 {
		c.Routing.MaxTokens = 512
	}
	if c.Routing.OllamaBaseURL == "" {
		c.Routing.OllamaBaseURL = "http://localhost:11434"
	}

	// Endpoint defaults: one local Ollama model per tier.
	if len(c.Endpoints) == 0 {
		c.Endpoints = map[string]EndpointConfig{
			string(models.TierSimple):   {URI: "ollama://phi3", Transport: string(models.TransportLocalInference)},
			string(models.TierModerate): {URI: "ollama://mistral", Transport: string(models.TransportLocalInference)},
			string(models.TierComplex):  {URI: "ollama://llama3", Transport: string(models.TransportLocalInference)},
		}
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// expandEnvVars replaces ${VAR} and $VAR with environment variable values.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		return os.Getenv(key)
	})
}
