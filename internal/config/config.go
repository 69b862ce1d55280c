package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a time.Duration that decodes from strings such as "60s" in
// every supported file format.
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// Config holds runtime parameters for the chat service.
type Config struct {
	Addr         string  `json:"addr" yaml:"addr" toml:"addr"`
	OllamaURL    string  `json:"ollama_url" yaml:"ollama_url" toml:"ollama_url"`
	DefaultModel string  `json:"default_model" yaml:"default_model" toml:"default_model"`
	SystemPrompt string  `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	Temperature  float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	MaxTokens    int     `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`

	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	ConnectTimeout Duration `json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	ReadTimeout    Duration `json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`

	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	MaxInflight  int   `json:"max_inflight" yaml:"max_inflight" toml:"max_inflight"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	CORSEnabled        bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods" yaml:"cors_allowed_methods" toml:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers" yaml:"cors_allowed_headers" toml:"cors_allowed_headers"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		Addr:           ":8000",
		OllamaURL:      "http://localhost:11434",
		DefaultModel:   "llama3.2:1b",
		SystemPrompt:   "You are a helpful AI assistant. Provide clear and concise responses.",
		Temperature:    0.7,
		MaxTokens:      2000,
		RequestTimeout: Duration(60 * time.Second),
		ConnectTimeout: Duration(10 * time.Second),
		ReadTimeout:    Duration(60 * time.Second),
		MaxBodyBytes:   1 << 20,
		MaxInflight:    8,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.OllamaURL) == "":
		return fmt.Errorf("ollama_url must not be empty")
	case strings.TrimSpace(c.DefaultModel) == "":
		return fmt.Errorf("default_model must not be empty")
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("temperature %.2f out of range [0,2]", c.Temperature)
	case c.MaxTokens <= 0:
		return fmt.Errorf("max_tokens must be positive")
	case c.RequestTimeout <= 0 || c.ConnectTimeout <= 0 || c.ReadTimeout <= 0:
		return fmt.Errorf("timeouts must be positive")
	case c.MaxBodyBytes < 0 || c.MaxInflight < 0:
		return fmt.Errorf("max_body_bytes and max_inflight must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log_format: %s", c.LogFormat)
	}
	return nil
}
