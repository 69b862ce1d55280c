package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. OLLAMACHAT_ADDR.
const EnvPrefix = "OLLAMACHAT_"

// Load reads a configuration file based on its extension on top of Default.
// Keys absent from the file keep their default value. A leading '~' in path
// is expanded to the user's home directory.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// FromEnv overlays OLLAMACHAT_* environment variables onto cfg.
func FromEnv(cfg Config) (Config, error) {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var firstErr error
	fail := func(key string, err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
	}
	dur := func(key string, dst *Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				fail(key, err)
			}
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = SplitCSV(v)
		}
	}

	str("ADDR", &cfg.Addr)
	str("OLLAMA_URL", &cfg.OllamaURL)
	str("DEFAULT_MODEL", &cfg.DefaultModel)
	str("SYSTEM_PROMPT", &cfg.SystemPrompt)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	if v, ok := lookup(EnvPrefix + "TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			fail("TEMPERATURE", err)
		} else {
			cfg.Temperature = f
		}
	}
	if v, ok := lookup(EnvPrefix + "MAX_TOKENS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fail("MAX_TOKENS", err)
		} else {
			cfg.MaxTokens = n
		}
	}
	if v, ok := lookup(EnvPrefix + "MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			fail("MAX_BODY_BYTES", err)
		} else {
			cfg.MaxBodyBytes = n
		}
	}
	if v, ok := lookup(EnvPrefix + "MAX_INFLIGHT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			fail("MAX_INFLIGHT", err)
		} else {
			cfg.MaxInflight = n
		}
	}
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	dur("CONNECT_TIMEOUT", &cfg.ConnectTimeout)
	dur("READ_TIMEOUT", &cfg.ReadTimeout)
	if v, ok := lookup(EnvPrefix + "CORS_ENABLED"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			fail("CORS_ENABLED", err)
		} else {
			cfg.CORSEnabled = b
		}
	}
	list("CORS_ALLOWED_ORIGINS", &cfg.CORSAllowedOrigins)
	list("CORS_ALLOWED_METHODS", &cfg.CORSAllowedMethods)
	list("CORS_ALLOWED_HEADERS", &cfg.CORSAllowedHeaders)
	return cfg, firstErr
}

// SplitCSV splits a comma-separated list, trimming blanks.
func SplitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
