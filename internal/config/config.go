// Package config loads persona-x settings from YAML with environment
// overrides.
//
// Precedence, lowest first: Default, the YAML file, PERSONAX_* environment
// variables, then command-line flags applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PERSONAX_"

// LLMConfig configures the completion client.
type LLMConfig struct {
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	MaxAttempts       int     `yaml:"max_attempts"`
}

// LogConfig configures logging.Init.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	PersonaDir string                 `yaml:"persona_dir"`
	Database   string                 `yaml:"database"`
	RecordDir  string                 `yaml:"record_dir,omitempty"`
	LLM        LLMConfig              `yaml:"llm"`
	Rounds     map[decision.Stage]int `yaml:"rounds,omitempty"`
	Log        LogConfig              `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		PersonaDir: "personas",
		Database:   "persona-x.db",
		LLM: LLMConfig{
			Model:             "claude-sonnet-4-5",
			BaseURL:           llm.DefaultBaseURL,
			APIKeyEnv:         "ANTHROPIC_API_KEY",
			MaxTokens:         1024,
			Temperature:       0.7,
			RequestsPerMinute: 50,
			MaxAttempts:       3,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over Default and applies environment overrides. An empty
// path, or a path that does not exist, yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := decode(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("PERSONA_DIR", &c.PersonaDir)
	str("DATABASE", &c.Database)
	str("RECORD_DIR", &c.RecordDir)
	str("MODEL", &c.LLM.Model)
	str("BASE_URL", &c.LLM.BaseURL)
	str("API_KEY_ENV", &c.LLM.APIKeyEnv)
	num("MAX_TOKENS", &c.LLM.MaxTokens)
	num("REQUESTS_PER_MINUTE", &c.LLM.RequestsPerMinute)
	num("MAX_ATTEMPTS", &c.LLM.MaxAttempts)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	if v, ok := lookup(EnvPrefix + "TEMPERATURE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTEMPERATURE: %w", EnvPrefix, err))
		} else {
			c.LLM.Temperature = f
		}
	}
	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.PersonaDir == "" {
		errs = append(errs, errors.New("persona_dir is required"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errs = append(errs, fmt.Errorf("llm.temperature must be within [0,1], got %g", c.LLM.Temperature))
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("llm.max_attempts must be at least 1, got %d", c.LLM.MaxAttempts))
	}
	if c.LLM.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("llm.requests_per_minute must not be negative, got %d", c.LLM.RequestsPerMinute))
	}
	for stage, n := range c.Rounds {
		if stage.Index() < 0 {
			errs = append(errs, fmt.Errorf("rounds: unknown stage %q", stage))
		} else if n < 1 {
			errs = append(errs, fmt.Errorf("rounds.%s must be at least 1, got %d", stage, n))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// APIKey reads the key from the configured environment variable.
func (c Config) APIKey() (string, error) {
	key := os.Getenv(c.LLM.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.LLM.APIKeyEnv)
	}
	return key, nil
}
