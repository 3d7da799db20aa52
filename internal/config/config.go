package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/constxd/packnback/internal/crypto"
	"github.com/constxd/packnback/internal/validation"
)

// Environment variables that override file settings.
const (
	EnvKeysDirectory   = "PACKNBACK_KEYS_DIR"
	EnvKeyName         = "PACKNBACK_KEY_NAME"
	EnvLogLevel        = "PACKNBACK_LOG_LEVEL"
	EnvLogFormat       = "PACKNBACK_LOG_FORMAT"
	EnvMetricsAddress  = "PACKNBACK_METRICS_ADDR"
	EnvTracingEndpoint = "PACKNBACK_TRACING_ENDPOINT"
	EnvRateLimit       = "PACKNBACK_RATE_LIMIT"
)

// Config holds packnback configuration
type Config struct {
	KeysDirectory        string                `yaml:"keys_directory"`
	KeyName              string                `yaml:"key_name"`
	LogLevel             string                `yaml:"log_level"`
	LogFormat            string                `yaml:"log_format"`
	MetricsAddress       string                `yaml:"metrics_address"`
	TracingEndpoint      string                `yaml:"tracing_endpoint"`
	RateLimitBytesPerSec int64                 `yaml:"rate_limit_bytes_per_sec"`
	Keystore             crypto.KeystoreParams `yaml:"keystore"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		KeysDirectory: crypto.GetDefaultKeystorePath(),
		KeyName:       "identity",
		LogLevel:      "warn",
		LogFormat:     "console",
		Keystore:      crypto.DefaultKeystoreParams(),
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/packnback/config.yaml, or the
// same under ~/.config.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "packnback", "config.yaml")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "packnback", "config.yaml")
}

// LoadConfig layers the YAML file at configPath (if any) and then
// PACKNBACK_* environment variables over the defaults, and validates the
// result. An empty configPath skips the file.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		EnvKeysDirectory:   &c.KeysDirectory,
		EnvKeyName:         &c.KeyName,
		EnvLogLevel:        &c.LogLevel,
		EnvLogFormat:       &c.LogFormat,
		EnvMetricsAddress:  &c.MetricsAddress,
		EnvTracingEndpoint: &c.TracingEndpoint,
	}
	for env, dst := range strs {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv(EnvRateLimit); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRateLimit, err)
		}
		c.RateLimitBytesPerSec = n
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validation.ValidateStringNonEmpty(c.KeysDirectory); err != nil {
		return fmt.Errorf("keys_directory: %w", err)
	}
	if err := validation.ValidateKeyName(c.KeyName); err != nil {
		return fmt.Errorf("key_name: %w", err)
	}
	if err := validation.ValidateOneOf(c.LogLevel, "trace", "debug", "info", "warn", "error", "disabled"); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if err := validation.ValidateOneOf(c.LogFormat, "json", "console"); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	if c.MetricsAddress != "" {
		if err := validation.ValidateAddr(c.MetricsAddress); err != nil {
			return fmt.Errorf("metrics_address: %w", err)
		}
	}
	if c.RateLimitBytesPerSec < 0 {
		return fmt.Errorf("rate_limit_bytes_per_sec: %w: %d", validation.ErrOutOfRange, c.RateLimitBytesPerSec)
	}
	if err := validation.ValidateRangeInt(int(c.Keystore.Time), 1, 100); err != nil {
		return fmt.Errorf("keystore.time: %w", err)
	}
	if err := validation.ValidateRangeInt(int(c.Keystore.Threads), 1, 255); err != nil {
		return fmt.Errorf("keystore.threads: %w", err)
	}
	// Argon2 needs at least 8 KiB per lane.
	if err := validation.ValidateRangeInt(int(c.Keystore.MemoryKiB), 8*int(c.Keystore.Threads), 4<<20); err != nil {
		return fmt.Errorf("keystore.memory_kib: %w", err)
	}
	return nil
}

// KeyPath is the secret key file for the configured key name.
func (c *Config) KeyPath() string {
	return filepath.Join(c.KeysDirectory, c.KeyName+".key")
}

// PublicKeyPath is the public key file for the configured key name.
func (c *Config) PublicKeyPath() string {
	return filepath.Join(c.KeysDirectory, c.KeyName+".pub")
}
