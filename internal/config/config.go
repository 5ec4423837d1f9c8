package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iksnae/acni-chat/internal"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported storage backends
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

const (
	// DefaultModel is the generative model used when none is configured
	DefaultModel        = "gemini-2.5-flash"
	DefaultWriteTimeout = 5 * time.Second
	appDirName          = "acni"
)

// StorageConfig selects and configures the persistence backend
type StorageConfig struct {
	Backend      string        `yaml:"backend"`
	Path         string        `yaml:"path"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Config holds application settings
type Config struct {
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	AssistantTimeout time.Duration `yaml:"assistant_timeout"`
	LogLevel         string        `yaml:"log_level"`
	Storage          StorageConfig `yaml:"storage"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Model:    DefaultModel,
		LogLevel: "info",
		Storage: StorageConfig{
			Backend:      BackendSQLite,
			WriteTimeout: DefaultWriteTimeout,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file in the working directory and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath(cfg.Storage.Backend)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &internal.ParseError{Source: "config", Key: path, Err: err}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := os.LookupEnv("ACNI_MODEL"); ok && v != "" {
		c.Model = v
	}
	if v, ok := os.LookupEnv("ACNI_LOG_LEVEL"); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv("ACNI_STORAGE_BACKEND"); ok && v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv("ACNI_STORAGE_PATH"); ok && v != "" {
		c.Storage.Path = v
	}

	var err error
	if c.Storage.WriteTimeout, err = envDuration("ACNI_WRITE_TIMEOUT", c.Storage.WriteTimeout); err != nil {
		return err
	}
	if c.AssistantTimeout, err = envDuration("ACNI_ASSISTANT_TIMEOUT", c.AssistantTimeout); err != nil {
		return err
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend: %s (supported: sqlite, file, memory)", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("storage path is required for the %s backend", c.Storage.Backend)
	}
	if c.Storage.WriteTimeout < 0 {
		return errors.New("storage write timeout must not be negative")
	}
	if c.AssistantTimeout < 0 {
		return errors.New("assistant timeout must not be negative")
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	return nil
}

// DefaultStoragePath returns where a backend keeps its data by default
func DefaultStoragePath(backend string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	switch backend {
	case BackendFile:
		return filepath.Join(base, appDirName, "store")
	case BackendMemory:
		return ""
	default:
		return filepath.Join(base, appDirName, "conversations.db")
	}
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
