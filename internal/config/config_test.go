package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/acni-chat/internal"
)

var envKeys = []string{
	"GEMINI_API_KEY",
	"ACNI_MODEL",
	"ACNI_LOG_LEVEL",
	"ACNI_STORAGE_BACKEND",
	"ACNI_STORAGE_PATH",
	"ACNI_WRITE_TIMEOUT",
	"ACNI_ASSISTANT_TIMEOUT",
}

// clearEnv unsets every variable Load reads and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Storage.Path != DefaultStoragePath(BackendSQLite) {
		t.Errorf("Path = %q, want %q", cfg.Storage.Path, DefaultStoragePath(BackendSQLite))
	}
	if cfg.Storage.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want %v", cfg.Storage.WriteTimeout, DefaultWriteTimeout)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey = %q, want empty", cfg.APIKey)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "acni.yaml")
	writeFile(t, path, `
api_key: from-file
model: gemini-from-file
assistant_timeout: 30s
storage:
  backend: file
  path: /tmp/acni-store
  write_timeout: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-file" || cfg.Model != "gemini-from-file" {
		t.Errorf("cfg = %+v, want values from the file", cfg)
	}
	if cfg.Storage.Backend != BackendFile || cfg.Storage.Path != "/tmp/acni-store" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Storage.WriteTimeout != 2*time.Second || cfg.AssistantTimeout != 30*time.Second {
		t.Errorf("timeouts = %v / %v, want 2s / 30s", cfg.Storage.WriteTimeout, cfg.AssistantTimeout)
	}

	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("ACNI_STORAGE_BACKEND", "MEMORY")
	t.Setenv("ACNI_WRITE_TIMEOUT", "750ms")

	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.APIKey)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Storage.WriteTimeout != 750*time.Millisecond {
		t.Errorf("WriteTimeout = %v, want 750ms", cfg.Storage.WriteTimeout)
	}
	if cfg.Model != "gemini-from-file" {
		t.Errorf("Model = %q, unset env vars should not override the file", cfg.Model)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	writeFile(t, ".env", "ACNI_MODEL=gemini-from-dotenv\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "gemini-from-dotenv" {
		t.Errorf("Model = %q, want gemini-from-dotenv", cfg.Model)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing config file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing.yaml")
			},
		},
		{
			name: "malformed config file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "bad.yaml")
				writeFile(t, path, "storage: [unclosed")
				return path
			},
		},
		{
			name: "bad duration",
			setup: func(t *testing.T) string {
				t.Setenv("ACNI_WRITE_TIMEOUT", "soon")
				return ""
			},
		},
		{
			name: "unknown backend",
			setup: func(t *testing.T) string {
				t.Setenv("ACNI_STORAGE_BACKEND", "redis")
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(tt.setup(t)); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoad_MalformedFileIsParseError(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "model: [unclosed")

	_, err := Load(path)
	var parseErr *internal.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Load() error = %v, want *internal.ParseError", err)
	}
	if parseErr.Source != "config" || parseErr.Key != path {
		t.Errorf("ParseError = %+v", parseErr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults with path", mutate: func(c *Config) { c.Storage.Path = "/tmp/x.db" }},
		{name: "memory needs no path", mutate: func(c *Config) { c.Storage.Backend = BackendMemory }},
		{name: "sqlite without path", mutate: func(c *Config) {}, wantErr: true},
		{name: "negative write timeout", mutate: func(c *Config) {
			c.Storage.Path = "/tmp/x.db"
			c.Storage.WriteTimeout = -time.Second
		}, wantErr: true},
		{name: "negative assistant timeout", mutate: func(c *Config) {
			c.Storage.Path = "/tmp/x.db"
			c.AssistantTimeout = -time.Second
		}, wantErr: true},
		{name: "empty model", mutate: func(c *Config) {
			c.Storage.Path = "/tmp/x.db"
			c.Model = " "
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultStoragePath(t *testing.T) {
	if got := DefaultStoragePath(BackendMemory); got != "" {
		t.Errorf("DefaultStoragePath(memory) = %q, want empty", got)
	}
	if got := filepath.Base(DefaultStoragePath(BackendSQLite)); got != "conversations.db" {
		t.Errorf("DefaultStoragePath(sqlite) base = %q, want conversations.db", got)
	}
	if got := filepath.Base(DefaultStoragePath(BackendFile)); got != "store" {
		t.Errorf("DefaultStoragePath(file) base = %q, want store", got)
	}
}
