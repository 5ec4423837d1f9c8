package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/acni-chat/testutil"
)

func TestMemoryKV(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	if _, found, _ := kv.Get(ctx, "k"); found {
		t.Error("Get() on an empty store should report not found")
	}
	if err := kv.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if value, found, _ := kv.Get(ctx, "k"); !found || value != "v" {
		t.Errorf("Get() = (%q, %v), want (v, true)", value, found)
	}
	if got := kv.Writes(); got != 1 {
		t.Errorf("Writes() = %d, want 1", got)
	}

	boom := errors.New("boom")
	kv.SetFailures(boom, boom)
	if _, _, err := kv.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want injected error", err)
	}
	if err := kv.Set(ctx, "k", "w"); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want injected error", err)
	}
	if got := kv.Writes(); got != 1 {
		t.Errorf("failed writes should not count, Writes() = %d", got)
	}
}

func TestFileKV(t *testing.T) {
	ctx := context.Background()
	dir := testutil.CreateTempDir(t)

	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}
	if kv.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", kv.Dir(), dir)
	}

	if _, found, err := kv.Get(ctx, StorageKey); err != nil || found {
		t.Errorf("Get() on an empty dir = (found %v, err %v)", found, err)
	}

	if err := kv.Set(ctx, StorageKey, "[1]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := kv.Set(ctx, StorageKey, "[2]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, found, err := kv.Get(ctx, StorageKey)
	if err != nil || !found || value != "[2]" {
		t.Errorf("Get() = (%q, %v, %v), want ([2], true, nil)", value, found, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "_conversations.json")); err != nil {
		t.Errorf("expected a sanitized file name: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want 1 (no leftover temp files)", len(entries))
	}
}

func TestFileKV_Fixture(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	testutil.CreateFileStoreFixture(t, dir)

	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}
	value, found, err := kv.Get(context.Background(), StorageKey)
	if err != nil || !found {
		t.Fatalf("Get() = (found %v, err %v)", found, err)
	}
	if value != testutil.SampleConversationsJSON {
		t.Error("Get() should return the fixture contents")
	}
}

func TestNewFileKV_EmptyDir(t *testing.T) {
	if _, err := NewFileKV("  "); err == nil {
		t.Error("NewFileKV() should reject an empty directory")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"@conversations", "_conversations"},
		{"plain-key_1.x", "plain-key_1.x"},
		{"a/b\\c", "a_b_c"},
		{"", "_"},
	}

	for _, tt := range tests {
		if got := sanitizeKey(tt.key); got != tt.want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestOpenBackend(t *testing.T) {
	dir := testutil.CreateTempDir(t)

	tests := []struct {
		name     string
		backend  string
		path     string
		wantName string
		wantErr  bool
	}{
		{name: "sqlite", backend: "sqlite", path: filepath.Join(dir, "db", "c.db"), wantName: "sqlite"},
		{name: "default is sqlite", backend: "", path: filepath.Join(dir, "d.db"), wantName: "sqlite"},
		{name: "file", backend: "file", path: filepath.Join(dir, "store"), wantName: "file"},
		{name: "memory", backend: "memory", wantName: "memory"},
		{name: "unknown", backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := OpenBackend(tt.backend, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer func() { _ = b.Close() }()

			if b.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", b.Name, tt.wantName)
			}
			ctx := context.Background()
			if err := b.KV.Set(ctx, StorageKey, "[]"); err != nil {
				t.Errorf("Set() error = %v", err)
			}
			if value, found, err := b.KV.Get(ctx, StorageKey); err != nil || !found || value != "[]" {
				t.Errorf("Get() = (%q, %v, %v)", value, found, err)
			}
		})
	}
}
