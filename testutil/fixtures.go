package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// SampleConversationsJSON is a stored collection with two conversations,
// most recent first
const SampleConversationsJSON = `[
  {
    "id": "conv-2",
    "title": "Weather today",
    "messages": [
      {"id": "m3", "role": "user", "content": "Weather today?", "timestamp": "2024-05-02T10:00:00Z"},
      {"id": "m4", "role": "assistant", "content": "Sunny.", "timestamp": "2024-05-02T10:00:02Z"}
    ],
    "createdAt": "2024-05-02T09:59:00Z",
    "updatedAt": "2024-05-02T10:00:02Z"
  },
  {
    "id": "conv-1",
    "title": "Hello",
    "messages": [
      {"id": "m1", "role": "user", "content": "Hello", "timestamp": "2024-05-01T08:00:00Z"},
      {"id": "m2", "role": "assistant", "content": "Hi! How can I help?", "timestamp": "2024-05-01T08:00:01Z"}
    ],
    "createdAt": "2024-05-01T07:59:00Z",
    "updatedAt": "2024-05-01T08:00:01Z"
  }
]`

// CreateSQLiteFixture creates a SQLite database file holding the sample collection
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	InsertKV(t, db, ConversationsKey, SampleConversationsJSON)
}

// CreateFileStoreFixture writes the sample collection into a file-backed store directory
func CreateFileStoreFixture(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create store directory: %v", err)
	}
	// FileKV maps "@conversations" to "_conversations.json"
	path := filepath.Join(dir, "_conversations.json")
	if err := os.WriteFile(path, []byte(SampleConversationsJSON), 0644); err != nil {
		t.Fatalf("Failed to write store file: %v", err)
	}
}
