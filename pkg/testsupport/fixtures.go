package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-blog-store/internal/storage"
)

// PostFixture is a post as described in testdata/posts.json.
type PostFixture struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Author     string `json:"author"`
	CategoryID int64  `json:"category_id"`
}

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// LoadPostFixtures reads a JSON array of posts.
func LoadPostFixtures(t *testing.T, path string) []PostFixture {
	t.Helper()

	var posts []PostFixture
	LoadFixtureJSON(t, path, &posts)
	if len(posts) == 0 {
		t.Fatalf("fixture %s contains no posts", path)
	}
	return posts
}

// WriteGolden writes test output to a golden file.
// This should typically only be called when updating golden files.
func WriteGolden(t *testing.T, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// CompareGoldenJSON marshals actual as indented JSON and compares it with
// the golden file at path. A missing golden file is created from actual.
func CompareGoldenJSON(t *testing.T, path string, actual any) {
	t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal JSON for golden file %s: %v", path, err)
	}
	data = append(data, '\n')

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("Golden file %s does not exist, creating it", path)
			WriteGolden(t, path, data)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	if string(data) != string(expected) {
		t.Errorf("output mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, expected, data)
	}
}

// SQLiteBackend opens a file backed SQLite backend in a per-test directory
// and closes it when the test ends.
func SQLiteBackend(t *testing.T) *storage.SQLite {
	t.Helper()

	backend := storage.NewSQLite(storage.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "blog.db"),
	})
	t.Cleanup(func() {
		if err := backend.Close(); err != nil {
			t.Errorf("failed to close sqlite backend: %v", err)
		}
	})
	return backend
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}

// OpenedSQLiteBackend is SQLiteBackend with Open already called.
func OpenedSQLiteBackend(t *testing.T) *storage.SQLite {
	t.Helper()

	backend := SQLiteBackend(t)
	if err := backend.Open(context.Background()); err != nil {
		t.Fatalf("failed to open sqlite backend: %v", err)
	}
	return backend
}

// EnvPostgresDSN names the variable that points tests at a live Postgres
// server. Tests that need one skip when it is unset.
const EnvPostgresDSN = "BLOG_TEST_PG_DSN"

// PostgresBackend returns an unopened Postgres backend for the server in
// EnvPostgresDSN, or skips the test. The pool is kept small since every test
// opens its own.
func PostgresBackend(t *testing.T) *storage.Postgres {
	t.Helper()

	dsn := os.Getenv(EnvPostgresDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvPostgresDSN)
	}

	cfg := storage.DefaultPostgresConfig(dsn)
	cfg.MinConns, cfg.MaxConns = 1, 4
	backend := storage.NewPostgres(cfg)
	t.Cleanup(func() {
		if err := backend.Close(); err != nil {
			t.Errorf("failed to close postgres backend: %v", err)
		}
	})
	return backend
}

// BackendCase builds one backend flavour for tests that must behave the
// same on every backend.
type BackendCase struct {
	Name string
	New  func(t *testing.T) storage.Backend
}

// Backends lists SQLite and Postgres. The Postgres case skips itself unless
// EnvPostgresDSN is set.
func Backends() []BackendCase {
	return []BackendCase{
		{Name: storage.BackendSQLite, New: func(t *testing.T) storage.Backend { return SQLiteBackend(t) }},
		{Name: storage.BackendPostgres, New: func(t *testing.T) storage.Backend { return PostgresBackend(t) }},
	}
}
