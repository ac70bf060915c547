package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumelens/internal/errors"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), errors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return s
}

func TestFileStorePutGet(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.Get("users"); ok {
		t.Error("Get on empty store should report absent")
	}

	if err := s.Put("users", []byte(`[{"email":"a@b.c"}]`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, ok := s.Get("users")
	if !ok {
		t.Fatal("Get after Put should succeed")
	}
	if string(data) != `[{"email":"a@b.c"}]` {
		t.Errorf("Get returned %q", data)
	}
}

func TestFileStoreOverwrite(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("k", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put("k", []byte("two")); err != nil {
		t.Fatal(err)
	}

	data, ok := s.Get("k")
	if !ok || string(data) != "two" {
		t.Errorf("Get after overwrite = %q, %t; want two, true", data, ok)
	}
}

func TestFileStoreDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := s.Get("k"); ok {
		t.Error("Get after Delete should report absent")
	}

	// Deleting an absent key succeeds
	if err := s.Delete("never-existed"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestFileStoreNestedKeys(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("currentUser/abc123", []byte(`{"email":"a@b.c"}`)); err != nil {
		t.Fatalf("Put nested key failed: %v", err)
	}

	data, ok := s.Get("currentUser/abc123")
	if !ok || string(data) != `{"email":"a@b.c"}` {
		t.Errorf("Get nested key = %q, %t", data, ok)
	}

	// The slash becomes a directory on disk
	path := filepath.Join(s.Dir(), "currentUser", "abc123.json")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected backing file at %s: %v", path, err)
	}
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	s := newTestStore(t)

	// Hostile key bytes must not escape the data directory
	if err := s.Put("..\\evil key!", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, ok := s.Get("..\\evil key!")
	if !ok || string(data) != "v" {
		t.Errorf("Get sanitized key = %q, %t", data, ok)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry in data dir, got %d", len(entries))
	}
}

func TestFileStoreRejectsDotOnlyKeyElements(t *testing.T) {
	s := newTestStore(t)

	// A "../" element would otherwise resolve above the data directory
	if err := s.Put("../escape", []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if data, ok := s.Get("../escape"); !ok || string(data) != "v" {
		t.Errorf("Get = %q, %t", data, ok)
	}

	parent := filepath.Dir(s.Dir())
	if _, err := os.Stat(filepath.Join(parent, "escape.json")); !os.IsNotExist(err) {
		t.Error("Dot-only key element escaped the data directory")
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "__", "escape.json")); err != nil {
		t.Errorf("Expected sanitized path inside the data directory: %v", err)
	}
}

func TestSanitizeDotElements(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: ".", expected: "_"},
		{input: "..", expected: "__"},
		{input: "...", expected: "___"},
		{input: ".hidden", expected: ".hidden"},
		{input: "a.b", expected: "a.b"},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		if got := sanitize(tt.input); got != tt.expected {
			t.Errorf("sanitize(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFileStoreInvalidate(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("k", []byte("cached")); err != nil {
		t.Fatal(err)
	}

	// Change the backing file behind the cache
	path := filepath.Join(s.Dir(), "k.json")
	if err := os.WriteFile(path, []byte("external"), 0600); err != nil {
		t.Fatal(err)
	}

	// Cached value still wins until invalidation
	if data, _ := s.Get("k"); string(data) != "cached" {
		t.Errorf("Get before Invalidate = %q, want cached", data)
	}

	s.Invalidate("k")
	if data, _ := s.Get("k"); string(data) != "external" {
		t.Errorf("Get after Invalidate = %q, want external", data)
	}

	// InvalidateAll drops everything
	if err := s.Put("other", []byte("x")); err != nil {
		t.Fatal(err)
	}
	s.InvalidateAll()
	if data, ok := s.Get("other"); !ok || string(data) != "x" {
		t.Errorf("Get after InvalidateAll = %q, %t", data, ok)
	}
}
