package credstore

import (
	"log/slog"
	"testing"

	"resumelens/internal/errors"
	"resumelens/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := store.NewFileStore(t.TempDir(), errors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return New(kv)
}

func TestListUsersEmpty(t *testing.T) {
	s := newTestStore(t)

	users := s.ListUsers()
	if users == nil {
		t.Fatal("ListUsers must never return nil")
	}
	if len(users) != 0 {
		t.Errorf("Expected empty list, got %d users", len(users))
	}
}

func TestSaveAndListUsers(t *testing.T) {
	s := newTestStore(t)

	saved := []User{
		{Name: "Ada", Email: "ada@example.com", Password: "secret"},
		{Name: "Bob", Email: "bob@example.com", Password: "hunter2"},
	}
	if err := s.SaveUsers(saved); err != nil {
		t.Fatalf("SaveUsers failed: %v", err)
	}

	users := s.ListUsers()
	if len(users) != 2 {
		t.Fatalf("Expected 2 users, got %d", len(users))
	}
	if users[0] != saved[0] || users[1] != saved[1] {
		t.Errorf("Round trip mismatch: %+v", users)
	}
}

func TestListUsersCorruptBlob(t *testing.T) {
	kv, err := store.NewFileStore(t.TempDir(), errors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Put("users", []byte("not json")); err != nil {
		t.Fatal(err)
	}

	s := New(kv)
	users := s.ListUsers()
	if users == nil || len(users) != 0 {
		t.Errorf("Corrupt blob should yield empty list, got %v", users)
	}
}

func TestCurrentUserPerSession(t *testing.T) {
	s := newTestStore(t)

	ada := User{Name: "Ada", Email: "ada@example.com", Password: "secret"}
	bob := User{Name: "Bob", Email: "bob@example.com", Password: "hunter2"}

	if err := s.SetCurrentUser("session-a", ada); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCurrentUser("session-b", bob); err != nil {
		t.Fatal(err)
	}

	got, ok := s.GetCurrentUser("session-a")
	if !ok || got != ada {
		t.Errorf("session-a user = %+v, %t; want ada", got, ok)
	}
	got, ok = s.GetCurrentUser("session-b")
	if !ok || got != bob {
		t.Errorf("session-b user = %+v, %t; want bob", got, ok)
	}

	if _, ok := s.GetCurrentUser("session-c"); ok {
		t.Error("Unknown session should have no current user")
	}
}

func TestClearCurrentUser(t *testing.T) {
	s := newTestStore(t)

	ada := User{Name: "Ada", Email: "ada@example.com", Password: "secret"}
	if err := s.SetCurrentUser("sid", ada); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearCurrentUser("sid"); err != nil {
		t.Fatalf("ClearCurrentUser failed: %v", err)
	}
	if _, ok := s.GetCurrentUser("sid"); ok {
		t.Error("Current user should be gone after clear")
	}

	// Clearing an absent pointer succeeds
	if err := s.ClearCurrentUser("never-set"); err != nil {
		t.Errorf("ClearCurrentUser on absent session failed: %v", err)
	}
}
