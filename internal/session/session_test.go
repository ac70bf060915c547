package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"resumelens/internal/credstore"
	"resumelens/internal/errors"
	"resumelens/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	kv, err := store.NewFileStore(t.TempDir(), errors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return NewManager(credstore.New(kv), errors.NewLogger(slog.LevelError))
}

func assertAppError(t *testing.T, err error, expectedType errors.ErrorType, expectedMessage string) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error, got none")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected *AppError, got %T: %v", err, err)
	}
	if appErr.Type != expectedType {
		t.Errorf("Error type = %q, want %q", appErr.Type, expectedType)
	}
	if appErr.Message != expectedMessage {
		t.Errorf("Error message = %q, want %q", appErr.Message, expectedMessage)
	}
}

func TestSignup(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Signup(ctx, "sid", "Ada", "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if user.Name != "Ada" || user.Email != "ada@example.com" || user.Password != "secret" {
		t.Errorf("Signup returned %+v", user)
	}

	// Signup logs the user in immediately
	current, ok := m.Current(ctx, "sid")
	if !ok || current.Email != "ada@example.com" {
		t.Errorf("Current after signup = %+v, %t", current, ok)
	}
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "empty name", userName: "", email: "a@b.c", password: "pw"},
		{name: "empty email", userName: "Ada", email: "", password: "pw"},
		{name: "empty password", userName: "Ada", email: "a@b.c", password: ""},
		{name: "whitespace only fields", userName: "  ", email: " ", password: "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			_, err := m.Signup(context.Background(), "sid", tt.userName, tt.email, tt.password)
			assertAppError(t, err, errors.ErrorTypeValidation, errors.MsgFillAllFields)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Signup(ctx, "sid-1", "Ada", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	_, err := m.Signup(ctx, "sid-2", "Other", "ada@example.com", "different")
	assertAppError(t, err, errors.ErrorTypeDuplicate, errors.MsgAccountExists)

	// The stored list must be unchanged
	users := m.creds.ListUsers()
	if len(users) != 1 {
		t.Errorf("Expected 1 stored user after duplicate signup, got %d", len(users))
	}
	if users[0].Password != "secret" {
		t.Error("Duplicate signup must not alter the existing record")
	}
}

func TestConcurrentSignupsAllPersist(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("sid-%d", i)
			email := fmt.Sprintf("user%d@example.com", i)
			_, errs[i] = m.Signup(ctx, sid, "User", email, "secret")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Signup %d failed: %v", i, err)
		}
	}
	if got := len(m.creds.ListUsers()); got != n {
		t.Errorf("Stored users = %d, want %d", got, n)
	}

	// Every acknowledged signup must still be able to log in
	for i := 0; i < n; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		if _, err := m.Login(ctx, "login-sid", email, "secret"); err != nil {
			t.Errorf("Login for %s failed after concurrent signup: %v", email, err)
		}
	}
}

func TestConcurrentSignupsSameEmail(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("sid-%d", i)
			_, errs[i] = m.Signup(ctx, sid, "Ada", "ada@example.com", "secret")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assertAppError(t, err, errors.ErrorTypeDuplicate, errors.MsgAccountExists)
	}
	if successes != 1 {
		t.Errorf("Same-email signups succeeded %d times, want exactly 1", successes)
	}
	if got := len(m.creds.ListUsers()); got != 1 {
		t.Errorf("Stored users = %d, want 1", got)
	}
}

func TestLogin(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Signup(ctx, "signup-sid", "Ada", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	user, err := m.Login(ctx, "login-sid", "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Name != "Ada" {
		t.Errorf("Login returned %+v", user)
	}

	current, ok := m.Current(ctx, "login-sid")
	if !ok || current.Email != "ada@example.com" {
		t.Errorf("Current after login = %+v, %t", current, ok)
	}
}

func TestLoginTrimsInput(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Signup(ctx, "sid", "Ada", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	if _, err := m.Login(ctx, "sid", "  ada@example.com  ", " secret "); err != nil {
		t.Errorf("Login with padded input failed: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Signup(ctx, "sid", "Ada", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	t.Run("empty fields fail validation", func(t *testing.T) {
		_, err := m.Login(ctx, "sid", "", "")
		assertAppError(t, err, errors.ErrorTypeValidation, errors.MsgFillAllFields)
	})

	// Wrong password and unknown email produce the identical message
	t.Run("wrong password", func(t *testing.T) {
		_, err := m.Login(ctx, "sid", "ada@example.com", "wrong")
		assertAppError(t, err, errors.ErrorTypeAuth, errors.MsgInvalidCredential)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := m.Login(ctx, "sid", "nobody@example.com", "secret")
		assertAppError(t, err, errors.ErrorTypeAuth, errors.MsgInvalidCredential)
	})

	t.Run("failed login leaves session anonymous", func(t *testing.T) {
		if _, ok := m.Current(ctx, "fresh-sid"); ok {
			t.Error("Fresh session should be anonymous")
		}
		_, _ = m.Login(ctx, "fresh-sid", "ada@example.com", "wrong")
		if _, ok := m.Current(ctx, "fresh-sid"); ok {
			t.Error("Failed login must not establish a session")
		}
	})
}

func TestLogout(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Signup(ctx, "sid", "Ada", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	m.Logout(ctx, "sid")
	if _, ok := m.Current(ctx, "sid"); ok {
		t.Error("Current after logout should be empty")
	}

	// Logout of an anonymous session succeeds silently
	m.Logout(ctx, "anonymous-sid")
}

func TestSessionsAreIndependent(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Signup(ctx, "sid-a", "Ada", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(ctx, "sid-b", "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	m.Logout(ctx, "sid-a")

	if _, ok := m.Current(ctx, "sid-a"); ok {
		t.Error("sid-a should be logged out")
	}
	if _, ok := m.Current(ctx, "sid-b"); !ok {
		t.Error("sid-b should remain logged in")
	}
}

func TestNewSessionID(t *testing.T) {
	a, err := NewSessionID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSessionID()
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 64 {
		t.Errorf("Session id length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("Consecutive session ids must differ")
	}
}
