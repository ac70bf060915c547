// Package session implements the session manager: login, signup, logout and
// the current-user query, built on the credential store. It owns no UI.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"

	"resumelens/internal/credstore"
	"resumelens/internal/errors"
)

// Manager exposes the auth operations. The session state machine has two
// states, anonymous and authenticated; login and signup failures are
// self-loops with a reported error, never a transition.
type Manager struct {
	// mu serializes access to the shared user list. The store only guards
	// individual reads and writes, so the list-scan-save sequence in Signup
	// must hold this lock or concurrent signups can drop records.
	mu     sync.Mutex
	creds  *credstore.Store
	logger *errors.Logger
}

// NewManager creates a session manager over the credential store.
func NewManager(creds *credstore.Store, logger *errors.Logger) *Manager {
	return &Manager{creds: creds, logger: logger}
}

// Login authenticates email/password against the stored user list. Both
// inputs are trimmed; empty inputs fail validation before any lookup. The
// error message never distinguishes an unknown email from a wrong password.
func (m *Manager) Login(ctx context.Context, sessionID, email, password string) (credstore.User, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if email == "" || password == "" {
		return credstore.User{}, errors.NewValidationError(
			errors.ErrCodeMissingFields, errors.MsgFillAllFields, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.creds.ListUsers() {
		if u.Email == email && u.Password == password {
			if err := m.creds.SetCurrentUser(sessionID, u); err != nil {
				return credstore.User{}, err
			}
			m.logger.Debug("Login succeeded", "email", email)
			return u, nil
		}
	}

	return credstore.User{}, errors.NewAuthError(
		errors.ErrCodeBadCredentials, errors.MsgInvalidCredential, nil)
}

// Signup registers a new account and immediately establishes it as the
// current session. Duplicate emails (exact, case-sensitive) are rejected
// without altering the stored list.
func (m *Manager) Signup(ctx context.Context, sessionID, name, email, password string) (credstore.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if name == "" || email == "" || password == "" {
		return credstore.User{}, errors.NewValidationError(
			errors.ErrCodeMissingFields, errors.MsgFillAllFields, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users := m.creds.ListUsers()
	for _, u := range users {
		if u.Email == email {
			return credstore.User{}, errors.NewDuplicateError(
				errors.ErrCodeDuplicateEmail, errors.MsgAccountExists, nil)
		}
	}

	newUser := credstore.User{Name: name, Email: email, Password: password}
	users = append(users, newUser)
	if err := m.creds.SaveUsers(users); err != nil {
		return credstore.User{}, err
	}
	if err := m.creds.SetCurrentUser(sessionID, newUser); err != nil {
		return credstore.User{}, err
	}

	m.logger.Debug("Signup succeeded", "email", email)
	return newUser, nil
}

// Logout clears the session pointer unconditionally. It always succeeds,
// authenticated or not.
func (m *Manager) Logout(ctx context.Context, sessionID string) {
	_ = m.creds.ClearCurrentUser(sessionID)
}

// Current returns the session's user, if any. No side effects.
func (m *Manager) Current(ctx context.Context, sessionID string) (credstore.User, bool) {
	return m.creds.GetCurrentUser(sessionID)
}

// NewSessionID issues an opaque session token.
func NewSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
