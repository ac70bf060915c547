// Package credstore is the credential layer over the blob store: the
// registered-user list under the "users" key and one current-session
// pointer per session token under "currentUser/<token>".
//
// Passwords are stored and compared as plain text. That is the contract of
// the system this front end serves; this layer performs no validation,
// hashing, or encryption.
package credstore

import (
	"encoding/json"

	"resumelens/internal/store"
)

const (
	usersKey       = "users"
	currentUserKey = "currentUser"
)

// User is a registered account. Email is the unique key, case-sensitive.
type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Store persists users and session pointers.
type Store struct {
	kv store.Store
}

// New returns a credential store over the given blob store.
func New(kv store.Store) *Store {
	return &Store{kv: kv}
}

// ListUsers returns the persisted user list. Missing or corrupt content
// yields an empty list, never an error.
func (s *Store) ListUsers() []User {
	data, ok := s.kv.Get(usersKey)
	if !ok {
		return []User{}
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return []User{}
	}
	if users == nil {
		users = []User{}
	}
	return users
}

// SaveUsers overwrites the persisted user list in one write.
func (s *Store) SaveUsers(users []User) error {
	data, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return s.kv.Put(usersKey, data)
}

// GetCurrentUser returns the session pointer for the given session token.
// The stored record is returned verbatim; it is never re-validated against
// the user list after login.
func (s *Store) GetCurrentUser(sessionID string) (User, bool) {
	data, ok := s.kv.Get(currentUserKey + "/" + sessionID)
	if !ok {
		return User{}, false
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, false
	}
	return user, true
}

// SetCurrentUser overwrites the session pointer with a copy of user.
func (s *Store) SetCurrentUser(sessionID string, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.kv.Put(currentUserKey+"/"+sessionID, data)
}

// ClearCurrentUser removes the session pointer. Clearing an absent pointer
// succeeds.
func (s *Store) ClearCurrentUser(sessionID string) error {
	return s.kv.Delete(currentUserKey + "/" + sessionID)
}
