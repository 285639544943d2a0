// Package session provides the in-memory session-token store. It is
// created in main and passed to the handlers that need it, so nothing
// in the application reaches for process-wide mutable state.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/larp-nexus/app/internal/models"
)

// CookieName is the session cookie used by the HTTP layer.
const CookieName = "session_token"

type entry struct {
	userID    models.UserID
	expiresAt time.Time
}

// Store maps session tokens to user identities with a fixed TTL.
// Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]entry
}

// NewStore returns an empty store whose sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		sessions: make(map[string]entry),
	}
}

// Create issues a fresh token for userID.
func (s *Store) Create(userID models.UserID) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = entry{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return token
}

// Get resolves a token to its user identity. Expired tokens are
// removed on access.
func (s *Store) Get(token string) (models.UserID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[token]
	if !ok {
		return 0, false
	}
	if time.Now().After(e.expiresAt) {
		delete(s.sessions, token)
		return 0, false
	}
	return e.userID, true
}

// Delete revokes a token.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
