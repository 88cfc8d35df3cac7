// Package auth holds bearer token storage for the admin client.
package auth

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fivetwenty-io/storeadmin/pkg/admin"
)

// TokenStore is an in-memory, concurrency-safe admin.TokenStore.
type TokenStore struct {
	mu    sync.RWMutex
	token *admin.Token
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the current token, or nil.
func (s *TokenStore) Get() *admin.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the current token. A token with an empty access token clears
// the store.
func (s *TokenStore) Set(token *admin.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil || token.AccessToken == "" {
		s.token = nil

		return
	}

	s.token = token
}

// Clear removes the current token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}

// Persister saves token changes outside the process, typically to the CLI
// config file.
type Persister interface {
	SaveToken(token string, expiresAt time.Time) error
	ClearToken() error
}

// PersistentStore is a TokenStore that writes every change through to a
// Persister. Persist failures never fail the caller; they are reported to the
// logger, or to stderr when no logger is set.
type PersistentStore struct {
	*TokenStore

	persister Persister
	logger    admin.Logger
}

// NewPersistentStore creates a store seeded with initial (which may be nil).
func NewPersistentStore(persister Persister, initial *admin.Token, logger admin.Logger) *PersistentStore {
	store := &PersistentStore{
		TokenStore: NewTokenStore(),
		persister:  persister,
		logger:     logger,
	}
	store.TokenStore.Set(initial)

	return store
}

// Set stores the token and persists it.
func (s *PersistentStore) Set(token *admin.Token) {
	s.TokenStore.Set(token)

	if token == nil || token.AccessToken == "" {
		s.warn(s.persister.ClearToken())

		return
	}

	s.warn(s.persister.SaveToken(token.AccessToken, token.ExpiresAt))
}

// Clear removes the token and its persisted copy.
func (s *PersistentStore) Clear() {
	s.TokenStore.Clear()
	s.warn(s.persister.ClearToken())
}

func (s *PersistentStore) warn(err error) {
	if err == nil {
		return
	}

	if s.logger != nil {
		s.logger.Warn("Failed to persist token", map[string]interface{}{"error": err.Error()})

		return
	}

	_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to persist token: %v\n", err)
}
