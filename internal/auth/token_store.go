package auth

import (
	"context"
	"fmt"
	"sync"

	"infosec-dashboard/internal/model"
)

// TokenBackend is the durable key/value storage behind a TokenStore.
type TokenBackend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// TokenStore keeps the bearer token of the current session under a fixed key.
type TokenStore struct {
	backend TokenBackend
	key     string
}

func NewTokenStore(backend TokenBackend, key string) *TokenStore {
	return &TokenStore{backend: backend, key: key}
}

// Persist stores token while the session is authenticated and removes any
// stored value otherwise, so a logged-out process never finds a stale token.
func (s *TokenStore) Persist(ctx context.Context, token string, authenticated bool) error {
	if authenticated && token != "" {
		if err := s.backend.Set(ctx, s.key, token); err != nil {
			return fmt.Errorf("persist token failed: %w", err)
		}
		return nil
	}
	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("remove token failed: %w", err)
	}
	return nil
}

// Read returns the token to use for outbound calls. Storage is never consulted
// when the session claims to be logged out.
func (s *TokenStore) Read(ctx context.Context, session model.Session) (string, bool, error) {
	if !session.Authenticated {
		return "", false, nil
	}
	if session.Token != "" {
		return session.Token, true, nil
	}
	stored, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return "", false, fmt.Errorf("read stored token failed: %w", err)
	}
	if !ok || stored == "" {
		return "", false, nil
	}
	return stored, true, nil
}

// MemoryBackend is a process-local TokenBackend.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
