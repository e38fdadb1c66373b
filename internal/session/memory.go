// Package session provides flow.Store implementations.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/cvbuilder/internal/flow"
)

// ErrNotFound is returned when the user has no stored session.
var ErrNotFound = flow.ErrSessionNotFound

// MemoryStore keeps sessions in process memory. Sessions are stored serialized,
// so callers never share a record with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

var _ flow.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (*flow.Session, error) {
	m.mu.RLock()
	data, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var sess flow.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &sess, nil
}

func (m *MemoryStore) Save(_ context.Context, sess *flow.Session) error {
	if sess == nil || sess.UserID == "" {
		return errors.New("session with a user id is required")
	}

	stored := *sess
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.UserID] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// Purge removes sessions not updated since before.
func (m *MemoryStore) Purge(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, data := range m.sessions {
		var meta struct {
			UpdatedAt time.Time `json:"updated_at"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return removed, fmt.Errorf("decoding session %s: %w", id, err)
		}
		if meta.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}
