// Package checkpoint persists full workflow state snapshots keyed by
// session id, so a paused session can be resumed in a later call (or a
// later process) exactly where it left off.
package checkpoint

import (
	"context"
	"errors"
	"sync"

	"github.com/kalambet/reqmine/internal/mining"
)

// ErrNotFound is returned when no checkpoint exists for a session id.
var ErrNotFound = errors.New("checkpoint not found")

// Store is the durable snapshot store. Save overwrites any previous
// snapshot for the same session id (last write wins).
type Store interface {
	Save(ctx context.Context, sessionID string, state *mining.MiningState) error
	Load(ctx context.Context, sessionID string) (*mining.MiningState, error)
}

// MemoryStore keeps checkpoints in process memory. Used by tests and by
// the CLI's one-shot mode, where durability across processes is not needed.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

// Save serializes state and stores it under sessionID.
func (m *MemoryStore) Save(_ context.Context, sessionID string, state *mining.MiningState) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.snapshots[sessionID] = data
	m.mu.Unlock()
	return nil
}

// Load returns the last saved state for sessionID, or ErrNotFound.
func (m *MemoryStore) Load(_ context.Context, sessionID string) (*mining.MiningState, error) {
	m.mu.RLock()
	data, ok := m.snapshots[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeState(data)
}
