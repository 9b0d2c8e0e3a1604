// Package tokenstore persists OVPM session credentials between process runs.
package tokenstore

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Load when no session has been saved.
var ErrNotFound = errors.New("tokenstore: no saved session")

// Record is a saved session.
type Record struct {
	Token    string    `json:"token"`
	Username string    `json:"username,omitempty"`
	IsAdmin  bool      `json:"is_admin,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// Store loads, saves and clears a single session record.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the record in memory. The zero value is ready to use.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(_ context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return Record{}, ErrNotFound
	}
	return *m.rec, nil
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
