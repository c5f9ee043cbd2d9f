// Package store holds the non-Vault implementations of vaultenv.Store and the
// factory that picks one from configuration.
package store

import (
	"context"
	"sync"

	"github.com/mscno/vaultenv"
)

// MemoryStore implements vaultenv.Store in-memory (for testing/dev).
type MemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]vaultenv.Bundle // project path -> bundle
	writes  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bundles: make(map[string]vaultenv.Bundle),
	}
}

func (m *MemoryStore) Get(_ context.Context, project string) (vaultenv.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bundles[vaultenv.ProjectPath(project)]
	if !ok {
		return vaultenv.Bundle{}, nil
	}
	// Return a copy to avoid race
	return b.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, project string, bundle vaultenv.Bundle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[vaultenv.ProjectPath(project)] = bundle.Clone()
	m.writes++
	return nil
}

// Writes returns how many times Put was called.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

var _ vaultenv.Store = (*MemoryStore)(nil)
