package vaultenv

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Mutator applies single-key changes to a project's bundle with a
// read-modify-write cycle against a Store.
type Mutator struct {
	store  Store
	logger *slog.Logger
}

// NewMutator returns a Mutator backed by store. A nil logger discards output.
func NewMutator(store Store, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Mutator{store: store, logger: logger}
}

// View returns the project's current bundle. A project that was never written
// yields an empty bundle.
func (m *Mutator) View(ctx context.Context, project string) (Bundle, error) {
	bundle, err := m.store.Get(ctx, project)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		bundle = Bundle{}
	}
	return bundle, nil
}

// GetKey returns the value stored under key.
func (m *Mutator) GetKey(ctx context.Context, project, key string) (string, error) {
	bundle, err := m.View(ctx, project)
	if err != nil {
		return "", err
	}
	value, ok := bundle[key]
	if !ok {
		return "", fmt.Errorf("%w: %q in project %q", ErrKeyNotFound, key, project)
	}
	return value, nil
}

// SetKey creates or overwrites key and persists the whole bundle.
func (m *Mutator) SetKey(ctx context.Context, project, key, value string) error {
	bundle, err := m.View(ctx, project)
	if err != nil {
		return err
	}
	bundle[key] = value
	return m.put(ctx, project, bundle, "set", key)
}

// UpdateKey overwrites an existing key. The store is not written when the key
// is absent; ErrKeyNotFound is returned instead.
func (m *Mutator) UpdateKey(ctx context.Context, project, key, value string) error {
	bundle, err := m.View(ctx, project)
	if err != nil {
		return err
	}
	if !bundle.Has(key) {
		return fmt.Errorf("%w: %q in project %q", ErrKeyNotFound, key, project)
	}
	bundle[key] = value
	return m.put(ctx, project, bundle, "update", key)
}

// DeleteKey removes an existing key. The store is not written when the key
// is absent; ErrKeyNotFound is returned instead.
func (m *Mutator) DeleteKey(ctx context.Context, project, key string) error {
	bundle, err := m.View(ctx, project)
	if err != nil {
		return err
	}
	if !bundle.Has(key) {
		return fmt.Errorf("%w: %q in project %q", ErrKeyNotFound, key, project)
	}
	delete(bundle, key)
	return m.put(ctx, project, bundle, "delete", key)
}

func (m *Mutator) put(ctx context.Context, project string, bundle Bundle, op, key string) error {
	if err := m.store.Put(ctx, project, bundle); err != nil {
		m.logger.Debug("bundle write failed", "project", project, "op", op, "key", key, "error", err)
		return err
	}
	m.logger.Debug("bundle written", "project", project, "op", op, "key", key, "keys", len(bundle))
	return nil
}
