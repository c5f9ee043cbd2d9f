package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/mscno/vaultenv"
)

const bundleKind = "Bundle"

// SecretPair is one key/value of a bundle as persisted in Datastore.
type SecretPair struct {
	Key   string `datastore:"key,noindex"`
	Value string `datastore:"value,noindex"`
}

type bundleEntity struct {
	Project   string       `datastore:"project_id"`
	Version   int          `datastore:"version,noindex"`
	UpdatedAt time.Time    `datastore:"updated_at"`
	Secrets   []SecretPair `datastore:"secrets,noindex"`
}

// DatastoreStore implements vaultenv.Store using Google Cloud Datastore.
type DatastoreStore struct {
	client *datastore.Client
}

// NewDatastoreStore creates a new DatastoreStore with the given client
func NewDatastoreStore(client *datastore.Client) *DatastoreStore {
	return &DatastoreStore{client: client}
}

// Close closes the underlying datastore client
func (s *DatastoreStore) Close() error {
	return s.client.Close()
}

func (s *DatastoreStore) bundleKey(project string) *datastore.Key {
	return datastore.NameKey(bundleKind, vaultenv.ProjectPath(project), nil)
}

func (s *DatastoreStore) Get(ctx context.Context, project string) (vaultenv.Bundle, error) {
	var entity bundleEntity
	err := s.client.Get(ctx, s.bundleKey(project), &entity)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return vaultenv.Bundle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: datastore get %s: %w", vaultenv.ErrStoreUnavailable, project, err)
	}
	return secretPairsToBundle(entity.Secrets), nil
}

// Put replaces the project's bundle inside a transaction so the version
// counter stays monotonic.
func (s *DatastoreStore) Put(ctx context.Context, project string, bundle vaultenv.Bundle) error {
	key := s.bundleKey(project)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var entity bundleEntity
		err := tx.Get(key, &entity)
		if err != nil && !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		entity.Project = project
		entity.Version++
		entity.UpdatedAt = time.Now().UTC()
		entity.Secrets = bundleToSecretPairs(bundle)
		_, err = tx.Put(key, &entity)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: datastore put %s: %w", vaultenv.ErrStoreUnavailable, project, err)
	}
	return nil
}

// bundleToSecretPairs converts a bundle to []SecretPair, sorted by key
func bundleToSecretPairs(b vaultenv.Bundle) []SecretPair {
	pairs := make([]SecretPair, 0, len(b))
	for _, k := range b.Keys() {
		pairs = append(pairs, SecretPair{Key: k, Value: b[k]})
	}
	return pairs
}

func secretPairsToBundle(pairs []SecretPair) vaultenv.Bundle {
	b := make(vaultenv.Bundle, len(pairs))
	for _, pair := range pairs {
		b[pair.Key] = pair.Value
	}
	return b
}

var _ vaultenv.Store = (*DatastoreStore)(nil)
