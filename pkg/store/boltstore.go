package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mscno/vaultenv"
	"go.etcd.io/bbolt"
)

// BoltStore implements vaultenv.Store using BoltDB.
// Bucket: "bundles" -> key: {project}/env, value: JSON-encoded boltRecord
type BoltStore struct {
	db *bbolt.DB
}

var bundlesBucket = []byte("bundles")

type boltRecord struct {
	Version   int               `json:"version"`
	UpdatedAt time.Time         `json:"updated_at"`
	Data      map[string]string `json:"data"`
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt database %s: %w", vaultenv.ErrStoreUnavailable, path, err)
	}
	// Ensure bucket exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bundlesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Get(_ context.Context, project string) (vaultenv.Bundle, error) {
	rec, err := b.record(project)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.Data == nil {
		return vaultenv.Bundle{}, nil
	}
	return vaultenv.Bundle(rec.Data), nil
}

// Put replaces the project's bundle and bumps its version.
func (b *BoltStore) Put(_ context.Context, project string, bundle vaultenv.Bundle) error {
	key := []byte(vaultenv.ProjectPath(project))
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bundlesBucket)
		var rec boltRecord
		if val := bucket.Get(key); val != nil {
			if err := json.Unmarshal(val, &rec); err != nil {
				return fmt.Errorf("decode bundle %s: %w", key, err)
			}
		}
		rec.Version++
		rec.UpdatedAt = time.Now().UTC()
		rec.Data = bundle.Clone()
		val, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bucket.Put(key, val)
	})
}

// Version returns the number of writes made to the project's bundle, 0 if none.
func (b *BoltStore) Version(_ context.Context, project string) (int, error) {
	rec, err := b.record(project)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Version, nil
}

func (b *BoltStore) record(project string) (*boltRecord, error) {
	var rec *boltRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		val := tx.Bucket(bundlesBucket).Get([]byte(vaultenv.ProjectPath(project)))
		if val == nil {
			return nil
		}
		rec = &boltRecord{}
		return json.Unmarshal(val, rec)
	})
	return rec, err
}

func (b *BoltStore) Close() error {
	return b.db.Close()
}

var _ vaultenv.Store = (*BoltStore)(nil)
