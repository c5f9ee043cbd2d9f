package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/datastore"
	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/config"
	"github.com/mscno/vaultenv/pkg/vault"
	"google.golang.org/api/option"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the backend selected by cfg. The returned Closer releases the
// backend's resources at process exit; the Vault client holds none.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (vaultenv.Store, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case config.BackendBolt:
		s, err := NewBoltStore(cfg.Bolt.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using bolt store", "path", cfg.Bolt.Path)
		return s, s, nil
	case config.BackendDatastore:
		var opts []option.ClientOption
		if cfg.Datastore.Credentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Datastore.Credentials))
		}
		client, err := datastore.NewClientWithDatabase(ctx, cfg.Datastore.Project, cfg.Datastore.Database, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: failed to create datastore client: %w", vaultenv.ErrStoreUnavailable, err)
		}
		s := NewDatastoreStore(client)
		logger.Info("using datastore store", "project", cfg.Datastore.Project, "database", cfg.Datastore.Database)
		return s, s, nil
	case config.BackendMemory:
		logger.Info("using in-memory store")
		return NewMemoryStore(), nopCloser{}, nil
	default:
		c, err := vault.New(ctx, vault.Config{
			Address:   cfg.Vault.Addr,
			Token:     cfg.Vault.Token,
			Namespace: cfg.Vault.Namespace,
			Mount:     cfg.Vault.Mount,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("using vault store", "addr", cfg.Vault.Addr)
		return c, nopCloser{}, nil
	}
}
