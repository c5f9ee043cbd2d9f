// Package vault implements vaultenv.Store on top of HashiCorp Vault's KV v2
// secrets engine.
//
// Bundles are stored at
//
//	{mount}/data/{project}/env
//
// so with the default mount, project "payment-api" lives at
// "secret/data/payment-api/env". Every Put creates a new KV v2 version.
//
// The token needs the following policy:
//
//	path "secret/data/*" {
//	    capabilities = ["create", "read", "update"]
//	}
package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hashicorp/vault/api"
	"github.com/mscno/vaultenv"
)

// DefaultMount is the KV v2 mount used when Config.Mount is empty.
const DefaultMount = "secret"

// Config holds the connection settings. Address and Token are required.
type Config struct {
	Address   string
	Token     string
	Namespace string
	Mount     string
}

// Client implements vaultenv.Store. It is safe to share; it holds no state
// beyond the authenticated API client.
type Client struct {
	client *api.Client
	mount  string
	logger *slog.Logger
}

// New creates an authenticated client. It fails with vaultenv.ErrConfigMissing
// when the address or token is empty, vaultenv.ErrAuthFailed when Vault rejects
// the token and vaultenv.ErrStoreUnavailable when Vault cannot be reached.
//
// Retries are disabled: a failed call is reported immediately.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: VAULT_ADDR is required", vaultenv.ErrConfigMissing)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: VAULT_TOKEN is required", vaultenv.ErrConfigMissing)
	}
	mount := strings.Trim(cfg.Mount, "/")
	if mount == "" {
		mount = DefaultMount
	}

	config := api.DefaultConfig()
	config.Address = cfg.Address
	config.MaxRetries = 0

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Vault client: %w", vaultenv.ErrStoreUnavailable, err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	c := &Client{client: client, mount: mount, logger: logger}
	if err := c.authenticate(ctx); err != nil {
		return nil, err
	}
	logger.Debug("vault client authenticated", "addr", cfg.Address, "mount", mount, "namespace", cfg.Namespace)
	return c, nil
}

// authenticate looks up the client's own token, which succeeds for any valid
// token regardless of its policies.
func (c *Client) authenticate(ctx context.Context) error {
	_, err := c.client.Auth().Token().LookupSelfWithContext(ctx)
	if err == nil {
		return nil
	}
	var respErr *api.ResponseError
	if errors.As(err, &respErr) &&
		(respErr.StatusCode == http.StatusForbidden || respErr.StatusCode == http.StatusUnauthorized) {
		return fmt.Errorf("%w: Vault rejected the token: %w", vaultenv.ErrAuthFailed, err)
	}
	return fmt.Errorf("%w: token lookup failed: %w", vaultenv.ErrStoreUnavailable, err)
}

// DataPath returns the KV v2 API path of a project's bundle.
func (c *Client) DataPath(project string) string {
	return fmt.Sprintf("%s/data/%s", c.mount, vaultenv.ProjectPath(project))
}

// Get reads the latest version of the project's bundle. A path that was never
// written, or whose latest version was deleted, reads as an empty bundle.
func (c *Client) Get(ctx context.Context, project string) (vaultenv.Bundle, error) {
	path := c.DataPath(project)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", vaultenv.ErrStoreUnavailable, path, err)
	}
	if secret == nil || secret.Data == nil {
		c.logger.Debug("no bundle stored", "path", path)
		return vaultenv.Bundle{}, nil
	}

	// KV v2 wraps the actual data in a "data" key; it is null for deleted versions
	raw, present := secret.Data["data"]
	if !present || raw == nil {
		return vaultenv.Bundle{}, nil
	}
	data, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: invalid KV v2 secret format at %s", vaultenv.ErrStoreUnavailable, path)
	}

	bundle := make(vaultenv.Bundle, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			bundle[k] = val
		default:
			bundle[k] = fmt.Sprint(val)
		}
	}
	return bundle, nil
}

// Put writes bundle as a new version of the project's secret.
func (c *Client) Put(ctx context.Context, project string, bundle vaultenv.Bundle) error {
	path := c.DataPath(project)
	values := make(map[string]interface{}, len(bundle))
	for k, v := range bundle {
		values[k] = v
	}
	data := map[string]interface{}{
		"data": values,
	}
	if _, err := c.client.Logical().WriteWithContext(ctx, path, data); err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", vaultenv.ErrStoreUnavailable, path, err)
	}
	return nil
}

var _ vaultenv.Store = (*Client)(nil)
