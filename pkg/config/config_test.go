package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/oskeyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VAULT_ADDR", "VAULT_TOKEN", "VAULT_NAMESPACE", "VAULTENV_KV_MOUNT",
		"VAULTENV_BACKEND", "VAULTENV_BOLT_PATH", "VAULTENV_DATASTORE_PROJECT",
		"VAULTENV_LOG_LEVEL", "VAULTENV_LOG_FORMAT", "VAULTENV_ENV_FILE",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, BackendVault, cfg.Backend)
	assert.Equal(t, "secret", cfg.Vault.Mount)
	assert.Equal(t, "vaultenv.db", cfg.Bolt.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("VAULT_ADDR", "http://127.0.0.1:8200")
	t.Setenv("VAULT_TOKEN", "hvs.abc")
	t.Setenv("VAULT_NAMESPACE", "admin")
	t.Setenv("VAULTENV_KV_MOUNT", "kv")
	t.Setenv("VAULTENV_LOG_FORMAT", "json")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8200", cfg.Vault.Addr)
	assert.Equal(t, "hvs.abc", cfg.Vault.Token)
	assert.Equal(t, "admin", cfg.Vault.Namespace)
	assert.Equal(t, "kv", cfg.Vault.Mount)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("VAULTENV_BACKEND", "vault")
	cfg, err := Load([]string{"--backend", "bolt", "--bolt-path", "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, BackendBolt, cfg.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Bolt.Path)
}

func TestLoad_InvalidBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("VAULTENV_BACKEND", "consul")
	_, err := Load(nil)
	assert.ErrorIs(t, err, vaultenv.ErrConfigMissing)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "vault without addr", cfg: Config{Backend: BackendVault, Vault: VaultConfig{Token: "t"}}, wantErr: true},
		{name: "vault without token", cfg: Config{Backend: BackendVault, Vault: VaultConfig{Addr: "http://x"}}, wantErr: true},
		{name: "vault complete", cfg: Config{Backend: BackendVault, Vault: VaultConfig{Addr: "http://x", Token: "t"}}},
		{name: "empty backend means vault", cfg: Config{}, wantErr: true},
		{name: "bolt without path", cfg: Config{Backend: BackendBolt}, wantErr: true},
		{name: "bolt", cfg: Config{Backend: BackendBolt, Bolt: BoltConfig{Path: "x.db"}}},
		{name: "datastore without project", cfg: Config{Backend: BackendDatastore}, wantErr: true},
		{name: "datastore", cfg: Config{Backend: BackendDatastore, Datastore: DatastoreConfig{Project: "p"}}},
		{name: "memory", cfg: Config{Backend: BackendMemory}},
		{name: "unknown", cfg: Config{Backend: "consul"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, vaultenv.ErrConfigMissing)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("VAULT_ADDR=http://from-file:8200\nVAULT_TOKEN=file-token\n"), 0o600))

	// variables already set win over the file
	t.Setenv("VAULT_TOKEN", "env-token")
	require.NoError(t, LoadEnvFile(path))
	t.Cleanup(func() { os.Unsetenv("VAULT_ADDR") })

	assert.Equal(t, "http://from-file:8200", os.Getenv("VAULT_ADDR"))
	assert.Equal(t, "env-token", os.Getenv("VAULT_TOKEN"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	clearEnv(t)

	// missing default file is fine
	assert.NoError(t, LoadEnvFile(""))

	// an explicit file must exist
	assert.Error(t, LoadEnvFile("does-not-exist.env"))

	t.Setenv("VAULTENV_ENV_FILE", "also-missing.env")
	assert.Error(t, LoadEnvFile(""))
}

func TestResolveToken(t *testing.T) {
	svc := oskeyring.NewMemoryService()
	require.NoError(t, oskeyring.SaveToken(svc, "http://127.0.0.1:8200", "hvs.saved"))

	cfg := Config{Backend: BackendVault, Vault: VaultConfig{Addr: "http://127.0.0.1:8200"}}
	require.NoError(t, cfg.ResolveToken(svc))
	assert.Equal(t, "hvs.saved", cfg.Vault.Token)

	// an explicit token is kept
	cfg = Config{Backend: BackendVault, Vault: VaultConfig{Addr: "http://127.0.0.1:8200", Token: "hvs.env"}}
	require.NoError(t, cfg.ResolveToken(svc))
	assert.Equal(t, "hvs.env", cfg.Vault.Token)

	// no saved token leaves it empty for Validate to report
	cfg = Config{Backend: BackendVault, Vault: VaultConfig{Addr: "https://other"}}
	require.NoError(t, cfg.ResolveToken(svc))
	assert.Empty(t, cfg.Vault.Token)
	assert.ErrorIs(t, cfg.Validate(), vaultenv.ErrConfigMissing)
}
