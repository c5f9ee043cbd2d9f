// Package config resolves process settings from flags, the environment and
// an optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/oskeyring"
)

// DefaultEnvFile is loaded when VAULTENV_ENV_FILE is not set. Its absence is not an error.
const DefaultEnvFile = ".env"

const (
	BackendVault     = "vault"
	BackendBolt      = "bolt"
	BackendDatastore = "datastore"
	BackendMemory    = "memory"
)

// Config is shared by every entry point. The struct tags double as kong flag
// definitions, so the CLI embeds it directly.
type Config struct {
	Backend   string          `help:"Secret store backend (${enum})." enum:"vault,bolt,datastore,memory" default:"vault" env:"VAULTENV_BACKEND"`
	Vault     VaultConfig     `embed:"" prefix:"vault-" group:"Vault"`
	Bolt      BoltConfig      `embed:"" prefix:"bolt-" group:"Bolt"`
	Datastore DatastoreConfig `embed:"" prefix:"datastore-" group:"Datastore"`
	Log       LogConfig       `embed:"" prefix:"log-" group:"Logging"`
}

type VaultConfig struct {
	Addr      string `help:"Vault server address." env:"VAULT_ADDR"`
	Token     string `help:"Vault token. Falls back to the token saved by 'vaultenv login'." env:"VAULT_TOKEN"`
	Namespace string `help:"Vault namespace (Enterprise/HCP)." env:"VAULT_NAMESPACE"`
	Mount     string `help:"KV v2 mount path." default:"secret" env:"VAULTENV_KV_MOUNT"`
}

type BoltConfig struct {
	Path string `help:"BoltDB file used by the bolt backend." default:"vaultenv.db" env:"VAULTENV_BOLT_PATH"`
}

type DatastoreConfig struct {
	Project     string `help:"Google Cloud project of the datastore backend." env:"VAULTENV_DATASTORE_PROJECT"`
	Database    string `help:"Datastore database id." env:"VAULTENV_DATASTORE_DATABASE"`
	Credentials string `help:"Service account credentials file." env:"VAULTENV_DATASTORE_CREDENTIALS" type:"path"`
}

type LogConfig struct {
	Level  string `help:"Log level (${enum})." enum:"debug,info,warn,error" default:"info" env:"VAULTENV_LOG_LEVEL"`
	Format string `help:"Log format (${enum})." enum:"text,json" default:"text" env:"VAULTENV_LOG_FORMAT"`
}

// LoadEnvFile loads a dotenv file into the process environment without
// overriding variables that are already set. An empty path means
// VAULTENV_ENV_FILE, then DefaultEnvFile; a missing default file is ignored.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = os.Getenv("VAULTENV_ENV_FILE")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultEnvFile
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error loading env file %q: %w", path, err)
	}
	return nil
}

// Load resolves a Config from args and the environment. It is used by entry
// points that have no CLI of their own; pass nil to read the environment only.
func Load(args []string) (Config, error) {
	var cfg Config
	parser, err := kong.New(&cfg, kong.Name("vaultenv"))
	if err != nil {
		return Config{}, err
	}
	if _, err := parser.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %w", vaultenv.ErrConfigMissing, err)
	}
	return cfg, nil
}

// ResolveToken fills Vault.Token from the OS keyring when it was not
// configured. A keyring miss leaves the token empty for Validate to report.
func (c *Config) ResolveToken(svc oskeyring.Service) error {
	if c.Backend != BackendVault || c.Vault.Token != "" || svc == nil {
		return nil
	}
	token, err := oskeyring.LoadToken(svc, c.Vault.Addr)
	if errors.Is(err, oskeyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	c.Vault.Token = token
	return nil
}

// Validate reports the first required setting that is missing for the
// selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendVault, "":
		if c.Vault.Addr == "" {
			return fmt.Errorf("%w: VAULT_ADDR is required", vaultenv.ErrConfigMissing)
		}
		if c.Vault.Token == "" {
			return fmt.Errorf("%w: VAULT_TOKEN is required (or run 'vaultenv login')", vaultenv.ErrConfigMissing)
		}
	case BackendBolt:
		if c.Bolt.Path == "" {
			return fmt.Errorf("%w: VAULTENV_BOLT_PATH is required", vaultenv.ErrConfigMissing)
		}
	case BackendDatastore:
		if c.Datastore.Project == "" {
			return fmt.Errorf("%w: VAULTENV_DATASTORE_PROJECT is required", vaultenv.ErrConfigMissing)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown backend %q", vaultenv.ErrConfigMissing, c.Backend)
	}
	return nil
}
