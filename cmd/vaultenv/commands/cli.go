package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/config"
	"github.com/mscno/vaultenv/pkg/logging"
	"github.com/mscno/vaultenv/pkg/oskeyring"
	"github.com/mscno/vaultenv/pkg/store"
)

type cliCtx struct {
	context.Context
	Debug   bool
	Logger  *slog.Logger
	Config  *config.Config
	Keyring oskeyring.Service
	Stdin   io.Reader
	Stdout  io.Writer

	// Store is opened from Config on first use unless set.
	Store  vaultenv.Store
	closer io.Closer
}

// Mutator opens the configured store if needed and returns a mutator over it.
func (c *cliCtx) Mutator() (*vaultenv.Mutator, error) {
	if c.Store == nil {
		if err := c.Config.ResolveToken(c.Keyring); err != nil {
			return nil, fmt.Errorf("error reading token from keyring: %w", err)
		}
		s, closer, err := store.Open(c, *c.Config, c.Logger)
		if err != nil {
			return nil, err
		}
		c.Store, c.closer = s, closer
	}
	return vaultenv.NewMutator(c.Store, c.Logger), nil
}

// Close releases the store opened by Mutator.
func (c *cliCtx) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

type cli struct {
	Config config.Config `embed:""`

	Debug   bool             `help:"Enable debug logging." short:"D" env:"VAULTENV_DEBUG"`
	Version kong.VersionFlag `help:"Show version."`

	Shell  ShellCmd  `cmd:"" default:"1" help:"Interactive secret manager (default)."`
	View   ViewCmd   `cmd:"" help:"Print all secrets of a project."`
	Get    GetCmd    `cmd:"" help:"Print the value of one secret."`
	Set    SetCmd    `cmd:"" help:"Create or overwrite a secret."`
	Update UpdateCmd `cmd:"" help:"Overwrite an existing secret."`
	Delete DeleteCmd `cmd:"" help:"Delete an existing secret."`
	Export ExportCmd `cmd:"" help:"Write a project's secrets as env, json or yaml."`
	Import ImportCmd `cmd:"" help:"Set every secret found in an env, json or yaml file."`
	Invoke InvokeCmd `cmd:"" help:"Handle one JSON request like the Lambda function does."`
	Login  LoginCmd  `cmd:"" help:"Save a Vault token (read from stdin) in the OS keyring."`
	Logout LogoutCmd `cmd:"" help:"Remove the saved Vault token from the OS keyring."`
}

func newParser(c *cli, version string, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.UsageOnError(),
		kong.Name("vaultenv"),
		kong.Description("vaultenv manages per-project secret bundles stored in HashiCorp Vault."),
		kong.Vars{"version": version},
	}, options...)
	return kong.New(c, options...)
}

func Execute(version string) {
	if err := config.LoadEnvFile(""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var cli cli
	parser, err := newParser(&cli, version)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	level := cli.Config.Log.Level
	if cli.Debug {
		level = "debug"
	}
	logger := logging.New(level, cli.Config.Log.Format, os.Stderr)

	cc := &cliCtx{
		Context: context.Background(),
		Debug:   cli.Debug,
		Logger:  logger,
		Config:  &cli.Config,
		Keyring: oskeyring.NewDefaultService(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
	}
	err = ctx.Run(cc)
	if cerr := cc.Close(); cerr != nil {
		logger.Warn("failed to close store", "error", cerr)
	}
	ctx.FatalIfErrorf(err)
}
