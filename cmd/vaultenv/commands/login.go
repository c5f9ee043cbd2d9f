package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/mscno/vaultenv"
	"github.com/mscno/vaultenv/pkg/oskeyring"
	"github.com/mscno/vaultenv/pkg/vault"
)

type LoginCmd struct {
	NoVerify bool `help:"Save the token without checking it against Vault."`
}

func (c *LoginCmd) Run(ctx *cliCtx) error {
	addr := ctx.Config.Vault.Addr
	if addr == "" {
		return fmt.Errorf("%w: VAULT_ADDR is required", vaultenv.ErrConfigMissing)
	}

	fmt.Fprintf(ctx.Stdout, "Vault token for %s: ", addr)
	scanner := bufio.NewScanner(ctx.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("error reading from stdin: %w", err)
		}
	}
	token := strings.TrimSpace(scanner.Text())
	fmt.Fprintln(ctx.Stdout)
	if token == "" {
		return fmt.Errorf("%w: no token given", vaultenv.ErrConfigMissing)
	}

	if !c.NoVerify {
		ctx.Logger.Debug("verifying token", "addr", addr)
		if _, err := vault.New(ctx, vault.Config{
			Address:   addr,
			Token:     token,
			Namespace: ctx.Config.Vault.Namespace,
			Mount:     ctx.Config.Vault.Mount,
		}, ctx.Logger); err != nil {
			return err
		}
	}

	if err := oskeyring.SaveToken(ctx.Keyring, addr, token); err != nil {
		return fmt.Errorf("failed to save token in OS keyring: %w", err)
	}
	fmt.Fprintf(ctx.Stdout, "✓ Token for %s saved in the OS keyring.\n", addr)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cliCtx) error {
	addr := ctx.Config.Vault.Addr
	if addr == "" {
		return fmt.Errorf("%w: VAULT_ADDR is required", vaultenv.ErrConfigMissing)
	}
	if err := oskeyring.DeleteToken(ctx.Keyring, addr); err != nil {
		return fmt.Errorf("failed to remove token from OS keyring: %w", err)
	}
	fmt.Fprintf(ctx.Stdout, "✓ Token for %s removed.\n", addr)
	return nil
}
