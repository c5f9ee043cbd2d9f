package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mscno/vaultenv"
)

type ViewCmd struct {
	Project string `arg:"" help:"Project ID."`
}

func (c *ViewCmd) Run(ctx *cliCtx) error {
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	bundle, err := m.View(ctx, c.Project)
	if err != nil {
		return err
	}
	if len(bundle) == 0 {
		fmt.Fprintln(ctx.Stdout, "No secrets found.")
		return nil
	}
	for _, k := range bundle.Keys() {
		fmt.Fprintf(ctx.Stdout, "%s = %s\n", k, bundle[k])
	}
	return nil
}

type GetCmd struct {
	Project string `arg:"" help:"Project ID."`
	Key     string `arg:"" help:"Secret key."`
}

func (c *GetCmd) Run(ctx *cliCtx) error {
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	value, err := m.GetKey(ctx, c.Project, c.Key)
	if err != nil {
		return err
	}
	// Output just the value without newline
	fmt.Fprint(ctx.Stdout, value)
	return nil
}

type SetCmd struct {
	Project string `arg:"" help:"Project ID."`
	Key     string `arg:"" help:"Secret key."`
	Value   string `arg:"" help:"Secret value, or '-' to read it from stdin."`
}

func (c *SetCmd) Run(ctx *cliCtx) error {
	value, err := readValue(ctx, c.Value)
	if err != nil {
		return err
	}
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	ctx.Logger.Debug("setting secret", "project", c.Project, "key", c.Key)
	if err := m.SetKey(ctx, c.Project, c.Key, value); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout, "✓ '%s' set.\n", c.Key)
	return nil
}

type UpdateCmd struct {
	Project string `arg:"" help:"Project ID."`
	Key     string `arg:"" help:"Secret key."`
	Value   string `arg:"" help:"New value, or '-' to read it from stdin."`
}

func (c *UpdateCmd) Run(ctx *cliCtx) error {
	value, err := readValue(ctx, c.Value)
	if err != nil {
		return err
	}
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	ctx.Logger.Debug("updating secret", "project", c.Project, "key", c.Key)
	err = m.UpdateKey(ctx, c.Project, c.Key, value)
	if errors.Is(err, vaultenv.ErrKeyNotFound) {
		return fmt.Errorf("%w (use 'vaultenv set' to create it)", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout, "✓ '%s' updated.\n", c.Key)
	return nil
}

type DeleteCmd struct {
	Project string `arg:"" help:"Project ID."`
	Key     string `arg:"" help:"Secret key."`
}

func (c *DeleteCmd) Run(ctx *cliCtx) error {
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	ctx.Logger.Debug("deleting secret", "project", c.Project, "key", c.Key)
	if err := m.DeleteKey(ctx, c.Project, c.Key); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout, "✓ '%s' deleted.\n", c.Key)
	return nil
}

// readValue returns arg, or the trimmed stdin contents when arg is "-".
func readValue(ctx *cliCtx, arg string) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return "", fmt.Errorf("error reading from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
