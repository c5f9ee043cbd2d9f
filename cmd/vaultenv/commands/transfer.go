package commands

import (
	"fmt"
	"os"

	"github.com/mscno/vaultenv/pkg/format"
)

type ExportCmd struct {
	Project string `arg:"" help:"Project ID."`
	Format  string `help:"Output format (env, json, yaml)." default:"env" short:"f"`
	Output  string `help:"Write to this file instead of stdout." short:"o" type:"path"`
}

func (c *ExportCmd) Run(ctx *cliCtx) error {
	f, err := format.Parse(c.Format)
	if err != nil {
		return fmt.Errorf("error parsing format flag %q: %w", c.Format, err)
	}
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	bundle, err := m.View(ctx, c.Project)
	if err != nil {
		return err
	}
	if c.Output == "" {
		return format.Encode(ctx.Stdout, bundle, f)
	}

	file, err := os.OpenFile(c.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := format.Encode(file, bundle, f); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	ctx.Logger.Debug("exported secrets", "project", c.Project, "file", c.Output, "keys", len(bundle))
	return nil
}

type ImportCmd struct {
	Project string `arg:"" help:"Project ID."`
	File    string `arg:"" help:"File to import." type:"existingfile"`
	Format  string `help:"Input format (env, json, yaml). Detected from the file name when empty." short:"f"`
}

func (c *ImportCmd) Run(ctx *cliCtx) error {
	name := c.Format
	if name == "" {
		name = c.File
	}
	f, err := format.Parse(name)
	if err != nil {
		return fmt.Errorf("error detecting format of %q: %w", name, err)
	}

	file, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer file.Close()
	bundle, err := format.Decode(file, f)
	if err != nil {
		return err
	}

	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	for _, k := range bundle.Keys() {
		if err := m.SetKey(ctx, c.Project, k, bundle[k]); err != nil {
			return fmt.Errorf("error importing %q: %w", k, err)
		}
		fmt.Fprintf(ctx.Stdout, "✓ '%s' set.\n", k)
	}
	fmt.Fprintf(ctx.Stdout, "Imported %d secrets into %s\n", len(bundle), c.Project)
	return nil
}
