package commands

import "github.com/mscno/vaultenv/pkg/shell"

type ShellCmd struct{}

func (c *ShellCmd) Run(ctx *cliCtx) error {
	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	return shell.New(m, ctx.Stdin, ctx.Stdout, ctx.Logger).Run(ctx)
}
