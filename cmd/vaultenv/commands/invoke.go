package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mscno/vaultenv/pkg/handler"
)

type InvokeCmd struct {
	Request string `arg:"" optional:"" help:"JSON request. Read from stdin when omitted."`
}

func (c *InvokeCmd) Run(ctx *cliCtx) error {
	payload := []byte(c.Request)
	if c.Request == "" || c.Request == "-" {
		data, err := io.ReadAll(ctx.Stdin)
		if err != nil {
			return fmt.Errorf("error reading from stdin: %w", err)
		}
		payload = data
	}

	m, err := ctx.Mutator()
	if err != nil {
		return err
	}
	resp := handler.New(m, ctx.Logger).HandleJSON(ctx, payload)

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.Stdout, string(out))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}
