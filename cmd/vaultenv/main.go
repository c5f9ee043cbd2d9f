// Package main provides the vaultenv CLI for managing per-project secrets.
package main

import "github.com/mscno/vaultenv/cmd/vaultenv/commands"

func main() {
	commands.Execute(Version)
}
