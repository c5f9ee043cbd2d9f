// Package vaultenv keeps one bundle of secrets per project in a shared secret
// store and mutates it one key at a time.
//
// Every operation reads the whole bundle from the store, applies a single
// change and writes the whole bundle back. There is no compare-and-swap: two
// writers racing on the same project lose one of the changes, the last Put wins.
package vaultenv

import (
	"context"
	"fmt"
)

// Store reads and writes complete bundles. Implementations must return an
// empty bundle, not an error, for a project that was never written.
type Store interface {
	Get(ctx context.Context, project string) (Bundle, error)
	Put(ctx context.Context, project string, bundle Bundle) error
}

// ProjectPath returns the storage path of a project's bundle.
//
// Example: ProjectPath("project-xyz") returns "project-xyz/env".
func ProjectPath(project string) string {
	return fmt.Sprintf("%s/env", project)
}
