// Package shell implements the interactive secret manager menu.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mscno/vaultenv"
)

// Shell prompts for a project once, then runs the menu until the user picks
// Exit. It holds no state between commands; every command reads the bundle
// from the store again.
type Shell struct {
	mutator *vaultenv.Mutator
	in      *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
}

// New returns a Shell reading commands from in and writing to out.
func New(mutator *vaultenv.Mutator, in io.Reader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Shell{mutator: mutator, in: scanner, out: out, logger: logger}
}

// Run prints the banner and loops over the menu. It returns nil after Exit and
// io.ErrUnexpectedEOF when input ends before that.
func (s *Shell) Run(ctx context.Context) error {
	s.println("🔐 Vault Secret Manager")
	var project string
	for project == "" {
		p, err := s.prompt("Enter project ID (e.g., project-xyz): ")
		if err != nil {
			return err
		}
		if p == "" {
			s.println("⚠ Project ID is required.")
		}
		project = p
	}
	s.logger.Debug("shell started", "project", project)

	for {
		s.println("\nChoose an option:")
		s.println("1. Create or add new secrets")
		s.println("2. Update an existing secret key")
		s.println("3. Delete a secret key")
		s.println("4. View current secrets")
		s.println("5. Exit")

		choice, err := s.prompt("Select (1-5): ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.create(ctx, project)
		case "2":
			err = s.update(ctx, project)
		case "3":
			err = s.delete(ctx, project)
		case "4":
			err = s.view(ctx, project)
		case "5":
			s.println("Bye!")
			return nil
		default:
			s.println("Invalid choice.")
			continue
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return err
		}
		if err != nil {
			s.logger.Error("command failed", "project", project, "choice", choice, "error", err)
			s.printf("✗ Error: %v\n", err)
		}
	}
}

func (s *Shell) create(ctx context.Context, project string) error {
	for {
		key, err := s.prompt("Enter key (or 'done' to finish): ")
		if err != nil {
			return err
		}
		if strings.EqualFold(key, "done") {
			return nil
		}
		if key == "" {
			s.println("⚠ Key is required.")
			continue
		}
		value, err := s.prompt(fmt.Sprintf("Enter value for '%s': ", key))
		if err != nil {
			return err
		}
		if err := s.mutator.SetKey(ctx, project, key, value); err != nil {
			return err
		}
		s.printf("✓ '%s' set.\n", key)
	}
}

func (s *Shell) update(ctx context.Context, project string) error {
	key, err := s.prompt("Key to update: ")
	if err != nil {
		return err
	}
	if _, err := s.mutator.GetKey(ctx, project, key); err != nil {
		if errors.Is(err, vaultenv.ErrKeyNotFound) {
			s.println("⚠ Key does not exist. Use create option instead.")
			return nil
		}
		return err
	}
	value, err := s.prompt(fmt.Sprintf("New value for '%s': ", key))
	if err != nil {
		return err
	}
	err = s.mutator.UpdateKey(ctx, project, key, value)
	if errors.Is(err, vaultenv.ErrKeyNotFound) {
		// removed by someone else while we were prompting
		s.println("⚠ Key does not exist. Use create option instead.")
		return nil
	}
	if err != nil {
		return err
	}
	s.printf("✓ '%s' updated.\n", key)
	return nil
}

func (s *Shell) delete(ctx context.Context, project string) error {
	key, err := s.prompt("Key to delete: ")
	if err != nil {
		return err
	}
	err = s.mutator.DeleteKey(ctx, project, key)
	if errors.Is(err, vaultenv.ErrKeyNotFound) {
		s.println("⚠ Key not found.")
		return nil
	}
	if err != nil {
		return err
	}
	s.printf("✓ '%s' deleted.\n", key)
	return nil
}

func (s *Shell) view(ctx context.Context, project string) error {
	bundle, err := s.mutator.View(ctx, project)
	if err != nil {
		return err
	}
	if len(bundle) == 0 {
		s.println("No secrets found.")
		return nil
	}
	for _, k := range bundle.Keys() {
		s.printf("%s = %s\n", k, bundle[k])
	}
	return nil
}

// prompt writes label and returns the next trimmed input line.
func (s *Shell) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		s.println("")
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
