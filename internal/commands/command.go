// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage line for help output.
	Usage() string

	// NeedsBackend reports whether the command talks to the task backend.
	// help, version, login and logout do not.
	NeedsBackend() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command and returns its exit code.
	// backend is nil when NeedsBackend returns false.
	Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int
}
