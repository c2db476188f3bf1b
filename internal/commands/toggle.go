package commands

import (
	"context"
	"flag"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd flips the completion state of the task at a list position.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Mark a task done, or open again" }
func (c *ToggleCmd) Usage() string      { return "tasksync toggle <n>" }
func (c *ToggleCmd) NeedsBackend() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	return runOnTask(ctx, cfg, backend, args, out, errOut, func(ctx context.Context, ctrl *store.Controller, task service.Task) error {
		return ctrl.Toggle(ctx, task.ID)
	})
}
