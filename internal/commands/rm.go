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
	Register(&RmCmd{})
}

// RmCmd deletes the task at a list position.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "tasksync rm <n>" }
func (c *RmCmd) NeedsBackend() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	return runOnTask(ctx, cfg, backend, args, out, errOut, func(ctx context.Context, ctrl *store.Controller, task service.Task) error {
		return ctrl.Delete(ctx, task.ID)
	})
}
