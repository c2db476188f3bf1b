package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd prints the task list, newest first.
type ListCmd struct {
	pending bool
}

// SetPending restricts output to open tasks (for testing).
func (c *ListCmd) SetPending(pending bool) {
	c.pending = pending
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks, newest first" }
func (c *ListCmd) Usage() string      { return "tasksync list [--pending]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.pending, "pending", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	ctrl, done, code := loadController(ctx, cfg, backend, errOut)
	if code != exitcode.Success {
		return code
	}
	defer done()

	tasks := ctrl.Snapshot().Tasks
	shown := len(tasks)
	if c.pending {
		shown = 0
		for i, t := range tasks {
			if t.IsCompleted {
				continue
			}
			// Numbers always match the position in the full list so that
			// toggle and rm resolve the same task.
			output.FormatTask(out, i+1, t)
			shown++
		}
	} else {
		output.FormatTasks(out, tasks)
	}

	if shown == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
