package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/output"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd creates a task from its joined arguments.
type AddCmd struct{}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "tasksync add <text...>" }
func (c *AddCmd) NeedsBackend() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(errOut, "error: task text required")
		return exitcode.UserError
	}

	ctrl, done := newController(cfg, backend, false)
	defer done()

	if err := ctrl.Add(ctx, text); err != nil {
		if errors.Is(err, store.ErrEmptyText) {
			fmt.Fprintln(errOut, "error: task text required")
			return exitcode.UserError
		}
		return backendFailure(errOut, err)
	}

	if tasks := ctrl.Snapshot().Tasks; len(tasks) > 0 {
		cfg.Log().Debug("task created", "id", tasks[0].ID, "text", output.NormalizeText(tasks[0].Task))
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
