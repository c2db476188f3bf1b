package commands

import (
	"context"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

// taskAt returns the task shown at 1-based position n by the list command.
func taskAt(snap store.Snapshot, n int) (service.Task, error) {
	if n < 1 || n > len(snap.Tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", n)
	}
	return snap.Tasks[n-1], nil
}

// runOnTask loads the list, resolves the task number in args and applies op
// to that task. It is shared by toggle and rm.
func runOnTask(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer,
	op func(ctx context.Context, c *store.Controller, task service.Task) error) int {
	n, err := ParseTaskNumber(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	ctrl, done, code := loadController(ctx, cfg, backend, errOut)
	if code != exitcode.Success {
		return code
	}
	defer done()

	task, err := taskAt(ctrl.Snapshot(), n)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := op(ctx, ctrl, task); err != nil {
		return backendFailure(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
