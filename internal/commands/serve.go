package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/httpui"
	"tasksync/internal/service"
)

func init() {
	Register(&ServeCmd{})
}

// ServeCmd serves the task list over local HTTP until interrupted.
type ServeCmd struct {
	addr string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the task list as a local JSON API" }
func (c *ServeCmd) Usage() string      { return "tasksync serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsBackend() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Settings.HTTP.Addr
	}

	// A long-running server always logs failed operations.
	ctrl, done := newController(cfg, backend, true)
	defer done()

	if err := ctrl.Load(ctx); err != nil {
		return backendFailure(errOut, err)
	}

	if err := httpui.New(ctrl, cfg.Log()).Run(ctx, addr); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
