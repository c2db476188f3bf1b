package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&HelpCmd{registry: DefaultRegistry})
}

// HelpCmd prints usage for every registered command.
type HelpCmd struct {
	registry *Registry
}

// NewHelpCmd returns a help command listing the commands in r.
func NewHelpCmd(r *Registry) *HelpCmd {
	return &HelpCmd{registry: r}
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "tasksync help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, c.text())
	return exitcode.Success
}

func (c *HelpCmd) text() string {
	var b strings.Builder
	b.WriteString("Usage:\n")
	fmt.Fprintf(&b, "  %-32s %s\n", "tasksync", "List tasks (same as list)")
	if c.registry != nil {
		for _, cmd := range c.registry.All() {
			synopsis := cmd.Synopsis()
			if aliases := cmd.Aliases(); len(aliases) > 0 {
				synopsis += " (alias: " + strings.Join(aliases, ", ") + ")"
			}
			fmt.Fprintf(&b, "  %-32s %s\n", cmd.Usage(), synopsis)
		}
	}
	b.WriteString(commonFlagsHelp)
	return b.String()
}

const commonFlagsHelp = `
Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs and failure reports to stderr

Settings are read from config.yaml in the config directory and from
TASKSYNC_* environment variables (for example TASKSYNC_BACKEND=redis).
`
