package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/report"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

// newController builds a controller over backend. Failures go to Kafka when
// brokers are configured, and to the logger under --debug or when logFailures
// is set. The returned function flushes and closes the reporters.
func newController(cfg *config.Config, backend service.Backend, logFailures bool) (*store.Controller, func()) {
	var reporters report.Multi
	closeFn := func() {}

	if cfg.Debug || logFailures {
		reporters = append(reporters, report.NewLogReporter(cfg.Log()))
	}
	if k := cfg.Settings.Kafka; len(k.Brokers) > 0 {
		kr := report.NewKafkaReporter(k.Brokers, k.Topic, cfg.Log())
		reporters = append(reporters, kr)
		closeFn = func() {
			if err := kr.Close(); err != nil {
				cfg.Log().Debug("close kafka reporter", "error", err)
			}
		}
	}

	var r report.Reporter = report.Nop{}
	if len(reporters) > 0 {
		r = reporters
	}
	return store.New(backend, store.WithReporter(r)), closeFn
}

// backendFailure prints err the way every command reports a failed
// backend call and returns the matching exit code.
func backendFailure(errOut io.Writer, err error) int {
	code := exitcode.ForBackend(err)
	if code == exitcode.AuthError {
		fmt.Fprintf(errOut, "error: auth error: %v\n", cause(err))
		return code
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", cause(err))
	return code
}

// cause strips the controller's operation prefix so messages read like the
// backend's own error.
func cause(err error) error {
	var opErr *store.OpError
	if errors.As(err, &opErr) {
		return opErr.Err
	}
	return err
}

// loadController builds a controller and runs the initial Load. On failure
// it has already printed the error; the exit code is non-zero.
func loadController(ctx context.Context, cfg *config.Config, backend service.Backend, errOut io.Writer) (*store.Controller, func(), int) {
	c, closeFn := newController(cfg, backend, false)
	if err := c.Load(ctx); err != nil {
		closeFn()
		return nil, nil, backendFailure(errOut, err)
	}
	return c, closeFn, exitcode.Success
}
