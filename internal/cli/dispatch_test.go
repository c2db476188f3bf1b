package cli_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasksync/internal/cli"
	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/testutil"
)

// testFactory returns a factory handing out backend and recording whether it was called.
func testFactory(backend service.Backend, called *bool) cli.BackendFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Backend, error) {
		if called != nil {
			*called = true
		}
		return backend, nil
	}
}

// run dispatches args against a temp config dir using the redis backend
// setting, which needs no credentials on disk.
func run(t *testing.T, factory cli.BackendFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("TASKSYNC_BACKEND", config.BackendRedis)

	var out, errOut bytes.Buffer
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)
	full := append([]string{}, args...)
	if len(full) > 0 {
		full = append(full[:1], append([]string{"--config", t.TempDir()}, full[1:]...)...)
	}
	code = dispatcher.Run(context.Background(), full, &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, nil, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommandSkipsBackend(t *testing.T) {
	called := false
	stdout, stderr, code := run(t, testFactory(testutil.NewFakeBackend(), &called), "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
	if called {
		t.Error("help must not open the backend")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, _, code := run(t, nil, "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "tasksync 0.1.0\n" {
		t.Errorf("expected 'tasksync 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagMissingValue(t *testing.T) {
	_, stderr, code := run(t, nil, "serve", "--addr")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -addr\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsRunsList(t *testing.T) {
	t.Setenv("TASKSYNC_BACKEND", config.BackendRedis)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	backend := testutil.NewFakeBackend()
	backend.Seed("a", "Buy milk", false, testutil.BaseTime)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(backend, nil))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "   1  [ ] Buy milk\n" {
		t.Errorf("unexpected list output %q", stdout.String())
	}
}

func TestDispatcher_AddThenListThroughBackend(t *testing.T) {
	backend := testutil.NewFakeBackend()
	factory := testFactory(backend, nil)

	stdout, stderr, code := run(t, factory, "add", "Write", "tests")
	if code != exitcode.Success || stdout != "ok\n" {
		t.Fatalf("add: code %d stdout %q stderr %q", code, stdout, stderr)
	}

	stdout, _, code = run(t, factory, "list")
	if code != exitcode.Success {
		t.Fatalf("list: code %d", code)
	}
	if stdout != "   1  [ ] Write tests\n" {
		t.Errorf("unexpected list output %q", stdout)
	}
}

func TestDispatcher_DoneAliasTogglesTask(t *testing.T) {
	backend := testutil.NewFakeBackend()
	backend.Seed("a", "Buy milk", false, testutil.BaseTime)

	_, stderr, code := run(t, testFactory(backend, nil), "done", "1")
	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%q)", code, stderr)
	}
	task, _ := backend.Get("a")
	if !task.IsCompleted {
		t.Error("expected task completed")
	}
}

func TestDispatcher_FactoryErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"unauthorized", fmt.Errorf("token expired: %w", service.ErrUnauthorized), exitcode.AuthError, "error: auth error: "},
		{"other", errors.New("connection refused"), exitcode.BackendError, "error: backend error: connection refused\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := func(ctx context.Context, cfg *config.Config) (service.Backend, error) {
				return nil, tt.err
			}
			_, stderr, code := run(t, factory, "list")
			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.HasPrefix(stderr, tt.wantErr) {
				t.Errorf("expected stderr starting %q, got %q", tt.wantErr, stderr)
			}
		})
	}
}

func TestDispatcher_GoogleTasksNeedsOAuthClient(t *testing.T) {
	t.Setenv("TASKSYNC_BACKEND", config.BackendGoogleTasks)
	dir := t.TempDir()
	called := false
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeBackend(), &called))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list", "--config", dir}, &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := fmt.Sprintf("error: oauth_client.json not found in %s\n", dir)
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
	if called {
		t.Error("factory must not run without credentials")
	}
}

func TestDispatcher_GoogleTasksNeedsLogin(t *testing.T) {
	t.Setenv("TASKSYNC_BACKEND", config.BackendGoogleTasks)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.OAuthClientFile), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeBackend(), nil))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list", "--config", dir}, &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr.String() != "error: not logged in (run: tasksync login)\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}

func TestDispatcher_InvalidSettingsFailBackendCommands(t *testing.T) {
	t.Setenv("TASKSYNC_BACKEND", "carrier-pigeon")
	called := false

	var stdout, stderr bytes.Buffer
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeBackend(), &called))
	code := dispatcher.Run(context.Background(), []string{"list", "--config", t.TempDir()}, &stdout, &stderr)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr.String() != "error: unknown backend: carrier-pigeon\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
	if called {
		t.Error("factory must not run with invalid settings")
	}
}

func TestDispatcher_InvalidSettingsKeepHelpAndVersionUsable(t *testing.T) {
	t.Setenv("TASKSYNC_BACKEND", config.BackendPostgres)
	t.Setenv("TASKSYNC_SQL_DSN", "")

	for _, name := range []string{"help", "version"} {
		var stdout, stderr bytes.Buffer
		dispatcher := cli.NewDispatcher(commands.DefaultRegistry, nil)
		code := dispatcher.Run(context.Background(), []string{name, "--config", t.TempDir()}, &stdout, &stderr)

		if code != exitcode.Success {
			t.Errorf("%s: expected exit code %d, got %d (stderr %q)", name, exitcode.Success, code, stderr.String())
		}
		if stdout.Len() == 0 {
			t.Errorf("%s: expected output", name)
		}
	}
}
