package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

func googleConfig(dir string) *config.Config {
	return &config.Config{
		Dir:      dir,
		Settings: config.Settings{Backend: config.BackendGoogleTasks},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cmd := &commands.LoginCmd{}
	dir := t.TempDir()

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleConfig(dir), nil, nil, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout, got %q", outBuf.String())
	}
	if !strings.HasPrefix(errBuf.String(), "error: oauth_client.json not found in "+dir) {
		t.Errorf("expected missing client message, got %q", errBuf.String())
	}
}

func TestLoginCommand_OtherBackend(t *testing.T) {
	cmd := &commands.LoginCmd{}
	cfg := &config.Config{
		Dir:      t.TempDir(),
		Settings: config.Settings{Backend: config.BackendPostgREST},
	}

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if errBuf.String() != "error: login is not needed for the postgrest backend\n" {
		t.Errorf("unexpected stderr %q", errBuf.String())
	}
}

// An access token without a refresh token cannot be renewed, so login
// must start a new flow instead of reporting success.
func TestLoginCommand_NoRefreshToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	dir := t.TempDir()
	writeFile(t, dir, config.OAuthClientFile, testOAuthClient)
	writeFile(t, dir, config.TokenFile, `{"access_token":"test","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`)

	// Cancelled so the flow returns instead of waiting for the browser.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(ctx, googleConfig(dir), nil, nil, &outBuf, &errBuf)

	if outBuf.String() == "already logged in\n" {
		t.Error("should not say 'already logged in' with token missing refresh_token")
	}
	if code == exitcode.Success {
		t.Error("expected failure when the flow is cancelled")
	}
}

func TestLoginCommand_CorruptToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	dir := t.TempDir()
	writeFile(t, dir, config.OAuthClientFile, testOAuthClient)
	writeFile(t, dir, config.TokenFile, `not json`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var outBuf, errBuf bytes.Buffer
	_ = cmd.Run(ctx, googleConfig(dir), nil, nil, &outBuf, &errBuf)

	if outBuf.String() == "already logged in\n" {
		t.Error("should not say 'already logged in' with a corrupt token")
	}
}

func TestLogoutCommand_OnlyRemovesToken(t *testing.T) {
	cmd := &commands.LogoutCmd{}
	dir := t.TempDir()
	oauthPath := writeFile(t, dir, config.OAuthClientFile, testOAuthClient)
	tokenPath := writeFile(t, dir, config.TokenFile, `{"access_token":"test","refresh_token":"test"}`)

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleConfig(dir), nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if errBuf.String() != "" {
		t.Errorf("expected no stderr, got %q", errBuf.String())
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected 'ok\\n', got %q", outBuf.String())
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(oauthPath); err != nil {
		t.Error("oauth_client.json should NOT have been deleted")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), googleConfig(t.TempDir()), nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "not logged in\n" {
		t.Errorf("expected 'not logged in\\n', got %q", outBuf.String())
	}
}

func TestLogoutCommand_NotLoggedInQuiet(t *testing.T) {
	cmd := &commands.LogoutCmd{}
	cfg := googleConfig(t.TempDir())
	cfg.Quiet = true

	var outBuf, errBuf bytes.Buffer
	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "" || errBuf.String() != "" {
		t.Errorf("expected no output in quiet mode, got %q / %q", outBuf.String(), errBuf.String())
	}
}
