// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"tasksync/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, out of range reference).
	UserError = 1

	// AuthError indicates an auth/config error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// ForBackend returns the exit code for a failed backend call.
func ForBackend(err error) int {
	if errors.Is(err, service.ErrUnauthorized) {
		return AuthError
	}
	return BackendError
}
