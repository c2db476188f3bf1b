package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"tasksync/internal/service"
)

func TestForBackend(t *testing.T) {
	if got := ForBackend(fmt.Errorf("load: %w", service.ErrUnauthorized)); got != AuthError {
		t.Errorf("expected %d for unauthorized, got %d", AuthError, got)
	}
	if got := ForBackend(errors.New("connection refused")); got != BackendError {
		t.Errorf("expected %d for other failures, got %d", BackendError, got)
	}
}
