package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned by Add when the text is empty or only whitespace.
	// No backend call is made and no state changes.
	ErrEmptyText = errors.New("task text required")

	// ErrUnknownTask is returned by Toggle when the id is not in the local list.
	ErrUnknownTask = errors.New("task not in local list")
)

// OpError wraps the failure of one controller operation.
type OpError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *OpError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.TaskID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
