// Package service defines the backend-agnostic contract for the remote task store.
package service

import (
	"context"
	"errors"
)

// Backend is the remote record store that owns the task list.
// All remote calls go through this interface.
// The controller and commands never import a backend SDK directly.
type Backend interface {
	// List returns every task ordered by CreatedAt, newest first.
	// An empty store yields an empty, non-nil slice.
	List(ctx context.Context) ([]Task, error)

	// Create stores a new, not completed task with the given text.
	// Returns the record as stored, including the backend-assigned ID and CreatedAt.
	Create(ctx context.Context, text string) (Task, error)

	// Update sets the completion flag of the task with the given ID.
	Update(ctx context.Context, id string, isCompleted bool) error

	// Delete removes the task with the given ID.
	Delete(ctx context.Context, id string) error
}

// Errors a backend may classify its failures into.
// Callers match with errors.Is; unclassified failures are returned as-is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("token expired or revoked")
	ErrTimeout      = errors.New("request timed out")
)
