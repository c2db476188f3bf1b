// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"tasksync/internal/service"
)

// FakeBackend is an in-memory implementation of service.Backend for testing.
type FakeBackend struct {
	mu     sync.Mutex
	tasks  map[string]service.Task
	nextID int
	clock  time.Time

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// ListNil makes List return a nil slice, like a backend with no rows.
	ListNil bool

	// Hook, if set, runs at the start of every call with the operation name
	// ("list", "create", "update", "delete"). Tests use it to hold a call open.
	Hook func(op string)

	// Calls counts calls per operation name.
	Calls map[string]int

	// Updates records every Update call in order.
	Updates []Update
}

// Update is one recorded Update call.
type Update struct {
	ID          string
	IsCompleted bool
}

// BaseTime is the CreatedAt of the first task created by a new FakeBackend.
var BaseTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// NewFakeBackend creates an empty FakeBackend.
// IDs are assigned as "1", "2", ... and each new task is one minute newer than the last.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		tasks: make(map[string]service.Task),
		clock: BaseTime,
		Calls: make(map[string]int),
	}
}

// Seed adds a task directly, bypassing error injection and counters.
func (f *FakeBackend) Seed(id, text string, completed bool, createdAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[id] = service.Task{ID: id, Task: text, IsCompleted: completed, CreatedAt: createdAt}
}

// Get returns the stored task with id.
func (f *FakeBackend) Get(id string) (service.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Len returns the number of stored tasks.
func (f *FakeBackend) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

// CallCount returns how many times op was called.
func (f *FakeBackend) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *FakeBackend) enter(op string) {
	f.mu.Lock()
	f.Calls[op]++
	hook := f.Hook
	f.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

// List implements service.Backend.
func (f *FakeBackend) List(ctx context.Context) ([]service.Task, error) {
	f.enter("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListNil {
		return nil, nil
	}

	result := make([]service.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Create implements service.Backend.
func (f *FakeBackend) Create(ctx context.Context, text string) (service.Task, error) {
	f.enter("create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	t := service.Task{
		ID:          strconv.Itoa(f.nextID),
		Task:        text,
		IsCompleted: false,
		CreatedAt:   f.clock,
	}
	f.clock = f.clock.Add(time.Minute)
	f.tasks[t.ID] = t
	return t, nil
}

// Update implements service.Backend.
func (f *FakeBackend) Update(ctx context.Context, id string, isCompleted bool) error {
	f.enter("update")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Updates = append(f.Updates, Update{ID: id, IsCompleted: isCompleted})
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	t, ok := f.tasks[id]
	if !ok {
		return service.ErrNotFound
	}
	t.IsCompleted = isCompleted
	f.tasks[id] = t
	return nil
}

// Delete implements service.Backend.
func (f *FakeBackend) Delete(ctx context.Context, id string) error {
	f.enter("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[id]; !ok {
		return service.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}
