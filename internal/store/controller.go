package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"tasksync/internal/report"
	"tasksync/internal/service"
)

// Operation names used in errors and failure reports.
const (
	OpLoad   = "load"
	OpAdd    = "add"
	OpToggle = "toggle"
	OpDelete = "delete"
)

// Controller owns the local task list and keeps it in step with a Backend.
type Controller struct {
	backend  service.Backend
	reporter report.Reporter
	now      func() time.Time

	mu         sync.Mutex
	tasks      []service.Task
	loading    bool
	draft      string
	addStatus  Status
	addPending int
	status     map[string]Status

	listenerMu sync.Mutex
	listeners  map[int]func(Snapshot)
	nextID     int
}

// Option configures a Controller.
type Option func(*Controller)

// WithReporter sets where failures are reported. Defaults to a log reporter.
func WithReporter(r report.Reporter) Option {
	return func(c *Controller) { c.reporter = r }
}

// WithClock overrides the clock used to stamp failures.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a Controller with an empty list.
func New(backend service.Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		reporter:  report.NewLogReporter(nil),
		now:       time.Now,
		tasks:     []service.Task{},
		status:    make(map[string]Status),
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	tasks := make([]service.Task, len(c.tasks))
	copy(tasks, c.tasks)
	// Every listed task has an entry; settled tasks are idle.
	status := make(map[string]Status, len(c.tasks))
	for _, t := range c.tasks {
		status[t.ID] = c.status[t.ID]
	}
	return Snapshot{
		Tasks:   tasks,
		Loading: c.loading,
		Draft:   c.draft,
		Add:     c.addStatus,
		Status:  status,
	}
}

// Subscribe registers fn to be called with a fresh snapshot after every state change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.listenerMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenerMu.Unlock()

	return func() {
		c.listenerMu.Lock()
		delete(c.listeners, id)
		c.listenerMu.Unlock()
	}
}

// update applies fn to the state under the lock and then notifies listeners.
func (c *Controller) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.listenerMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, l := range c.listeners {
		fns = append(fns, l)
	}
	c.listenerMu.Unlock()

	for _, l := range fns {
		l(snap)
	}
}

func (c *Controller) fail(ctx context.Context, op, id string, err error) error {
	c.reporter.Report(ctx, report.Failure{Op: op, TaskID: id, Err: err, At: c.now()})
	return &OpError{Op: op, TaskID: id, Err: err}
}

// SetDraft stores the text of the not yet submitted task.
func (c *Controller) SetDraft(text string) {
	c.update(func() { c.draft = text })
}

// Load replaces the local list with the backend's full list.
// On failure the previous list is kept. Loading is cleared either way.
func (c *Controller) Load(ctx context.Context) error {
	c.update(func() { c.loading = true })
	defer c.update(func() { c.loading = false })

	tasks, err := c.backend.List(ctx)
	if err != nil {
		return c.fail(ctx, OpLoad, "", err)
	}

	c.update(func() {
		c.tasks = append(make([]service.Task, 0, len(tasks)), tasks...)
		for id := range c.status {
			if indexOf(tasks, id) < 0 {
				delete(c.status, id)
			}
		}
	})
	return nil
}

// Add creates a task with text and prepends the backend's record.
// Text that is empty or only whitespace is rejected with ErrEmptyText before
// any backend call. The stored text is not trimmed. On success the draft is cleared;
// on failure the list and the draft are left as they were.
func (c *Controller) Add(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	c.update(func() {
		c.addPending++
		c.addStatus = StatusPending
	})

	created, err := c.backend.Create(ctx, text)
	if err != nil {
		c.update(func() {
			c.addPending--
			c.addStatus = StatusFailed
		})
		return c.fail(ctx, OpAdd, "", err)
	}

	c.update(func() {
		// A Load that finished in between may already hold the record.
		rest := removeID(c.tasks, created.ID)
		tasks := make([]service.Task, 0, len(rest)+1)
		tasks = append(tasks, created)
		c.tasks = append(tasks, rest...)
		c.draft = ""
		c.addPending--
		if c.addPending > 0 {
			c.addStatus = StatusPending
		} else {
			c.addStatus = StatusIdle
		}
	})
	return nil
}

// Submit adds the current draft text.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()
	return c.Add(ctx, draft)
}

// Toggle flips the completion flag of the task with id.
// The current value is read from the local list right before the backend call.
// On success the task is set to the value that was sent, so repeated calls
// never flip the local copy away from what the backend was told.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	var (
		target bool
		found  bool
	)
	c.update(func() {
		i := indexOf(c.tasks, id)
		if i < 0 {
			return
		}
		found = true
		target = !c.tasks[i].IsCompleted
		c.status[id] = StatusPending
	})
	if !found {
		return c.fail(ctx, OpToggle, id, ErrUnknownTask)
	}
	return c.setCompleted(ctx, id, target)
}

// ToggleFrom sends !current for the task with id, trusting the caller's view
// of the current value. Prefer Toggle, which reads the value itself.
func (c *Controller) ToggleFrom(ctx context.Context, id string, current bool) error {
	c.update(func() { c.markLocked(id, StatusPending) })
	return c.setCompleted(ctx, id, !current)
}

func (c *Controller) setCompleted(ctx context.Context, id string, target bool) error {
	if err := c.backend.Update(ctx, id, target); err != nil {
		c.update(func() { c.markLocked(id, StatusFailed) })
		return c.fail(ctx, OpToggle, id, err)
	}

	c.update(func() {
		if i := indexOf(c.tasks, id); i >= 0 {
			c.tasks[i].IsCompleted = target
		}
		delete(c.status, id)
	})
	return nil
}

// Delete removes the task with id from the backend and then from the local list.
// An id that is not in the local list leaves the list unchanged.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.update(func() { c.markLocked(id, StatusPending) })

	if err := c.backend.Delete(ctx, id); err != nil {
		c.update(func() { c.markLocked(id, StatusFailed) })
		return c.fail(ctx, OpDelete, id, err)
	}

	c.update(func() {
		c.tasks = removeID(c.tasks, id)
		delete(c.status, id)
	})
	return nil
}

// markLocked records s for id if the task is in the local list.
func (c *Controller) markLocked(id string, s Status) {
	if indexOf(c.tasks, id) >= 0 {
		c.status[id] = s
	}
}

func indexOf(tasks []service.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// removeID returns tasks without the entry for id, in a new slice.
func removeID(tasks []service.Task, id string) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}
