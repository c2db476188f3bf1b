// Package ui is an interactive terminal front end over a store.Controller.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasksync/internal/output"
	"tasksync/internal/service"
	"tasksync/internal/store"
)

type mode int

const (
	modeList mode = iota
	modeAdd
)

// changedMsg signals that the controller state changed.
type changedMsg struct{}

// opDoneMsg carries the result of one controller operation.
type opDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model. Controller operations run as commands, so
// several may be in flight at once.
type Model struct {
	ctx     context.Context
	ctrl    *store.Controller
	title   string
	changes chan struct{}
	unsub   func()

	snap       store.Snapshot
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *service.Task
}

// New returns a model that starts by loading the list. Call Close when done.
func New(ctx context.Context, ctrl *store.Controller, title string) Model {
	ti := textinput.New()
	ti.Placeholder = "New task"
	ti.CharLimit = 256
	ti.Width = 40

	changes := make(chan struct{}, 1)
	unsub := ctrl.Subscribe(func(store.Snapshot) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	snap := ctrl.Snapshot()
	// Load is issued by Init; show the placeholder from the first frame.
	snap.Loading = true

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		title:   title,
		changes: changes,
		unsub:   unsub,
		snap:    snap,
		input:   ti,
		status:  "Press 'a' to add, space to toggle, 'd' to delete.",
	}
}

// Close stops listening to the controller.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, ctrl *store.Controller, title string) error {
	m := New(ctx, ctrl, title)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.run(store.OpLoad, m.ctrl.Load))
}

func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.changes:
			return changedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(m.ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.refresh()
		return m, m.waitForChange()
	case opDoneMsg:
		m.refresh()
		m.status = describe(msg)
		if msg.op == store.OpAdd && msg.err == nil {
			m.input.SetValue(m.snap.Draft)
			m.cursor = 0
		}
		return m, nil
	case tea.KeyMsg:
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		if m.mode == modeAdd {
			return m.updateAddMode(msg)
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		if msg.Width > 10 {
			m.input.Width = msg.Width - 10
		}
	}
	return m, nil
}

func (m *Model) refresh() {
	m.snap = m.ctrl.Snapshot()
	m.cursor = clampCursor(m.cursor, len(m.snap.Tasks))
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		m.mode = modeList
		m.input.Blur()
		if strings.TrimSpace(m.input.Value()) == "" {
			m.status = "Task text cannot be empty"
			return m, nil
		}
		m.status = "Adding..."
		return m, m.run(store.OpAdd, m.ctrl.Submit)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.ctrl.SetDraft(m.input.Value())
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "j", "down":
		m.cursor = clampCursor(m.cursor+1, len(m.snap.Tasks))
	case "k", "up":
		m.cursor = clampCursor(m.cursor-1, len(m.snap.Tasks))
	case "a":
		m.mode = modeAdd
		m.status = "Add mode: type the task and press Enter"
		cmd := m.input.Focus()
		return m, cmd
	case "r":
		m.status = "Reloading..."
		return m, m.run(store.OpLoad, m.ctrl.Load)
	case " ":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, m.run(store.OpToggle, func(ctx context.Context) error {
			return m.ctrl.Toggle(ctx, task.ID)
		})
	case "d":
		task, ok := m.current()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &task
		m.status = fmt.Sprintf("Delete %q? y/n", output.NormalizeText(task.Task))
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		task := m.pendingDel
		m.confirmDel = false
		m.pendingDel = nil
		if task == nil {
			return m, nil
		}
		m.status = "Deleting..."
		return m, m.run(store.OpDelete, func(ctx context.Context) error {
			return m.ctrl.Delete(ctx, task.ID)
		})
	case "n", "N", "esc":
		m.confirmDel = false
		m.pendingDel = nil
		m.status = "Delete cancelled"
	}
	return m, nil
}

func (m Model) current() (service.Task, bool) {
	if len(m.snap.Tasks) == 0 {
		return service.Task{}, false
	}
	return m.snap.Tasks[clampCursor(m.cursor, len(m.snap.Tasks))], true
}

func describe(msg opDoneMsg) string {
	if msg.err != nil {
		err := msg.err
		var opErr *store.OpError
		if errors.As(err, &opErr) {
			err = opErr.Err
		}
		return fmt.Sprintf("%s failed: %v", msg.op, err)
	}
	switch msg.op {
	case store.OpLoad:
		return "Loaded"
	case store.OpAdd:
		return "Added task"
	case store.OpToggle:
		return "Toggled task"
	case store.OpDelete:
		return "Deleted task"
	}
	return ""
}

func clampCursor(cur, n int) int {
	if n <= 0 || cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
