package store

import "tasksync/internal/service"

// Status is the state of the latest operation on one task, or on the add slot.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of controller state.
// It is safe to keep and read after the controller changes.
type Snapshot struct {
	Tasks   []service.Task    `json:"tasks"`
	Loading bool              `json:"loading"`
	Draft   string            `json:"draft"`
	Add     Status            `json:"add_status"`
	// Status has one entry per task in Tasks.
	Status map[string]Status `json:"status"`
}

// TaskStatus returns the status of the task with the given id.
func (s Snapshot) TaskStatus(id string) Status {
	return s.Status[id]
}

// Find returns the task with the given id.
func (s Snapshot) Find(id string) (service.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
