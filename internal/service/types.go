package service

import "time"

// Task is a single to-do record.
type Task struct {
	ID          string    `json:"id"`
	Task        string    `json:"task"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
}
