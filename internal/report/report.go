// Package report carries controller failures to a diagnostic channel.
package report

import (
	"context"
	"log/slog"
	"time"
)

// Failure describes one failed controller operation.
type Failure struct {
	Op     string
	TaskID string
	Err    error
	At     time.Time
}

// Reporter receives failures. Implementations must not block for long;
// Report is called on the goroutine that ran the operation.
type Reporter interface {
	Report(ctx context.Context, f Failure)
}

// LogReporter writes failures as structured log records.
type LogReporter struct {
	Logger *slog.Logger
}

// NewLogReporter returns a reporter logging through l, or slog.Default when l is nil.
func NewLogReporter(l *slog.Logger) *LogReporter {
	if l == nil {
		l = slog.Default()
	}
	return &LogReporter{Logger: l}
}

func (r *LogReporter) Report(ctx context.Context, f Failure) {
	attrs := []any{slog.String("op", f.Op)}
	if f.TaskID != "" {
		attrs = append(attrs, slog.String("task_id", f.TaskID))
	}
	if f.Err != nil {
		attrs = append(attrs, slog.String("error", f.Err.Error()))
	}
	r.Logger.ErrorContext(ctx, "task operation failed", attrs...)
}

// Multi fans a failure out to every reporter in order.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, f Failure) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, f)
		}
	}
}

// Nop discards failures.
type Nop struct{}

func (Nop) Report(context.Context, Failure) {}

// Func adapts a plain function to Reporter.
type Func func(ctx context.Context, f Failure)

func (fn Func) Report(ctx context.Context, f Failure) { fn(ctx, f) }
