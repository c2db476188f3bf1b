// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasksync/internal/service"
)

// Checkbox returns "[x]" for a completed task and "[ ]" otherwise.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// FormatTask formats one task line.
// Format: "{N:>4}  {BOX} {TEXT}\n" (4-wide right-aligned number, two spaces, checkbox, text)
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(task.IsCompleted), NormalizeText(task.Task))
}

// FormatTasks formats tasks numbered from 1 in list order.
func FormatTasks(w io.Writer, tasks []service.Task) {
	for i, t := range tasks {
		FormatTask(w, i+1, t)
	}
}

// NormalizeText normalizes task text for single-line display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
