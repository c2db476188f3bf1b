package ui

import (
	"fmt"
	"strings"

	"tasksync/internal/output"
	"tasksync/internal/store"
)

const helpLine = "j/k move • a add • space toggle • d delete • r reload • q quit"

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.title)
	b.WriteString("\n\n")

	switch {
	case m.snap.Loading && len(m.snap.Tasks) == 0:
		b.WriteString("Loading...\n")
	case len(m.snap.Tasks) == 0:
		b.WriteString("No tasks yet. Press 'a' to add one.\n")
	default:
		if m.snap.Loading {
			b.WriteString("Loading...\n")
		}
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("---\n")
	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(helpLine)
	return b.String()
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.snap.Tasks {
		cursor := " "
		if i == m.cursor && m.mode == modeList {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s %s %s%s\n", cursor, output.Checkbox(t.IsCompleted), output.NormalizeText(t.Task), marker(m.snap.TaskStatus(t.ID)))
	}
	return b.String()
}

func marker(s store.Status) string {
	switch s {
	case store.StatusPending:
		return "  (saving)"
	case store.StatusFailed:
		return "  (failed)"
	}
	return ""
}
