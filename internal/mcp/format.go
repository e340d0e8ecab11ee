package mcp

import (
	"fmt"
	"strings"

	"gorevlerim/pkg/task"
)

var statusEmoji = map[task.Status]string{
	task.StatusPending:   "⏳",
	task.StatusCompleted: "✅",
	task.StatusBlocked:   "🚫",
	task.StatusPostponed: "📅",
}

func emoji(s task.Status) string {
	if e, ok := statusEmoji[s]; ok {
		return e
	}
	return "❓"
}

// formatList renders a day as numbered lines:
//
//	1. ⏳ Title [1/3 subtasks] (Reason: waiting)
func formatList(date string, tasks []task.Task) string {
	if len(tasks) == 0 {
		return fmt.Sprintf("No tasks on %s.", date)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📋 Tasks for %s:\n", date)
	for i := range tasks {
		t := &tasks[i]
		fmt.Fprintf(&b, "\n%d. %s %s", i+1, emoji(t.Status), t.Title)
		if len(t.Subtasks) > 0 {
			fmt.Fprintf(&b, " [%d/%d subtasks]", t.CompletedSubtasks(), len(t.Subtasks))
		}
		if t.Status == task.StatusBlocked && t.BlockReason != nil && *t.BlockReason != "" {
			fmt.Fprintf(&b, " (Reason: %s)", *t.BlockReason)
		}
	}
	return b.String()
}

func formatCreated(date string, created []task.Task) string {
	lines := make([]string, len(created))
	for i, t := range created {
		lines[i] = fmt.Sprintf("✅ %q added", t.Title)
	}
	return fmt.Sprintf("Added to %s:\n\n%s", date, strings.Join(lines, "\n"))
}
