package task

import "strings"

// SubtaskMarker starts a description line that should become a subtask.
const SubtaskMarker = "* "

// SplitTitles splits a comma separated title list, dropping blank entries.
func SplitTitles(s string) []string {
	var titles []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// ExtractSubtasks pulls marker-prefixed lines out of a description.
// Each such line becomes a subtask title in order of appearance; the other
// lines are rejoined and trimmed into the cleaned description, which is nil
// when nothing is left.
func ExtractSubtasks(description string) (*string, []string) {
	if description == "" {
		return nil, nil
	}

	var subtasks, rest []string
	for _, line := range strings.Split(description, "\n") {
		trimmed := strings.TrimLeft(line, " \t\r")
		if strings.HasPrefix(trimmed, SubtaskMarker) {
			subtasks = append(subtasks, strings.TrimSpace(trimmed[len(SubtaskMarker):]))
			continue
		}
		rest = append(rest, line)
	}

	cleaned := strings.TrimSpace(strings.Join(rest, "\n"))
	if cleaned == "" {
		return nil, subtasks
	}
	return &cleaned, subtasks
}
