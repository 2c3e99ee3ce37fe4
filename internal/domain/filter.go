package domain

import "strings"

// Matches reports whether the task's description or client contains query,
// ignoring case. An empty query matches everything.
func (t *Task) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Description), q) ||
		strings.Contains(strings.ToLower(t.Client), q)
}

// FilterTasks returns the tasks matching query, preserving order.
// The input slice is never modified.
func FilterTasks(tasks []*Task, query string) []*Task {
	if query == "" {
		out := make([]*Task, len(tasks))
		copy(out, tasks)
		return out
	}
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Matches(query) {
			out = append(out, t)
		}
	}
	return out
}
