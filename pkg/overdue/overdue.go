// Package overdue finds tasks whose end date has passed while they are still
// unfinished.
package overdue

import "github.com/harrisonrobin/gantta/pkg/model"

// IsOverdue reports whether t ended before today and is not done.
func IsOverdue(t model.Task, today model.Date) bool {
	if t.End.IsZero() || t.Done() {
		return false
	}
	return t.End.Before(today)
}

// Sweep returns the overdue tasks in collection order.
func Sweep(tasks []model.Task, today model.Date) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if IsOverdue(t, today) {
			out = append(out, t)
		}
	}
	return out
}
