// Package tasks owns the task collection: a pure reducer plus the Manager
// that applies it and persists the result.
package tasks

import "github.com/harrisonrobin/gantta/pkg/model"

type ActionKind string

const (
	KindCreate ActionKind = "create"
	KindEdit   ActionKind = "edit"
	KindDelete ActionKind = "delete"
)

// Action is a state transition request.
type Action interface {
	Kind() ActionKind
}

// CreateTask appends Task.
type CreateTask struct{ Task model.Task }

// EditTask replaces every task with the same ID.
type EditTask struct{ Task model.Task }

// DeleteTask removes every task with ID.
type DeleteTask struct{ ID string }

func (CreateTask) Kind() ActionKind { return KindCreate }
func (EditTask) Kind() ActionKind   { return KindEdit }
func (DeleteTask) Kind() ActionKind { return KindDelete }

// Reduce returns the collection that results from applying action to current.
// current is never modified. Unknown actions return current unchanged.
func Reduce(current []model.Task, action Action) []model.Task {
	switch a := action.(type) {
	case CreateTask:
		next := make([]model.Task, 0, len(current)+1)
		next = append(next, current...)
		return append(next, a.Task)

	case EditTask:
		if !contains(current, a.Task.ID) {
			return current
		}
		next := make([]model.Task, len(current))
		for i, t := range current {
			if t.ID == a.Task.ID {
				next[i] = a.Task
			} else {
				next[i] = t
			}
		}
		return next

	case DeleteTask:
		if !contains(current, a.ID) {
			return current
		}
		next := make([]model.Task, 0, len(current))
		for _, t := range current {
			if t.ID != a.ID {
				next = append(next, t)
			}
		}
		return next

	default:
		return current
	}
}

func contains(tasks []model.Task, id string) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
