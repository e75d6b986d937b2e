// Package taskwarrior reads Taskwarrior's JSON export so pending and
// completed tasks can be imported as Gantt bars.
package taskwarrior

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/gantta/pkg/model"
)

const (
	PENDING   = "pending"
	COMPLETED = "completed"
	WAITING   = "waiting"
	DELETED   = "deleted"
	RECURRING = "recurring"
)

type CustomTime struct {
	time.Time
}

const taskwarriorTimeLayout = "20060102T150405Z" // YYYYMMDDTHHMMSSZ, 'Z' indicates UTC

// UnmarshalJSON implements the json.Unmarshaler interface for CustomTime.
func (ct *CustomTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "0" {
		ct.Time = time.Time{}
		return nil
	}

	t, err := time.Parse(taskwarriorTimeLayout, s)
	if err != nil {
		return fmt.Errorf("failed to parse Taskwarrior time string '%s': %w", s, err)
	}
	ct.Time = t
	return nil
}

// MarshalJSON implements the json.Marshaler interface for CustomTime.
func (ct CustomTime) MarshalJSON() ([]byte, error) {
	if ct.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ct.Time.Format(taskwarriorTimeLayout) + `"`), nil
}

// date is the local calendar day of ct, zero for a nil or zero time.
func (ct *CustomTime) date() model.Date {
	if ct == nil || ct.IsZero() {
		return model.Date{}
	}
	return model.DateOf(ct.In(time.Local))
}

// Task is the subset of a Taskwarrior export record gantta reads.
type Task struct {
	UUID        string      `json:"uuid"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Project     string      `json:"project,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Entry       *CustomTime `json:"entry,omitempty"`
	Scheduled   *CustomTime `json:"scheduled,omitempty"`
	Due         *CustomTime `json:"due,omitempty"`
	// End is when the task was completed or deleted.
	End *CustomTime `json:"end,omitempty"`
}

// ToModel turns t into a Gantt task. The bar runs from scheduled (or entry)
// to due (or completion); a single known date gives a one-day bar. ok is
// false for deleted and recurring-template tasks and for tasks with no dates.
func (t Task) ToModel() (task model.Task, ok bool) {
	if t.Status == DELETED || t.Status == RECURRING {
		return model.Task{}, false
	}

	start := t.Scheduled.date()
	if start.IsZero() {
		start = t.Entry.date()
	}
	end := t.Due.date()
	if end.IsZero() {
		end = t.End.date()
	}
	switch {
	case start.IsZero() && end.IsZero():
		return model.Task{}, false
	case start.IsZero():
		start = end
	case end.IsZero():
		end = start
	}
	if end.Before(start) {
		start = end
	}

	name := strings.TrimSpace(t.Description)
	if t.Project != "" {
		name = t.Project + ": " + name
	}
	progress := 0
	if t.Status == COMPLETED {
		progress = 100
	}
	return model.Task{
		ID:       t.UUID,
		Name:     name,
		Start:    start,
		End:      end,
		Progress: progress,
	}, true
}

// Convert maps tasks through ToModel, dropping the ones it rejects.
func Convert(tasks []Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if m, ok := t.ToModel(); ok {
			out = append(out, m)
		}
	}
	return out
}
