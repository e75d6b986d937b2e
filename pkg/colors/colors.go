// Package colors maps task state to Google Calendar event color ids.
package colors

import (
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/overdue"
)

// Google Calendar event palette ids.
const (
	Lavender  = "1"
	Banana    = "5"
	Graphite  = "8"
	Basil     = "10"
	Tomato    = "11"
	Undefined = Lavender
)

// ColorID picks the event color for t. Completed wins over overdue.
func ColorID(t model.Task, today model.Date) string {
	switch {
	case !t.HasDates():
		return Undefined
	case t.Done():
		return Basil
	case overdue.IsOverdue(t, today):
		return Tomato
	case t.Progress > 0:
		return Banana
	case t.Progress == 0:
		return Graphite
	default:
		return Undefined
	}
}
