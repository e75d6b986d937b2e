package google

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/gantta/pkg/colors"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/overdue"
	"github.com/harrisonrobin/gantta/pkg/timeline"
)

// TaskIDProperty is the private extended property that links an event back
// to its task.
const TaskIDProperty = "gantta_task_id"

const (
	prefixDone       = "✓"
	prefixOverdue    = "!"
	prefixInProgress = "‣"
)

var ErrNoDates = errors.New("task has no start or end date")

// ConvertTaskToEvent builds the all-day event for t. Google treats the end
// date of an all-day event as exclusive, so it is set one day after t.End.
func ConvertTaskToEvent(t model.Task, today model.Date) (*calendar.Event, error) {
	if !t.HasDates() {
		return nil, fmt.Errorf("%w: %s", ErrNoDates, t.ID)
	}

	summary := t.Name
	if prefix := summaryPrefix(t, today); prefix != "" {
		summary = prefix + " " + t.Name
	}

	end := t.End
	if end.Before(t.Start) {
		end = t.Start
	}

	return &calendar.Event{
		Summary:     summary,
		Description: describe(t, today),
		ColorId:     colors.ColorID(t, today),
		Start:       &calendar.EventDateTime{Date: t.Start.String()},
		End:         &calendar.EventDateTime{Date: end.AddDays(1).String()},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: t.ID},
		},
	}, nil
}

func summaryPrefix(t model.Task, today model.Date) string {
	switch {
	case t.Done():
		return prefixDone
	case overdue.IsOverdue(t, today):
		return prefixOverdue
	case t.Progress > 0:
		return prefixInProgress
	}
	return ""
}

func describe(t model.Task, today model.Date) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Progress: %d%%\n", t.Progress)
	fmt.Fprintf(&b, "Start: %s\n", t.Start)
	fmt.Fprintf(&b, "End: %s\n", t.End)
	fmt.Fprintf(&b, "Duration: %d days\n", timeline.Duration(t.Start, t.End))
	if overdue.IsOverdue(t, today) {
		fmt.Fprintf(&b, "Overdue by: %d days\n", timeline.Duration(t.End, today))
	}
	fmt.Fprintf(&b, "ID: %s\n", t.ID)
	return b.String()
}

// EventNeedsUpdate returns a patch with the fields of target that differ from
// existing, or nil when they already match.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if eventDate(existing.Start) != eventDate(target.Start) || eventDate(existing.End) != eventDate(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

// eventDate is the all-day date of d, or the date part of a timed event.
func eventDate(d *calendar.EventDateTime) string {
	if d == nil {
		return ""
	}
	if d.Date != "" {
		return d.Date
	}
	if len(d.DateTime) >= 10 {
		return d.DateTime[:10]
	}
	return d.DateTime
}

var descriptionID = regexp.MustCompile(`(?m)^ID: (\S+)$`)

// TaskIDFromEvent returns the task id an event was created for. Events that
// lost their extended properties still carry the id in the description.
func TaskIDFromEvent(e *calendar.Event) (string, bool) {
	if e == nil {
		return "", false
	}
	if e.ExtendedProperties != nil {
		if id, ok := e.ExtendedProperties.Private[TaskIDProperty]; ok && id != "" {
			return id, true
		}
	}
	if m := descriptionID.FindStringSubmatch(e.Description); len(m) > 1 {
		return m[1], true
	}
	return "", false
}
