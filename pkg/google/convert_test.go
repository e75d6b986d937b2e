package google

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/gantta/pkg/colors"
	"github.com/harrisonrobin/gantta/pkg/model"
)

func may(d int) model.Date { return model.NewDate(2024, time.May, d) }

func TestConvertTaskToEvent(t *testing.T) {
	task := model.Task{
		ID:       "12345678-1234-1234-1234-123456789012",
		Name:     "Write report",
		Start:    may(1),
		End:      may(10),
		Progress: 40,
	}

	event, err := ConvertTaskToEvent(task, may(5))
	require.NoError(t, err)

	require.NotNil(t, event.ExtendedProperties)
	assert.Equal(t, task.ID, event.ExtendedProperties.Private[TaskIDProperty])
	assert.Equal(t, "‣ Write report", event.Summary)
	assert.Equal(t, "2024-05-01", event.Start.Date)
	assert.Equal(t, "2024-05-11", event.End.Date, "all-day end is exclusive")
	assert.Empty(t, event.Start.DateTime)
	assert.Equal(t, colors.Banana, event.ColorId)
	assert.Contains(t, event.Description, "Progress: 40%")
	assert.Contains(t, event.Description, "Duration: 9 days")
	assert.Contains(t, event.Description, "ID: "+task.ID)
	assert.NotContains(t, event.Description, "Overdue")
}

func TestConvertTaskToEventPrefixes(t *testing.T) {
	base := model.Task{ID: "x", Name: "Task", Start: may(1), End: may(3)}
	tests := []struct {
		name     string
		progress int
		today    model.Date
		want     string
	}{
		{"not started", 0, may(2), "Task"},
		{"in progress", 10, may(2), "‣ Task"},
		{"overdue", 10, may(9), "! Task"},
		{"done even when late", 100, may(9), "✓ Task"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := base
			task.Progress = tt.progress
			event, err := ConvertTaskToEvent(task, tt.today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, event.Summary)
		})
	}
}

func TestConvertTaskToEventOverdueDescription(t *testing.T) {
	event, err := ConvertTaskToEvent(model.Task{ID: "x", Name: "Late", Start: may(1), End: may(3)}, may(10))
	require.NoError(t, err)
	assert.Contains(t, event.Description, "Overdue by: 7 days")
}

func TestConvertTaskToEventInvertedRange(t *testing.T) {
	event, err := ConvertTaskToEvent(model.Task{ID: "x", Name: "Backwards", Start: may(10), End: may(2)}, may(1))
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", event.Start.Date)
	assert.Equal(t, "2024-05-11", event.End.Date)
}

func TestConvertTaskToEventNoDates(t *testing.T) {
	_, err := ConvertTaskToEvent(model.Task{ID: "x", Name: "Someday"}, may(1))
	assert.ErrorIs(t, err, ErrNoDates)
}

func TestEventNeedsUpdate(t *testing.T) {
	task := model.Task{ID: "x", Name: "Task", Start: may(1), End: may(3), Progress: 20}
	target, err := ConvertTaskToEvent(task, may(2))
	require.NoError(t, err)

	same := *target
	assert.Nil(t, EventNeedsUpdate(&same, target))

	renamed := *target
	renamed.Summary = "old name"
	patch := EventNeedsUpdate(&renamed, target)
	require.NotNil(t, patch)
	assert.Equal(t, target.Summary, patch.Summary)
	assert.Nil(t, patch.Start, "unchanged dates are left out of the patch")
	assert.Empty(t, patch.Description)

	moved := *target
	moved.End = &calendar.EventDateTime{Date: "2024-05-20"}
	patch = EventNeedsUpdate(&moved, target)
	require.NotNil(t, patch)
	assert.Equal(t, "2024-05-04", patch.End.Date)
	assert.Equal(t, "2024-05-01", patch.Start.Date)

	timed := *target
	timed.Start = &calendar.EventDateTime{DateTime: "2024-05-01T09:00:00Z"}
	timed.End = &calendar.EventDateTime{DateTime: "2024-05-04T10:00:00Z"}
	assert.Nil(t, EventNeedsUpdate(&timed, target), "a timed event on the same days matches")

	missing := *target
	missing.Start = nil
	assert.NotNil(t, EventNeedsUpdate(&missing, target))
}

func TestTaskIDFromEvent(t *testing.T) {
	withProp := &calendar.Event{ExtendedProperties: &calendar.EventExtendedProperties{
		Private: map[string]string{TaskIDProperty: "abc"},
	}}
	id, ok := TaskIDFromEvent(withProp)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	described := &calendar.Event{Description: strings.Join([]string{"Progress: 0%", "ID: d3adb33f-1", ""}, "\n")}
	id, ok = TaskIDFromEvent(described)
	assert.True(t, ok)
	assert.Equal(t, "d3adb33f-1", id)

	_, ok = TaskIDFromEvent(&calendar.Event{Description: "nothing here"})
	assert.False(t, ok)
	_, ok = TaskIDFromEvent(nil)
	assert.False(t, ok)
}
