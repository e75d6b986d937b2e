package taskwarrior

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/gantta/pkg/model"
)

const exportJSON = `[
{"uuid":"f45a05b3-c12e-42e5-9c9c-333333333333","description":"Buy milk","status":"pending",
 "entry":"20230101T120000Z","due":"20230105T120000Z","project":"Groceries","tags":["buy","food"]},
{"uuid":"a1","description":"Ship it","status":"completed",
 "scheduled":"20230102T120000Z","due":"20230110T120000Z","end":"20230109T120000Z"},
{"uuid":"a2","description":"Gone","status":"deleted","due":"20230110T120000Z"},
{"uuid":"a3","description":"Someday","status":"pending"}
]`

func TestParseTasksArray(t *testing.T) {
	tasks, err := ParseTasks(strings.NewReader(exportJSON))
	require.NoError(t, err)
	require.Len(t, tasks, 4)

	task := tasks[0]
	assert.Equal(t, "f45a05b3-c12e-42e5-9c9c-333333333333", task.UUID)
	assert.Equal(t, "Buy milk", task.Description)
	assert.Equal(t, "Groceries", task.Project)
	assert.Len(t, task.Tags, 2)
	expectedDue, _ := time.Parse(time.RFC3339, "2023-01-05T12:00:00Z")
	assert.True(t, task.Due.Time.Equal(expectedDue))
}

func TestParseTasksStream(t *testing.T) {
	input := `{"uuid":"1","description":"old","status":"pending"}
{"uuid":"1","description":"new","status":"completed"}
`
	tasks, err := ParseTasks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "new", tasks[1].Description)

	empty, err := ParseTasks(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseTasks(strings.NewReader(`{"uuid":`))
	assert.Error(t, err)
	_, err = ParseTasks(strings.NewReader(`{"due":"tomorrow"}`))
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	tasks, err := ParseTasks(strings.NewReader(exportJSON))
	require.NoError(t, err)

	got := Convert(tasks)
	require.Len(t, got, 2, "deleted and undated tasks are dropped")

	assert.Equal(t, model.Task{
		ID:    "f45a05b3-c12e-42e5-9c9c-333333333333",
		Name:  "Groceries: Buy milk",
		Start: model.NewDate(2023, time.January, 1),
		End:   model.NewDate(2023, time.January, 5),
	}, got[0])

	assert.Equal(t, "2023-01-02", got[1].Start.String(), "scheduled wins over entry")
	assert.Equal(t, "2023-01-10", got[1].End.String(), "due wins over end")
	assert.Equal(t, 100, got[1].Progress)
	for _, m := range got {
		assert.NoError(t, m.Validate())
	}
}

func TestToModelSingleDateAndInvertedRange(t *testing.T) {
	due := &CustomTime{Time: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)}
	m, ok := Task{UUID: "x", Description: "d", Status: PENDING, Due: due}.ToModel()
	require.True(t, ok)
	assert.Equal(t, m.Start, m.End)

	entry := &CustomTime{Time: time.Date(2023, 3, 10, 12, 0, 0, 0, time.UTC)}
	m, ok = Task{UUID: "y", Description: "d", Status: WAITING, Entry: entry, Due: due}.ToModel()
	require.True(t, ok)
	assert.Equal(t, "2023-03-01", m.Start.String(), "a due date before entry collapses to one day")
	assert.NoError(t, m.Validate())
}

func TestCustomTimeRoundTrip(t *testing.T) {
	ct := CustomTime{Time: time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)}
	b, err := ct.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"20230101T120000Z"`, string(b))

	b, err = CustomTime{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `""`, string(b))
}
