package overdue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/model"
)

func day(d int) model.Date { return model.NewDate(2024, time.March, d) }

func TestIsOverdue(t *testing.T) {
	today := day(10)
	tests := []struct {
		name string
		task model.Task
		want bool
	}{
		{"ended yesterday unfinished", model.Task{End: day(9), Progress: 50}, true},
		{"ends today", model.Task{End: day(10)}, false},
		{"ended but done", model.Task{End: day(1), Progress: 100}, false},
		{"over 100 counts as done", model.Task{End: day(1), Progress: 120}, false},
		{"no end date", model.Task{}, false},
		{"future", model.Task{End: day(20)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOverdue(tt.task, today))
		})
	}
}

func TestSweepKeepsOrder(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", End: day(1)},
		{ID: "b", End: day(30)},
		{ID: "c", End: day(2), Progress: 10},
	}
	got := Sweep(tasks, day(10))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Empty(t, Sweep(nil, day(10)))
}

func TestTableSweepAndPersist(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(0)

	table, err := NewTable(ctx, store, "")
	require.NoError(t, err)

	tasks := []model.Task{
		{ID: "soon", Name: "Soon", End: day(11)},
		{ID: "later", Name: "Later", End: day(25)},
		{ID: "done", Name: "Done", End: day(11), Progress: 100},
		{ID: "late", Name: "Late", End: day(1)},
	}
	table.Sync(tasks, day(10))
	assert.Len(t, table.Entries, 2)
	require.NoError(t, table.Save(ctx))

	reloaded, err := NewTable(ctx, store, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, table.Entries, reloaded.Entries)

	swept := reloaded.Sweep(day(12))
	require.Len(t, swept, 1)
	assert.Equal(t, "Soon", swept["soon"].Name)
	assert.NotContains(t, reloaded.Entries, "soon")

	// a task that disappears from the collection is no longer watched
	reloaded.Sync([]model.Task{}, day(12))
	assert.Empty(t, reloaded.Entries)
}

func TestTableCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore(0)
	require.NoError(t, store.Set(ctx, DefaultKey, "{"))
	_, err := NewTable(ctx, store, DefaultKey)
	assert.Error(t, err)
}
