package overdue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// DefaultKey is where the watch table lives in the kv store.
const DefaultKey = "overdue_watch"

type Entry struct {
	Name string     `json:"name"`
	End  model.Date `json:"end"`
}

// Table tracks unfinished tasks that are not overdue yet, so a periodic job
// can tell which ones crossed their end date since the last run.
type Table struct {
	Entries map[string]Entry `json:"entries"`

	store kv.Store
	key   string
	dirty bool
}

// NewTable loads the table stored under key, or starts an empty one.
func NewTable(ctx context.Context, store kv.Store, key string) (*Table, error) {
	if key == "" {
		key = DefaultKey
	}
	t := &Table{Entries: make(map[string]Entry), store: store, key: key}

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), t); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		if t.Entries == nil {
			t.Entries = make(map[string]Entry)
		}
	}
	return t, nil
}

func (t *Table) Save(ctx context.Context) error {
	if !t.dirty {
		return nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := t.store.Set(ctx, t.key, string(b)); err != nil {
		return err
	}
	t.dirty = false
	return nil
}

// Update watches task while it is unfinished and not yet overdue. Otherwise
// it is removed.
func (t *Table) Update(task model.Task, today model.Date) {
	if task.End.IsZero() || task.Done() || IsOverdue(task, today) {
		t.Remove(task.ID)
		return
	}
	old, exists := t.Entries[task.ID]
	if !exists || !old.End.Equal(task.End) || old.Name != task.Name {
		t.Entries[task.ID] = Entry{Name: task.Name, End: task.End}
		t.dirty = true
	}
}

func (t *Table) Remove(id string) {
	if _, exists := t.Entries[id]; exists {
		delete(t.Entries, id)
		t.dirty = true
	}
}

// Sync replaces the watched set with the current collection. Ids that are no
// longer in tasks are dropped.
func (t *Table) Sync(tasks []model.Task, today model.Date) {
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		seen[task.ID] = true
	}
	for id := range t.Entries {
		if !seen[id] {
			t.Remove(id)
		}
	}
	for _, task := range tasks {
		t.Update(task, today)
	}
}

// Sweep returns the ids of entries that have become overdue and removes them.
func (t *Table) Sweep(today model.Date) map[string]Entry {
	swept := make(map[string]Entry)
	for id, entry := range t.Entries {
		if entry.End.Before(today) {
			swept[id] = entry
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	return swept
}
