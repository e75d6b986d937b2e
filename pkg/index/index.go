// Package index remembers which calendar event belongs to which task so a sync
// does not have to search the calendar for every task.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/harrisonrobin/gantta/pkg/kv"
)

// DefaultKey is where the index lives in the kv store.
const DefaultKey = "calendar_index"

type EventIndex struct {
	Mappings map[string]string `json:"mappings"`

	store kv.Store
	key   string
	mu    sync.RWMutex
	dirty bool
}

// NewEventIndex loads the index stored under key, or starts an empty one.
func NewEventIndex(ctx context.Context, store kv.Store, key string) (*EventIndex, error) {
	if key == "" {
		key = DefaultKey
	}
	idx := &EventIndex{
		Mappings: make(map[string]string),
		store:    store,
		key:      key,
	}

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &idx.Mappings); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		if idx.Mappings == nil {
			idx.Mappings = make(map[string]string)
		}
	}
	return idx, nil
}

// Save writes the index if it changed since the last save.
func (idx *EventIndex) Save(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	b, err := json.Marshal(idx.Mappings)
	if err != nil {
		return err
	}
	if err := idx.store.Set(ctx, idx.key, string(b)); err != nil {
		return err
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != eventID {
		idx.Mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs returns the indexed task ids, sorted.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
