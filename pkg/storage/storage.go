// Package storage persists the task collection as a JSON array under one key
// of a kv.Store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrisonrobin/gantta/pkg/kv"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// DefaultKey is the key the browser version of the app used in localStorage.
const DefaultKey = "tareas"

// DeserializationError reports a stored value that could not be read back as
// a task collection.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("failed to load tasks from %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// StoreWriteError reports a failed write of the task collection.
type StoreWriteError struct {
	Key string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("failed to save tasks to %q: %v", e.Key, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// Adapter reads and writes the task collection.
type Adapter struct {
	store kv.Store
	key   string
}

func NewAdapter(store kv.Store, key string) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	return &Adapter{store: store, key: key}
}

// Key returns the key the collection lives under.
func (a *Adapter) Key() string { return a.key }

// Load returns the stored collection. An absent or blank value is an empty
// collection; anything unreadable is a *DeserializationError.
func (a *Adapter) Load(ctx context.Context) ([]model.Task, error) {
	raw, ok, err := a.store.Get(ctx, a.key)
	if err != nil {
		return []model.Task{}, &DeserializationError{Key: a.key, Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return []model.Task{}, &DeserializationError{Key: a.key, Err: err}
	}
	if tasks == nil {
		// "null" decodes to a nil slice.
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Save writes tasks as a JSON array, [] when empty.
func (a *Adapter) Save(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		return &StoreWriteError{Key: a.key, Err: err}
	}
	if err := a.store.Set(ctx, a.key, string(b)); err != nil {
		return &StoreWriteError{Key: a.key, Err: err}
	}
	return nil
}
