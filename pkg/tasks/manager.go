package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/harrisonrobin/gantta/pkg/events"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
)

var (
	ErrDuplicateID = errors.New("a task with this id already exists")
	ErrNotFound    = errors.New("task not found")
)

// Persister loads and saves the whole collection. *storage.Adapter is the
// production implementation.
type Persister interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// Manager owns the authoritative task collection. Every change goes through
// Reduce and is persisted right after; persistence failures are logged, not
// returned, and the in-memory state still advances.
type Manager struct {
	mu        sync.RWMutex
	tasks     []model.Task
	store     Persister
	logger    logging.Logger
	publisher events.Publisher
	strict    bool
}

type Option func(*Manager)

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithStrict makes create reject duplicate ids and edit/delete reject unknown ones.
func WithStrict(strict bool) Option {
	return func(m *Manager) { m.strict = strict }
}

func NewManager(store Persister, opts ...Option) *Manager {
	m := &Manager{
		tasks:  []model.Task{},
		store:  store,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize loads the collection from the store. A load failure is logged
// and leaves an empty collection.
func (m *Manager) Initialize(ctx context.Context) []model.Task {
	m.mu.Lock()
	loaded, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("could not load tasks, starting empty", "key", m.key(), "error", err)
		loaded = []model.Task{}
	}
	m.tasks = loaded
	m.mu.Unlock()

	m.logger.Info("tasks loaded", "count", len(loaded))
	return m.Tasks()
}

// Reload re-reads the store, keeping the current state if that fails. The
// lock is held across the read so a dispatch cannot be overwritten by an
// older snapshot.
func (m *Manager) Reload(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loaded, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("could not reload tasks, keeping current state", "key", m.key(), "error", err)
		return
	}
	m.tasks = loaded
	m.logger.Debug("tasks reloaded", "count", len(loaded))
}

// key names the store location in log entries when the Persister exposes one.
func (m *Manager) key() string {
	if k, ok := m.store.(interface{ Key() string }); ok {
		return k.Key()
	}
	return ""
}

// Tasks returns a snapshot of the collection.
func (m *Manager) Tasks() []model.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Task, len(m.tasks))
	copy(out, m.tasks)
	return out
}

// Get returns the first task with id.
func (m *Manager) Get(id string) (model.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (m *Manager) CreateTask(ctx context.Context, t model.Task) error {
	return m.Dispatch(ctx, CreateTask{Task: t})
}

func (m *Manager) EditTask(ctx context.Context, t model.Task) error {
	return m.Dispatch(ctx, EditTask{Task: t})
}

func (m *Manager) DeleteTask(ctx context.Context, id string) error {
	return m.Dispatch(ctx, DeleteTask{ID: id})
}

// Dispatch applies action and persists the result. It only returns an error
// in strict mode. Events are published only for actions that matched a task.
func (m *Manager) Dispatch(ctx context.Context, action Action) error {
	if action == nil {
		return nil
	}
	m.mu.Lock()
	if m.strict {
		if err := m.check(action); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	changed := m.matches(action)
	m.tasks = Reduce(m.tasks, action)
	snapshot := make([]model.Task, len(m.tasks))
	copy(snapshot, m.tasks)

	if err := m.store.Save(ctx, snapshot); err != nil {
		m.logger.Error("could not save tasks, keeping them in memory", "action", action.Kind(), "error", err)
	}
	m.mu.Unlock()

	if changed {
		m.publish(ctx, action)
	}
	return nil
}

// matches reports whether action will touch the collection. Callers hold m.mu.
func (m *Manager) matches(action Action) bool {
	switch a := action.(type) {
	case CreateTask:
		return true
	case EditTask:
		return contains(m.tasks, a.Task.ID)
	case DeleteTask:
		return contains(m.tasks, a.ID)
	}
	return false
}

func (m *Manager) check(action Action) error {
	switch a := action.(type) {
	case CreateTask:
		if contains(m.tasks, a.Task.ID) {
			return ErrDuplicateID
		}
	case EditTask:
		if !contains(m.tasks, a.Task.ID) {
			return ErrNotFound
		}
	case DeleteTask:
		if !contains(m.tasks, a.ID) {
			return ErrNotFound
		}
	}
	return nil
}

func (m *Manager) publish(ctx context.Context, action Action) {
	if m.publisher == nil {
		return
	}
	switch a := action.(type) {
	case CreateTask:
		m.publisher.Publish(ctx, events.New(events.TypeTaskCreated, a.Task))
	case EditTask:
		m.publisher.Publish(ctx, events.New(events.TypeTaskEdited, a.Task))
	case DeleteTask:
		m.publisher.Publish(ctx, events.New(events.TypeTaskDeleted, map[string]string{"id": a.ID}))
	}
}
