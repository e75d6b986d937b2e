// Package events publishes task collection changes as CloudEvents.
package events

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/harrisonrobin/gantta/pkg/logging"
)

const (
	Source = "gantta/tasks"

	TypeTaskCreated = "com.gantta.task.created"
	TypeTaskEdited  = "com.gantta.task.edited"
	TypeTaskDeleted = "com.gantta.task.deleted"
)

// Observer receives published events.
type Observer interface {
	OnEvent(ctx context.Context, event cloudevents.Event) error
	ObserverID() string
}

// Publisher fans events out to registered observers.
type Publisher interface {
	Publish(ctx context.Context, event cloudevents.Event)
}

// New builds an event of eventType carrying data as JSON.
func New(eventType string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	event.SetID(id.String())
	event.SetSource(Source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// Subject delivers events synchronously, in registration order. Observer
// errors are logged and never stop delivery.
type Subject struct {
	mu        sync.RWMutex
	observers []Observer
	logger    logging.Logger
}

func NewSubject(logger logging.Logger) *Subject {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Subject{logger: logger}
}

// Register adds o; registering the same ObserverID twice replaces the old one.
func (s *Subject) Register(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing.ObserverID() == o.ObserverID() {
			s.observers[i] = o
			return
		}
	}
	s.observers = append(s.observers, o)
}

func (s *Subject) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing.ObserverID() == id {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Subject) Publish(ctx context.Context, event cloudevents.Event) {
	s.mu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, o := range observers {
		if err := o.OnEvent(ctx, event); err != nil {
			s.logger.Warn("event observer failed",
				"observer", o.ObserverID(), "type", event.Type(), "id", event.ID(), "error", err)
		}
	}
}

// LogObserver writes every event to a Logger at debug level.
type LogObserver struct {
	Logger logging.Logger
}

func (o LogObserver) ObserverID() string { return "log" }

func (o LogObserver) OnEvent(_ context.Context, event cloudevents.Event) error {
	o.Logger.Debug("task event", "type", event.Type(), "id", event.ID(), "data", string(event.Data()))
	return nil
}
