package google

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/harrisonrobin/gantta/pkg/events"
	"github.com/harrisonrobin/gantta/pkg/model"
)

// ObserverID identifies the syncer on an events.Subject.
const ObserverID = "gantta.calendar"

func (s *Syncer) ObserverID() string { return ObserverID }

// OnEvent pushes a single task change to the calendar.
func (s *Syncer) OnEvent(ctx context.Context, event cloudevents.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type() {
	case events.TypeTaskCreated, events.TypeTaskEdited:
		var t model.Task
		if err := event.DataAs(&t); err != nil {
			return fmt.Errorf("decoding %s: %w", event.Type(), err)
		}
		if !t.HasDates() {
			return nil
		}
		if _, err := s.syncTask(ctx, t); err != nil {
			return err
		}
	case events.TypeTaskDeleted:
		var payload struct {
			ID string `json:"id"`
		}
		if err := event.DataAs(&payload); err != nil {
			return fmt.Errorf("decoding %s: %w", event.Type(), err)
		}
		if err := s.deleteTask(ctx, payload.ID); err != nil {
			return err
		}
	default:
		return nil
	}
	return s.save(ctx)
}

var _ events.Observer = (*Syncer)(nil)
