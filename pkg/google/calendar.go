// Package google exports tasks to a Google Calendar as all-day events.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/gantta/pkg/index"
	"github.com/harrisonrobin/gantta/pkg/logging"
	"github.com/harrisonrobin/gantta/pkg/model"
	"github.com/harrisonrobin/gantta/pkg/overdue"
)

// eventsAPI is the part of the Calendar events service the syncer needs.
type eventsAPI interface {
	Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error)
	Insert(ctx context.Context, calendarID string, e *calendar.Event) (*calendar.Event, error)
	Patch(ctx context.Context, calendarID, eventID string, patch *calendar.Event) (*calendar.Event, error)
	Delete(ctx context.Context, calendarID, eventID string) error
	FindByTaskID(ctx context.Context, calendarID, taskID string) (*calendar.Event, error)
}

type serviceAPI struct {
	srv *calendar.Service
}

func (s serviceAPI) Get(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	return s.srv.Events.Get(calendarID, eventID).Context(ctx).Do()
}

func (s serviceAPI) Insert(ctx context.Context, calendarID string, e *calendar.Event) (*calendar.Event, error) {
	return s.srv.Events.Insert(calendarID, e).Context(ctx).Do()
}

func (s serviceAPI) Patch(ctx context.Context, calendarID, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return s.srv.Events.Patch(calendarID, eventID, patch).Context(ctx).Do()
}

func (s serviceAPI) Delete(ctx context.Context, calendarID, eventID string) error {
	return s.srv.Events.Delete(calendarID, eventID).Context(ctx).Do()
}

func (s serviceAPI) FindByTaskID(ctx context.Context, calendarID, taskID string) (*calendar.Event, error) {
	events, err := s.srv.Events.List(calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	for _, e := range events.Items {
		if id, ok := TaskIDFromEvent(e); ok && id == taskID {
			return e, nil
		}
	}
	return nil, nil
}

// Syncer keeps one calendar event per task. The event index avoids a search
// per task; the optional overdue table lets Sweep patch only tasks that
// crossed their end date.
type Syncer struct {
	api        eventsAPI
	calendarID string
	index      *index.EventIndex
	overdue    *overdue.Table
	logger     logging.Logger
	now        func() time.Time

	mu sync.Mutex
}

type SyncerOption func(*Syncer)

func WithLogger(l logging.Logger) SyncerOption {
	return func(s *Syncer) { s.logger = l }
}

func WithOverdueTable(t *overdue.Table) SyncerOption {
	return func(s *Syncer) { s.overdue = t }
}

func WithClock(now func() time.Time) SyncerOption {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer syncs into calendarID through srv.
func NewSyncer(srv *calendar.Service, calendarID string, idx *index.EventIndex, opts ...SyncerOption) *Syncer {
	return newSyncer(serviceAPI{srv: srv}, calendarID, idx, opts...)
}

func newSyncer(api eventsAPI, calendarID string, idx *index.EventIndex, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		api:        api,
		calendarID: calendarID,
		index:      idx,
		logger:     logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Syncer) CalendarID() string { return s.calendarID }

func (s *Syncer) today() model.Date { return model.DateOf(s.now()) }

// SyncTask creates the event for t or patches the existing one.
func (s *Syncer) SyncTask(ctx context.Context, t model.Task) (*calendar.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncTask(ctx, t)
}

func (s *Syncer) syncTask(ctx context.Context, t model.Task) (*calendar.Event, error) {
	today := s.today()
	event, err := ConvertTaskToEvent(t, today)
	if err != nil {
		return nil, err
	}

	existing, err := s.lookup(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}

	var synced *calendar.Event
	if existing != nil {
		patch := EventNeedsUpdate(existing, event)
		if patch == nil {
			synced = existing
		} else {
			synced, err = s.api.Patch(ctx, s.calendarID, existing.Id, patch)
			if err != nil {
				return nil, err
			}
			s.logger.Debug("calendar event patched", "task", t.ID, "event", synced.Id)
		}
	} else {
		synced, err = s.api.Insert(ctx, s.calendarID, event)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("calendar event created", "task", t.ID, "event", synced.Id)
	}

	if s.index != nil {
		s.index.Set(t.ID, synced.Id)
	}
	if s.overdue != nil {
		s.overdue.Update(t, today)
	}
	return synced, nil
}

// lookup tries the index first and falls back to searching the calendar.
func (s *Syncer) lookup(ctx context.Context, taskID string) (*calendar.Event, error) {
	if s.index != nil {
		if eventID := s.index.Get(taskID); eventID != "" {
			e, err := s.api.Get(ctx, s.calendarID, eventID)
			if err == nil && e != nil && e.Status != "cancelled" {
				return e, nil
			}
			s.index.Remove(taskID)
		}
	}
	return s.api.FindByTaskID(ctx, s.calendarID, taskID)
}

// DeleteTask removes the event of taskID. A missing event is not an error.
func (s *Syncer) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTask(ctx, taskID)
}

func (s *Syncer) deleteTask(ctx context.Context, taskID string) error {
	if s.overdue != nil {
		s.overdue.Remove(taskID)
	}

	eventID := ""
	if s.index != nil {
		eventID = s.index.Get(taskID)
	}
	if eventID == "" {
		e, err := s.api.FindByTaskID(ctx, s.calendarID, taskID)
		if err != nil {
			return fmt.Errorf("error searching for event: %w", err)
		}
		if e != nil {
			eventID = e.Id
		}
	}
	if eventID != "" {
		if err := s.api.Delete(ctx, s.calendarID, eventID); err != nil && !isGone(err) {
			return err
		}
		s.logger.Debug("calendar event deleted", "task", taskID, "event", eventID)
	}
	if s.index != nil {
		s.index.Remove(taskID)
	}
	return nil
}

// SyncReport summarizes a SyncAll run.
type SyncReport struct {
	Synced  int
	Skipped int
	Deleted int
	Failed  int
}

// SyncAll upserts every task and deletes the events of indexed tasks that no
// longer exist. Tasks without dates are skipped. Per-task failures are
// collected and do not stop the run.
func (s *Syncer) SyncAll(ctx context.Context, tasks []model.Task) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report SyncReport
	var errs []error
	present := make(map[string]bool, len(tasks))

	for _, t := range tasks {
		present[t.ID] = true
		if !t.HasDates() {
			report.Skipped++
			continue
		}
		if _, err := s.syncTask(ctx, t); err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
			continue
		}
		report.Synced++
	}

	if s.index != nil {
		for _, id := range s.index.TaskIDs() {
			if present[id] {
				continue
			}
			if err := s.deleteTask(ctx, id); err != nil {
				report.Failed++
				errs = append(errs, fmt.Errorf("task %s: %w", id, err))
				continue
			}
			report.Deleted++
		}
	}

	if s.overdue != nil {
		s.overdue.Sync(tasks, s.today())
	}
	if err := s.save(ctx); err != nil {
		errs = append(errs, err)
	}

	s.logger.Info("calendar sync finished",
		"synced", report.Synced, "skipped", report.Skipped,
		"deleted", report.Deleted, "failed", report.Failed)
	return report, errors.Join(errs...)
}

// Sweep re-syncs the tasks that became overdue since they were last synced,
// so their events pick up the overdue prefix and color. It returns how many
// events were patched.
func (s *Syncer) Sweep(ctx context.Context, tasks []model.Task) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overdue == nil {
		return 0, nil
	}

	today := s.today()
	swept := s.overdue.Sweep(today)
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var errs []error
	patched := 0
	for id := range swept {
		t, ok := byID[id]
		if !ok || !overdue.IsOverdue(t, today) {
			continue
		}
		if _, err := s.syncTask(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", id, err))
			continue
		}
		patched++
	}
	if err := s.save(ctx); err != nil {
		errs = append(errs, err)
	}
	if patched > 0 {
		s.logger.Info("overdue tasks updated in calendar", "count", patched)
	}
	return patched, errors.Join(errs...)
}

// Save persists the index and the overdue table.
func (s *Syncer) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx)
}

func (s *Syncer) save(ctx context.Context) error {
	var errs []error
	if s.index != nil {
		if err := s.index.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving event index: %w", err))
		}
	}
	if s.overdue != nil {
		if err := s.overdue.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving overdue table: %w", err))
		}
	}
	return errors.Join(errs...)
}

func isGone(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}
