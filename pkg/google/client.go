package google

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/gantta/pkg/index"
)

// FindCalendarID returns the id of the calendar whose summary is name.
func FindCalendarID(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range calendarList.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}
	return "", fmt.Errorf("calendar '%s' not found", name)
}

// NewClient resolves calendarName and returns a Syncer for it.
func NewClient(ctx context.Context, srv *calendar.Service, calendarName string, idx *index.EventIndex, opts ...SyncerOption) (*Syncer, error) {
	calendarID, err := FindCalendarID(ctx, srv, calendarName)
	if err != nil {
		return nil, err
	}
	return NewSyncer(srv, calendarID, idx, opts...), nil
}
