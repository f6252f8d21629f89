package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/taskera/pkg/auth"
	"github.com/harrisonrobin/taskera/pkg/remote"
)

// PrimaryCalendar is the signed-in account's default calendar.
const PrimaryCalendar = "primary"

// ServiceFunc builds an authenticated Calendar service. It fails with
// auth.ErrNotSignedIn when no account is available.
type ServiceFunc func(ctx context.Context) (*calendar.Service, error)

// FromTokenDir authenticates with the token cached in dir.
func FromTokenDir(dir string) ServiceFunc {
	return func(ctx context.Context) (*calendar.Service, error) {
		client, err := auth.LoadClient(ctx, dir)
		if err != nil {
			return nil, err
		}
		srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("unable to create calendar service: %w", err)
		}
		return srv, nil
	}
}

// CalendarClient is the Google Calendar side of task sync. Every failure is
// reported as a recoverable remote.Result.
type CalendarClient struct {
	newService   ServiceFunc
	calendarName string
	loc          *time.Location

	mu         sync.Mutex
	srv        *calendar.Service
	calendarID string
}

// NewCalendarClient syncs into the calendar with the given summary, or the
// primary calendar when the name is empty or "primary". The service is
// created on first use.
func NewCalendarClient(newService ServiceFunc, calendarName string, loc *time.Location) *CalendarClient {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarClient{newService: newService, calendarName: calendarName, loc: loc}
}

func (c *CalendarClient) connect(ctx context.Context) (*calendar.Service, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.srv != nil {
		return c.srv, c.calendarID, nil
	}

	srv, err := c.newService(ctx)
	if err != nil {
		return nil, "", err
	}

	calendarID := PrimaryCalendar
	if c.calendarName != "" && c.calendarName != PrimaryCalendar {
		calendarID, err = resolveCalendar(ctx, srv, c.calendarName)
		if err != nil {
			return nil, "", err
		}
	}

	c.srv, c.calendarID = srv, calendarID
	return srv, calendarID, nil
}

// resolveCalendar finds the calendar with the given summary, creating it
// when the account has none.
func resolveCalendar(ctx context.Context, srv *calendar.Service, name string) (string, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range calendarList.Items {
		if item.Summary == name {
			return item.Id, nil
		}
	}

	created, err := srv.Calendars.Insert(&calendar.Calendar{Summary: name}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create calendar '%s': %w", name, err)
	}
	log.WithFields(log.Fields{"calendar": name, "id": created.Id}).Info("calendar created")
	return created.Id, nil
}

// CreateEvent inserts a new event and returns its id.
func (c *CalendarClient) CreateEvent(ctx context.Context, ev remote.Event) remote.Result[string] {
	srv, calendarID, err := c.connect(ctx)
	if err != nil {
		return remote.Recoverable[string](err)
	}
	created, err := srv.Events.Insert(calendarID, toCalendarEvent(ev, c.loc)).Context(ctx).Do()
	if err != nil {
		return remote.Recoverable[string](fmt.Errorf("insert event: %w", err))
	}
	if created.Id == "" {
		return remote.Recoverable[string](fmt.Errorf("insert event: empty event id in response"))
	}
	log.WithFields(log.Fields{"task": ev.TaskID, "event": created.Id}).Debug("calendar event created")
	return remote.Success(created.Id)
}

// UpdateEvent rewrites the event in place, sending only the changed fields.
func (c *CalendarClient) UpdateEvent(ctx context.Context, eventID string, ev remote.Event) remote.Result[remote.Done] {
	srv, calendarID, err := c.connect(ctx)
	if err != nil {
		return remote.Recoverable[remote.Done](err)
	}
	existing, err := srv.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return remote.Recoverable[remote.Done](fmt.Errorf("get event %s: %w", eventID, err))
	}

	patch := eventPatch(existing, toCalendarEvent(ev, c.loc))
	if patch == nil {
		return remote.Success(remote.Done{})
	}
	if _, err := srv.Events.Patch(calendarID, eventID, patch).Context(ctx).Do(); err != nil {
		return remote.Recoverable[remote.Done](fmt.Errorf("patch event %s: %w", eventID, err))
	}
	log.WithFields(log.Fields{"task": ev.TaskID, "event": eventID}).Debug("calendar event updated")
	return remote.Success(remote.Done{})
}

// DeleteEvent removes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) remote.Result[remote.Done] {
	srv, calendarID, err := c.connect(ctx)
	if err != nil {
		return remote.Recoverable[remote.Done](err)
	}
	if err := srv.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		if !alreadyGone(err) {
			return remote.Recoverable[remote.Done](fmt.Errorf("delete event %s: %w", eventID, err))
		}
		log.WithField("event", eventID).Debug("calendar event already gone")
		return remote.Success(remote.Done{})
	}
	log.WithField("event", eventID).Debug("calendar event deleted")
	return remote.Success(remote.Done{})
}

// alreadyGone reports a delete of an event that no longer exists.
func alreadyGone(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusGone || gerr.Code == http.StatusNotFound
}
