package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/taskera/pkg/auth"
	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/remote"
)

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeCalendarAPI serves the handful of Calendar v3 endpoints the client uses.
type fakeCalendarAPI struct {
	mu       sync.Mutex
	calls    []recordedCall
	existing *calendar.Event
	fail     bool
	gone     bool
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := recordedCall{Method: r.Method, Path: r.URL.Path}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}
	f.calls = append(f.calls, call)

	if f.fail {
		http.Error(w, `{"error":{"code":400,"message":"bad request"}}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/users/me/calendarList"):
		_ = json.NewEncoder(w).Encode(calendar.CalendarList{Items: []*calendar.CalendarListEntry{
			{Id: "primary", Summary: "me@example.com"},
			{Id: "tasks-cal-id", Summary: "Tasks"},
		}})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/calendars"):
		summary, _ := call.Body["summary"].(string)
		_ = json.NewEncoder(w).Encode(calendar.Calendar{Id: "created-cal-id", Summary: summary})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/events"):
		_ = json.NewEncoder(w).Encode(calendar.Event{Id: "evt-new"})
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/events/"):
		_ = json.NewEncoder(w).Encode(f.existing)
	case r.Method == http.MethodPatch:
		_ = json.NewEncoder(w).Encode(f.existing)
	case r.Method == http.MethodDelete && f.gone:
		w.WriteHeader(http.StatusGone)
		_, _ = io.WriteString(w, `{"error":{"code":410,"message":"Resource has been deleted"}}`)
	case r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeCalendarAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestClient(t *testing.T, api *fakeCalendarAPI, calendarName string) *CalendarClient {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	newService := func(ctx context.Context) (*calendar.Service, error) {
		return calendar.NewService(ctx,
			option.WithEndpoint(server.URL+"/"),
			option.WithHTTPClient(server.Client()),
		)
	}
	return NewCalendarClient(newService, calendarName, time.UTC)
}

func sampleEvent() remote.Event {
	return remote.Event{
		TaskID:      7,
		Title:       "Planning",
		Description: "Quarterly",
		Category:    model.CategoryWork,
		Start:       time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreateEventSendsTaskFields(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newTestClient(t, api, "")

	res := client.CreateEvent(context.Background(), sampleEvent())
	if !res.Ok() {
		t.Fatalf("create failed: %v", res.Reason)
	}
	if res.Value != "evt-new" {
		t.Fatalf("expected evt-new, got %q", res.Value)
	}

	calls := api.recorded()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %+v", calls)
	}
	call := calls[0]
	if call.Method != http.MethodPost || !strings.HasSuffix(call.Path, "/calendars/primary/events") {
		t.Fatalf("unexpected request %s %s", call.Method, call.Path)
	}
	if call.Body["summary"] != "Planning" || call.Body["description"] != "Quarterly" {
		t.Errorf("unexpected body %v", call.Body)
	}
	if call.Body["colorId"] != categoryColor(model.CategoryWork) {
		t.Errorf("expected work colour, got %v", call.Body["colorId"])
	}
	start, _ := call.Body["start"].(map[string]any)
	if start["dateTime"] != "2025-06-10T09:00:00Z" || start["timeZone"] != "UTC" {
		t.Errorf("unexpected start %v", start)
	}
	props, _ := call.Body["extendedProperties"].(map[string]any)
	private, _ := props["private"].(map[string]any)
	if private[TaskIDProperty] != "7" {
		t.Errorf("expected task id property, got %v", props)
	}
}

func TestCreateEventResolvesNamedCalendar(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newTestClient(t, api, "Tasks")

	if res := client.CreateEvent(context.Background(), sampleEvent()); !res.Ok() {
		t.Fatalf("create failed: %v", res.Reason)
	}
	calls := api.recorded()
	if len(calls) != 2 {
		t.Fatalf("expected list + insert, got %+v", calls)
	}
	if !strings.HasSuffix(calls[1].Path, "/calendars/tasks-cal-id/events") {
		t.Fatalf("expected insert into resolved calendar, got %s", calls[1].Path)
	}
}

func TestUpdateEventPatchesOnlyChangedFields(t *testing.T) {
	ev := sampleEvent()
	existing := toCalendarEvent(ev, time.UTC)
	existing.Id = "evt-1"
	api := &fakeCalendarAPI{existing: existing}
	client := newTestClient(t, api, "")

	ev.Title = "Planning (moved)"
	ev.Start = ev.Start.Add(time.Hour)
	ev.End = ev.End.Add(time.Hour)
	if res := client.UpdateEvent(context.Background(), "evt-1", ev); !res.Ok() {
		t.Fatalf("update failed: %v", res.Reason)
	}

	calls := api.recorded()
	if len(calls) != 2 || calls[0].Method != http.MethodGet || calls[1].Method != http.MethodPatch {
		t.Fatalf("expected get + patch, got %+v", calls)
	}
	if !strings.HasSuffix(calls[1].Path, "/calendars/primary/events/evt-1") {
		t.Fatalf("unexpected patch path %s", calls[1].Path)
	}
	body := calls[1].Body
	if body["summary"] != "Planning (moved)" {
		t.Errorf("expected new summary, got %v", body["summary"])
	}
	if _, ok := body["description"]; ok {
		t.Errorf("unchanged description should not be sent: %v", body)
	}
	start, _ := body["start"].(map[string]any)
	if start["dateTime"] != "2025-06-10T10:00:00Z" {
		t.Errorf("unexpected start %v", start)
	}
}

func TestUpdateEventWithoutChangesSkipsPatch(t *testing.T) {
	ev := sampleEvent()
	existing := toCalendarEvent(ev, time.UTC)
	api := &fakeCalendarAPI{existing: existing}
	client := newTestClient(t, api, "")

	if res := client.UpdateEvent(context.Background(), "evt-1", ev); !res.Ok() {
		t.Fatalf("update failed: %v", res.Reason)
	}
	if calls := api.recorded(); len(calls) != 1 {
		t.Fatalf("expected only the get call, got %+v", calls)
	}
}

func TestDeleteEvent(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newTestClient(t, api, "")

	if res := client.DeleteEvent(context.Background(), "abc123"); !res.Ok() {
		t.Fatalf("delete failed: %v", res.Reason)
	}
	calls := api.recorded()
	if len(calls) != 1 || calls[0].Method != http.MethodDelete || !strings.HasSuffix(calls[0].Path, "/events/abc123") {
		t.Fatalf("unexpected calls %+v", calls)
	}
}

func TestMissingCalendarIsCreated(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newTestClient(t, api, "Taskera Tasks")

	res := client.CreateEvent(context.Background(), sampleEvent())
	if !res.Ok() || res.Value != "evt-new" {
		t.Fatalf("create failed: %+v", res)
	}

	calls := api.recorded()
	if len(calls) != 3 {
		t.Fatalf("expected list, calendar insert and event insert, got %+v", calls)
	}
	if calls[1].Method != http.MethodPost || !strings.HasSuffix(calls[1].Path, "/calendars") {
		t.Fatalf("expected a calendar insert, got %+v", calls[1])
	}
	if got := calls[1].Body["summary"]; got != "Taskera Tasks" {
		t.Errorf("calendar created with summary %v", got)
	}
	if !strings.Contains(calls[2].Path, "/calendars/created-cal-id/events") {
		t.Errorf("event inserted into %s", calls[2].Path)
	}

	// The resolved id is cached.
	client.DeleteEvent(context.Background(), "evt-new")
	if n := len(api.recorded()); n != 4 {
		t.Errorf("expected one more call, got %d total", n)
	}
}

func TestDeleteOfMissingEventSucceeds(t *testing.T) {
	api := &fakeCalendarAPI{gone: true}
	client := newTestClient(t, api, "")

	if res := client.DeleteEvent(context.Background(), "abc123"); !res.Ok() {
		t.Fatalf("expected success for an already deleted event, got %v", res.Reason)
	}
}

func TestFailuresAreRecoverable(t *testing.T) {
	api := &fakeCalendarAPI{fail: true}
	client := newTestClient(t, api, "")
	ctx := context.Background()

	if res := client.CreateEvent(ctx, sampleEvent()); res.Ok() || res.Value != "" {
		t.Errorf("expected recoverable create failure, got %+v", res)
	}
	if res := client.DeleteEvent(ctx, "abc"); res.Ok() {
		t.Error("expected recoverable delete failure")
	}
}

func TestNotSignedInIsRecoverable(t *testing.T) {
	client := NewCalendarClient(func(context.Context) (*calendar.Service, error) {
		return nil, auth.ErrNotSignedIn
	}, "", time.UTC)

	res := client.CreateEvent(context.Background(), sampleEvent())
	if res.Ok() || !errors.Is(res.Reason, auth.ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn reason, got %+v", res)
	}
}

func TestEventPatchDetectsClearedDescription(t *testing.T) {
	existing := &calendar.Event{Summary: "a", Description: "old"}
	target := &calendar.Event{Summary: "a", Description: ""}
	patch := eventPatch(existing, target)
	if patch == nil {
		t.Fatal("expected a patch")
	}
	found := false
	for _, f := range patch.ForceSendFields {
		if f == "Description" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Description to be force-sent, got %v", patch.ForceSendFields)
	}
}

func TestUnknownCategoryGetsOtherColour(t *testing.T) {
	if categoryColor("Groceries") != categoryColor(model.CategoryOther) {
		t.Error("unknown categories should share the Other colour")
	}
}
