package google

import (
	"strconv"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/remote"
)

// TaskIDProperty is the private extended property linking an event to its task.
const TaskIDProperty = "taskera_id"

// Google Calendar event colour ids per category.
var categoryColors = map[model.Category]string{
	model.CategoryPersonal: "9",  // blueberry
	model.CategoryWork:     "6",  // tangerine
	model.CategoryStudy:    "3",  // grape
	model.CategoryHealth:   "10", // basil
	model.CategoryFinance:  "5",  // banana
	model.CategoryOther:    "8",  // graphite
}

func categoryColor(c model.Category) string {
	return categoryColors[c.Bucket()]
}

// toCalendarEvent converts a remote.Event into the Calendar API shape.
func toCalendarEvent(ev remote.Event, loc *time.Location) *calendar.Event {
	event := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		ColorId:     categoryColor(ev.Category),
		Start:       eventTime(ev.Start, loc),
		End:         eventTime(ev.End, loc),
	}
	if ev.TaskID != 0 {
		event.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: map[string]string{TaskIDProperty: strconv.FormatInt(ev.TaskID, 10)},
		}
	}
	return event
}

func eventTime(t time.Time, loc *time.Location) *calendar.EventDateTime {
	edt := &calendar.EventDateTime{DateTime: t.In(loc).Format(time.RFC3339)}
	// "Local" is not an IANA name the API accepts; the offset is enough then.
	if name := loc.String(); name != "Local" {
		edt.TimeZone = name
	}
	return edt
}

// eventPatch returns the fields of target that differ from existing, or nil
// when the event is already up to date.
func eventPatch(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		patch.ForceSendFields = append(patch.ForceSendFields, "Summary")
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		patch.ForceSendFields = append(patch.ForceSendFields, "Description")
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if !sameInstant(existing.Start, target.Start) || !sameInstant(existing.End, target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func sameInstant(a, b *calendar.EventDateTime) bool {
	if a == nil || b == nil {
		return a == b
	}
	at, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false
	}
	bt, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false
	}
	return at.Equal(bt)
}
