// Package remote holds the contract between the reconciliation layer and an
// external calendar service.
//
// Remote calls never return a plain error. They return a Result that is
// either a success carrying a value or a recoverable failure carrying the
// reason, so callers cannot confuse them with local persistence errors.
package remote

import (
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

// Event is the calendar-facing view of a scheduled task.
type Event struct {
	TaskID      int64
	Title       string
	Description string
	Category    model.Category
	Start       time.Time
	End         time.Time
}

// EventFor builds the event for a fully scheduled task.
func EventFor(t model.Task, loc *time.Location) (Event, bool) {
	start, end, ok := t.Window(loc)
	if !ok {
		return Event{}, false
	}
	return Event{
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Start:       start,
		End:         end,
	}, true
}

// Result is the outcome of a remote call. Reason is set when it failed.
type Result[T any] struct {
	Value  T
	Reason error
}

// Success wraps the value of a call that went through.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Recoverable reports a failure the caller can log and move past.
func Recoverable[T any](reason error) Result[T] {
	return Result[T]{Reason: reason}
}

func (r Result[T]) Ok() bool {
	return r.Reason == nil
}

// Done is the value type of remote calls that only report success.
type Done struct{}
