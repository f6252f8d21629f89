// Package reconcile keeps a task's calendar event and reminder job in step
// with the task row on every insert, update and delete.
//
// The task store is authoritative: its failures abort the operation and are
// returned to the caller. Calendar and reminder failures are logged and the
// operation carries on with the local state it already committed.
package reconcile

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/reminder"
	"github.com/harrisonrobin/taskera/pkg/remote"
)

// TaskStore is the local persistence the orchestrator writes through.
type TaskStore interface {
	Insert(ctx context.Context, t model.Task) (int64, error)
	Update(ctx context.Context, t model.Task) error
	Delete(ctx context.Context, id int64) error
	SetEventID(ctx context.Context, id int64, eventID string) error
}

// Calendar is the remote event adapter. It reports failures as results,
// never as errors.
type Calendar interface {
	CreateEvent(ctx context.Context, ev remote.Event) remote.Result[string]
	UpdateEvent(ctx context.Context, eventID string, ev remote.Event) remote.Result[remote.Done]
	DeleteEvent(ctx context.Context, eventID string) remote.Result[remote.Done]
}

// Reminders schedules the single deferred reminder of a task.
type Reminders interface {
	Schedule(ctx context.Context, t model.Task) (reminder.Plan, error)
	Cancel(ctx context.Context, taskID int64) error
}

// Action is what an update must do to the task's calendar event.
type Action int

const (
	ActionNone Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	default:
		return "none"
	}
}

// Decide picks the calendar action for an update from the event id the task
// had before the edit and the schedule it has after it.
func Decide(prev, next model.Task) Action {
	hadEvent := prev.EventID != ""
	hasSchedule := next.HasSchedule()
	switch {
	case hadEvent && hasSchedule:
		return ActionUpdate
	case hasSchedule:
		return ActionCreate
	case hadEvent:
		return ActionDelete
	default:
		return ActionNone
	}
}

// Orchestrator applies task mutations locally and mirrors them to the calendar
// and the reminder queue.
type Orchestrator struct {
	store     TaskStore
	calendar  Calendar
	reminders Reminders
	loc       *time.Location
}

// New builds an orchestrator. Task dates and times are interpreted in loc.
func New(store TaskStore, calendar Calendar, reminders Reminders, loc *time.Location) *Orchestrator {
	if loc == nil {
		loc = time.Local
	}
	return &Orchestrator{store: store, calendar: calendar, reminders: reminders, loc: loc}
}

// Insert persists a new task, creates its calendar event when it has a full
// schedule and schedules its reminder. The returned task carries the
// assigned id and, when the event was created, its event id.
func (o *Orchestrator) Insert(ctx context.Context, task model.Task) (model.Task, error) {
	if task.ID != 0 {
		return task, fmt.Errorf("insert task: already has id %d", task.ID)
	}
	if err := task.Validate(); err != nil {
		return task, err
	}
	task.EventID = ""

	id, err := o.store.Insert(ctx, task)
	if err != nil {
		return task, fmt.Errorf("insert task: %w", err)
	}
	task.ID = id

	if task.HasSchedule() {
		if task, err = o.createEvent(ctx, task); err != nil {
			return task, err
		}
	}

	o.schedule(ctx, task)
	return task, nil
}

// Update persists next over prev and reconciles the calendar event and the
// reminder. The event id of prev is the one that counts; next.EventID is
// ignored.
func (o *Orchestrator) Update(ctx context.Context, prev, next model.Task) (model.Task, error) {
	if prev.ID == 0 {
		return next, fmt.Errorf("update task: previous snapshot has no id")
	}
	if next.ID == 0 {
		next.ID = prev.ID
	}
	if next.ID != prev.ID {
		return next, fmt.Errorf("update task: snapshots disagree on id (%d != %d)", prev.ID, next.ID)
	}
	if err := next.Validate(); err != nil {
		return next, err
	}
	next.EventID = prev.EventID

	if err := o.store.Update(ctx, next); err != nil {
		return next, fmt.Errorf("update task %d: %w", next.ID, err)
	}

	action := Decide(prev, next)
	logger := log.WithFields(log.Fields{"task": next.ID, "action": action.String()})
	switch action {
	case ActionUpdate:
		ev, _ := remote.EventFor(next, o.loc)
		if res := o.calendar.UpdateEvent(ctx, prev.EventID, ev); !res.Ok() {
			logger.WithError(res.Reason).Warn("calendar event not updated")
		}
	case ActionCreate:
		var err error
		if next, err = o.createEvent(ctx, next); err != nil {
			return next, err
		}
	case ActionDelete:
		if res := o.calendar.DeleteEvent(ctx, prev.EventID); !res.Ok() {
			logger.WithError(res.Reason).Warn("calendar event not deleted")
		}
		if err := o.store.SetEventID(ctx, next.ID, ""); err != nil {
			return next, fmt.Errorf("clear event id of task %d: %w", next.ID, err)
		}
		next.EventID = ""
	}

	o.schedule(ctx, next)
	return next, nil
}

// SetCompleted toggles the completion flag. It is an ordinary update, so the
// reminder is dropped for completed tasks and restored when reopened.
func (o *Orchestrator) SetCompleted(ctx context.Context, prev model.Task, done bool) (model.Task, error) {
	next := prev
	next.Completed = done
	return o.Update(ctx, prev, next)
}

// Delete removes the task row after a best-effort delete of its calendar
// event, then cancels its reminder.
func (o *Orchestrator) Delete(ctx context.Context, task model.Task) error {
	if task.ID == 0 {
		return fmt.Errorf("delete task: no id")
	}
	logger := log.WithField("task", task.ID)

	if task.EventID != "" {
		if res := o.calendar.DeleteEvent(ctx, task.EventID); !res.Ok() {
			logger.WithError(res.Reason).Warn("calendar event not deleted")
		}
	}

	if err := o.store.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("delete task %d: %w", task.ID, err)
	}

	if o.reminders != nil {
		if err := o.reminders.Cancel(ctx, task.ID); err != nil {
			logger.WithError(err).Warn("reminder not cancelled")
		}
	}
	logger.Info("task deleted")
	return nil
}

// createEvent creates the event of an identified task and stores its id.
func (o *Orchestrator) createEvent(ctx context.Context, task model.Task) (model.Task, error) {
	logger := log.WithField("task", task.ID)
	ev, ok := remote.EventFor(task, o.loc)
	if !ok {
		return task, nil
	}

	res := o.calendar.CreateEvent(ctx, ev)
	if !res.Ok() {
		logger.WithError(res.Reason).Warn("calendar event not created")
		return task, nil
	}

	if err := o.store.SetEventID(ctx, task.ID, res.Value); err != nil {
		// Drop the event again so no orphan is left behind.
		if del := o.calendar.DeleteEvent(ctx, res.Value); !del.Ok() {
			logger.WithError(del.Reason).Warnf("orphaned calendar event %s", res.Value)
		}
		return task, fmt.Errorf("store event id of task %d: %w", task.ID, err)
	}
	task.EventID = res.Value
	logger.WithField("event", res.Value).Info("calendar event linked")
	return task, nil
}

func (o *Orchestrator) schedule(ctx context.Context, task model.Task) {
	if o.reminders == nil {
		return
	}
	if _, err := o.reminders.Schedule(ctx, task); err != nil {
		log.WithError(err).WithField("task", task.ID).Warn("reminder not scheduled")
	}
}
