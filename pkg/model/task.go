package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTask is returned when a task fails validation before it is persisted.
var ErrInvalidTask = errors.New("invalid task")

// Task is a user-created to-do item with optional scheduling fields.
type Task struct {
	ID          int64 // 0 until the store assigns one
	Title       string
	Description string
	DueDate     *Date
	StartTime   *Clock
	EndTime     *Clock
	Priority    Priority
	Category    Category
	Completed   bool
	EventID     string // empty when no calendar event exists
	LeadTimeMin *int   // per-task reminder override, nil uses the default
	Owner       string // account email
}

// HasSchedule reports whether the task carries a due date and both times.
func (t Task) HasSchedule() bool {
	return t.DueDate != nil && t.StartTime != nil && t.EndTime != nil
}

// Window returns the start and end instants of a fully scheduled task.
func (t Task) Window(loc *time.Location) (start, end time.Time, ok bool) {
	if !t.HasSchedule() {
		return time.Time{}, time.Time{}, false
	}
	return Combine(*t.DueDate, *t.StartTime, loc), Combine(*t.DueDate, *t.EndTime, loc), true
}

// DueAt is the due date combined with the start time, or midnight when no
// start time is set.
func (t Task) DueAt(loc *time.Location) (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	clock := Midnight
	if t.StartTime != nil {
		clock = *t.StartTime
	}
	return Combine(*t.DueDate, clock, loc), true
}

// Validate checks the fields a task needs before it can be stored.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if strings.TrimSpace(t.Owner) == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidTask)
	}
	if (t.StartTime == nil) != (t.EndTime == nil) {
		return fmt.Errorf("%w: start and end time must be set together", ErrInvalidTask)
	}
	if t.StartTime != nil && t.DueDate == nil {
		return fmt.Errorf("%w: start and end time require a due date", ErrInvalidTask)
	}
	if t.StartTime != nil && !t.StartTime.Before(*t.EndTime) {
		return fmt.Errorf("%w: end time %s is not after start time %s", ErrInvalidTask, t.EndTime, t.StartTime)
	}
	if t.LeadTimeMin != nil && *t.LeadTimeMin < 0 {
		return fmt.Errorf("%w: lead time must not be negative", ErrInvalidTask)
	}
	return nil
}

// JobKey is the deferred-job key of the reminder for a task id.
func JobKey(taskID int64) string {
	return fmt.Sprintf("reminder-%d", taskID)
}
