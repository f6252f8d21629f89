package reminder

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskera/pkg/jobs"
	"github.com/harrisonrobin/taskera/pkg/model"
)

const (
	DefaultLeadMinutes = 30
	DefaultStaleAfter  = time.Hour
)

// Settings exposes the global reminder configuration.
type Settings interface {
	RemindersEnabled(ctx context.Context) (bool, error)
	DefaultLeadMinutes(ctx context.Context) (int, error)
}

// Queue is the deferred-job system. EnqueueUnique must replace any job
// already pending under the key.
type Queue interface {
	EnqueueUnique(ctx context.Context, key string, runAt time.Time, payload any) (jobs.Job, error)
	CancelUnique(ctx context.Context, key string) error
}

// Payload is carried by every reminder job.
type Payload struct {
	TaskID    int64     `json:"taskId"`
	Title     string    `json:"title"`
	TriggerAt time.Time `json:"triggerAt"`
}

type SkipReason string

const (
	SkipDisabled  SkipReason = "reminders disabled"
	SkipCompleted SkipReason = "task completed"
	SkipNoDueDate SkipReason = "no due date"
	SkipPast      SkipReason = "trigger time passed"
)

// Plan records what Schedule decided for a task.
type Plan struct {
	TaskID    int64
	Scheduled bool
	TriggerAt time.Time
	Lead      time.Duration
	Skip      SkipReason
}

// Scheduler keeps at most one pending reminder per task id.
type Scheduler struct {
	queue    Queue
	settings Settings
	loc      *time.Location
	now      func() time.Time
}

func NewScheduler(queue Queue, settings Settings, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{queue: queue, settings: settings, loc: loc, now: time.Now}
}

// Schedule cancels the task's pending reminder and, when the task is
// eligible, enqueues a new one at due time minus the lead interval.
func (s *Scheduler) Schedule(ctx context.Context, task model.Task) (Plan, error) {
	if task.ID == 0 {
		return Plan{}, fmt.Errorf("schedule reminder: task has no id")
	}
	plan := Plan{TaskID: task.ID}

	if err := s.Cancel(ctx, task.ID); err != nil {
		return plan, err
	}

	enabled, defaultLead := s.readSettings(ctx)
	switch {
	case !enabled:
		plan.Skip = SkipDisabled
	case task.Completed:
		plan.Skip = SkipCompleted
	case task.DueDate == nil:
		plan.Skip = SkipNoDueDate
	}
	if plan.Skip != "" {
		log.WithField("task", task.ID).Debugf("reminder skipped: %s", plan.Skip)
		return plan, nil
	}

	leadMin := defaultLead
	if task.LeadTimeMin != nil {
		leadMin = *task.LeadTimeMin
	}
	plan.Lead = time.Duration(leadMin) * time.Minute

	due, _ := task.DueAt(s.loc)
	plan.TriggerAt = due.Add(-plan.Lead)

	now := s.now()
	if !plan.TriggerAt.After(now) {
		plan.Skip = SkipPast
		log.WithField("task", task.ID).Debugf("reminder skipped: trigger %s is not after %s", plan.TriggerAt.Format(time.RFC3339), now.Format(time.RFC3339))
		return plan, nil
	}

	payload := Payload{TaskID: task.ID, Title: task.Title, TriggerAt: plan.TriggerAt}
	if _, err := s.queue.EnqueueUnique(ctx, model.JobKey(task.ID), plan.TriggerAt, payload); err != nil {
		return plan, fmt.Errorf("schedule reminder for task %d: %w", task.ID, err)
	}
	plan.Scheduled = true

	log.WithFields(log.Fields{
		"task":    task.ID,
		"trigger": plan.TriggerAt.Format(time.RFC3339),
		"delay":   plan.TriggerAt.Sub(now).Round(time.Second).String(),
	}).Info("reminder scheduled")
	return plan, nil
}

// Cancel drops the pending reminder of a task, if any.
func (s *Scheduler) Cancel(ctx context.Context, taskID int64) error {
	if err := s.queue.CancelUnique(ctx, model.JobKey(taskID)); err != nil {
		return fmt.Errorf("cancel reminder for task %d: %w", taskID, err)
	}
	return nil
}

func (s *Scheduler) readSettings(ctx context.Context) (bool, int) {
	enabled, defaultLead := true, DefaultLeadMinutes
	if s.settings == nil {
		return enabled, defaultLead
	}
	if v, err := s.settings.RemindersEnabled(ctx); err != nil {
		log.WithError(err).Warn("could not read reminder switch, using default")
	} else {
		enabled = v
	}
	if v, err := s.settings.DefaultLeadMinutes(ctx); err != nil {
		log.WithError(err).Warn("could not read default lead, using default")
	} else {
		defaultLead = v
	}
	return enabled, defaultLead
}
