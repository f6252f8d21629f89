package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskera/pkg/jobs"
)

// Claimer hands out jobs that are due and takes back those that could not
// be delivered.
type Claimer interface {
	ClaimDue(ctx context.Context, now time.Time, limit int64) ([]jobs.Job, error)
	Requeue(ctx context.Context, job jobs.Job, runAt time.Time) (bool, error)
}

// Notification is what the user sees when a reminder fires.
type Notification struct {
	TaskID int64
	Title  string
	Body   string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Worker delivers due reminders. A reminder that is claimed more than
// StaleAfter past its trigger time is dropped. A failed delivery is retried
// on the next poll.
type Worker struct {
	queue        Claimer
	notifier     Notifier
	StaleAfter   time.Duration
	PollInterval time.Duration
	Batch        int64
	now          func() time.Time
}

func NewWorker(queue Claimer, notifier Notifier) *Worker {
	return &Worker{
		queue:        queue,
		notifier:     notifier,
		StaleAfter:   DefaultStaleAfter,
		PollInterval: 15 * time.Second,
		Batch:        50,
		now:          time.Now,
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("reminder poll failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick claims and fires every due job once. It returns how many
// notifications were delivered.
func (w *Worker) Tick(ctx context.Context) (int, error) {
	claimed, err := w.queue.ClaimDue(ctx, w.now(), w.Batch)
	delivered := 0
	for _, job := range claimed {
		if w.fire(ctx, job) {
			delivered++
		}
	}
	return delivered, err
}

func (w *Worker) fire(ctx context.Context, job jobs.Job) bool {
	var p Payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		log.WithError(err).WithField("job", job.Key).Error("dropping reminder with unreadable payload")
		return false
	}
	logger := log.WithFields(log.Fields{"task": p.TaskID, "job": job.ID})

	if late := w.now().Sub(p.TriggerAt); late > w.StaleAfter {
		logger.WithField("late", late.Round(time.Second).String()).Warn("dropping stale reminder")
		return false
	}

	title := p.Title
	if title == "" {
		title = "Task Reminder"
	}
	n := Notification{TaskID: p.TaskID, Title: "Upcoming Task", Body: title}
	if err := w.notifier.Notify(ctx, n); err != nil {
		logger.WithError(err).Error("could not deliver reminder")
		w.retry(ctx, job, logger)
		return false
	}
	logger.Info("reminder delivered")
	return true
}

// retry puts a failed reminder back for the next poll. It is dropped as
// stale once it falls StaleAfter behind its trigger.
func (w *Worker) retry(ctx context.Context, job jobs.Job, logger *log.Entry) {
	requeued, err := w.queue.Requeue(ctx, job, w.now().Add(w.PollInterval))
	switch {
	case err != nil:
		logger.WithError(err).Error("could not requeue reminder")
	case !requeued:
		logger.Debug("newer reminder pending, not retrying")
	default:
		logger.Debug("reminder requeued")
	}
}

// LogNotifier prints reminders to a writer.
type LogNotifier struct {
	Out io.Writer
}

func (n LogNotifier) Notify(_ context.Context, note Notification) error {
	_, err := fmt.Fprintf(n.Out, "[%s] %s (task #%d)\n", note.Title, note.Body, note.TaskID)
	return err
}
