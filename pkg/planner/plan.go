package planner

import (
	"slices"
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

type SegmentKind string

const (
	SegmentFree SegmentKind = "free"
	SegmentTask SegmentKind = "task"
)

// Segment is one block of a daily plan. Task is set for task segments only.
type Segment struct {
	Kind  SegmentKind
	Start time.Time
	End   time.Time
	Task  *model.Task
}

func (s Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// TimedTasks returns the tasks due on day that have both times, ordered by
// start time.
func TimedTasks(tasks []model.Task, day model.Date) []model.Task {
	var timed []model.Task
	for _, t := range tasks {
		if t.HasSchedule() && *t.DueDate == day {
			timed = append(timed, t)
		}
	}
	slices.SortStableFunc(timed, func(a, b model.Task) int {
		return a.StartTime.Minutes() - b.StartTime.Minutes()
	})
	return timed
}

// DayPlan lays the timed tasks of day out between 00:00 and 23:59:59 with
// free segments in the gaps. A day without timed tasks has no plan.
func DayPlan(tasks []model.Task, day model.Date, loc *time.Location) []Segment {
	timed := TimedTasks(tasks, day)
	if len(timed) == 0 {
		return nil
	}

	dayStart := day.In(loc)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Second)

	var segments []Segment
	cursor := dayStart
	for i := range timed {
		task := timed[i]
		start, end, _ := task.Window(loc)
		if start.After(cursor) {
			segments = append(segments, Segment{Kind: SegmentFree, Start: cursor, End: start})
		}
		segments = append(segments, Segment{Kind: SegmentTask, Start: start, End: end, Task: &task})
		// Overlapping tasks must not open a gap that is already taken.
		if end.After(cursor) {
			cursor = end
		}
	}
	if dayEnd.After(cursor) {
		segments = append(segments, Segment{Kind: SegmentFree, Start: cursor, End: dayEnd})
	}
	return segments
}
