package planner

import (
	"testing"
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

func ptr[T any](v T) *T { return &v }

var day = model.NewDate(2025, time.June, 10)

func timed(title string, startH, startM, endH, endM int) model.Task {
	return model.Task{
		Title:     title,
		DueDate:   ptr(day),
		StartTime: ptr(model.NewClock(startH, startM)),
		EndTime:   ptr(model.NewClock(endH, endM)),
	}
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortTasks(t *testing.T) {
	tasks := []model.Task{
		{Title: "low", Priority: model.PriorityLow, DueDate: ptr(day.AddDays(1))},
		{Title: "none", Priority: "Urgent"},
		{Title: "high", Priority: model.PriorityHigh, DueDate: ptr(day.AddDays(3))},
		{Title: "medium", Priority: model.PriorityMedium, DueDate: ptr(day)},
		{Title: "high2", Priority: model.PriorityHigh},
	}

	tests := []struct {
		mode SortMode
		want []string
	}{
		{SortDefault, []string{"low", "none", "high", "medium", "high2"}},
		{SortPriority, []string{"high", "high2", "medium", "low", "none"}},
		{SortDueDate, []string{"medium", "low", "high", "none", "high2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := titles(SortTasks(tasks, tt.mode))
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
	if tasks[0].Title != "low" {
		t.Error("SortTasks must not reorder its input")
	}
}

func TestParseSortMode(t *testing.T) {
	for in, want := range map[string]SortMode{"": SortDefault, "Priority": SortPriority, "due-date": SortDueDate} {
		got, err := ParseSortMode(in)
		if err != nil || got != want {
			t.Errorf("ParseSortMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSortMode("alphabetical"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestDayPlanSegments(t *testing.T) {
	tasks := []model.Task{
		timed("lunch", 12, 0, 13, 0),
		timed("standup", 9, 0, 9, 15),
		timed("review", 9, 15, 10, 0),
		{Title: "untimed", DueDate: ptr(day)},
		func() model.Task { t := timed("tomorrow", 8, 0, 9, 0); t.DueDate = ptr(day.AddDays(1)); return t }(),
	}

	segments := DayPlan(tasks, day, time.UTC)

	type seg struct {
		kind       SegmentKind
		start, end string
		title      string
	}
	want := []seg{
		{SegmentFree, "00:00:00", "09:00:00", ""},
		{SegmentTask, "09:00:00", "09:15:00", "standup"},
		{SegmentTask, "09:15:00", "10:00:00", "review"},
		{SegmentFree, "10:00:00", "12:00:00", ""},
		{SegmentTask, "12:00:00", "13:00:00", "lunch"},
		{SegmentFree, "13:00:00", "23:59:59", ""},
	}
	if len(segments) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(segments), segments)
	}
	for i, s := range segments {
		got := seg{s.Kind, s.Start.Format("15:04:05"), s.End.Format("15:04:05"), ""}
		if s.Task != nil {
			got.title = s.Task.Title
		}
		if got != want[i] {
			t.Errorf("segment %d = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestDayPlanWithoutTimedTasksIsEmpty(t *testing.T) {
	if segments := DayPlan([]model.Task{{Title: "untimed", DueDate: ptr(day)}}, day, time.UTC); segments != nil {
		t.Fatalf("expected no plan, got %+v", segments)
	}
}

func TestDayPlanOverlapDoesNotInventGap(t *testing.T) {
	tasks := []model.Task{timed("long", 9, 0, 12, 0), timed("short", 10, 0, 11, 0), timed("after", 12, 0, 13, 0)}
	for _, s := range DayPlan(tasks, day, time.UTC) {
		if s.Kind == SegmentFree && s.Start.Hour() >= 9 && s.End.Hour() <= 12 {
			t.Errorf("unexpected free segment %s-%s", s.Start.Format("15:04"), s.End.Format("15:04"))
		}
	}
}

func TestBuildDashboard(t *testing.T) {
	done := func(task model.Task) model.Task { task.Completed = true; return task }
	on := func(d model.Date, c model.Category) model.Task {
		return model.Task{Title: "t", DueDate: ptr(d), Category: c}
	}
	tasks := []model.Task{
		done(on(day, model.CategoryWork)),
		on(day, model.CategoryWork),
		on(day, "Hobby"),
		done(on(day.AddDays(-2), model.CategoryHealth)),
		done(on(day.AddDays(-6), model.CategoryStudy)),
		done(on(day.AddDays(-7), model.CategoryStudy)), // outside the window
		on(day.AddDays(1), model.CategoryWork),         // future
		{Title: "undated", Completed: true},
	}

	d := BuildDashboard(tasks, day)

	if d.CompletedToday != 1 || d.TotalToday != 3 {
		t.Errorf("today = %d/%d, want 1/3", d.CompletedToday, d.TotalToday)
	}
	if p := d.Progress(); p < 0.33 || p > 0.34 {
		t.Errorf("progress = %v", p)
	}

	wantCats := []CategoryCount{
		{model.CategoryWork, 2},
		{model.CategoryStudy, 1},
		{model.CategoryHealth, 1},
		{model.CategoryOther, 1},
	}
	if len(d.WeekByCategory) != len(wantCats) {
		t.Fatalf("categories = %+v", d.WeekByCategory)
	}
	for i := range wantCats {
		if d.WeekByCategory[i] != wantCats[i] {
			t.Errorf("category %d = %+v, want %+v", i, d.WeekByCategory[i], wantCats[i])
		}
	}

	if len(d.Trend) != TrendDays {
		t.Fatalf("trend has %d days", len(d.Trend))
	}
	if d.Trend[0].Day != day.AddDays(-6) || d.Trend[6].Day != day {
		t.Errorf("trend window %s..%s", d.Trend[0].Date, d.Trend[6].Date)
	}
	wantTrend := []int{1, 0, 0, 0, 1, 0, 1}
	for i, n := range wantTrend {
		if d.Trend[i].Count != n {
			t.Errorf("trend[%d] = %d, want %d", i, d.Trend[i].Count, n)
		}
	}
}
