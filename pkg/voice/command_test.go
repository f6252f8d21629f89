package voice

import (
	"errors"
	"testing"
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

var today = model.NewDate(2025, time.June, 10)

func TestParse(t *testing.T) {
	tomorrow := today.AddDays(1)
	third := model.NewDate(2025, time.June, 3)

	tests := []struct {
		spoken string
		want   Command
	}{
		{"Add task", Command{Kind: KindAdd}},
		{"please add task buy milk", Command{Kind: KindAdd, Query: "buy milk"}},
		{"Add Task Buy Milk", Command{Kind: KindAdd, Query: "Buy Milk"}},
		{"Delete task Dentist", Command{Kind: KindDelete, Query: "Dentist"}},
		{"edit task  weekly report ", Command{Kind: KindEdit, Query: "weekly report"}},
		{"show tasks", Command{Kind: KindShow}},
		{"show tasks all", Command{Kind: KindShow, All: true}},
		{"show tasks today", Command{Kind: KindShow, Day: &today}},
		{"show tasks tomorrow", Command{Kind: KindShow, Day: &tomorrow}},
		{"show tasks 06/03/2025", Command{Kind: KindShow, Day: &third}},
		{"open settings", Command{Kind: KindSettings}},
		{"go to dashboard", Command{Kind: KindDashboard}},
		{"daily plan", Command{Kind: KindDailyPlan}},
		{"what's the weather", Command{Kind: KindUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.spoken, func(t *testing.T) {
			got, err := Parse(tt.spoken, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.want.Kind || got.Query != tt.want.Query || got.All != tt.want.All {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			if (got.Day == nil) != (tt.want.Day == nil) || (got.Day != nil && *got.Day != *tt.want.Day) {
				t.Fatalf("day = %v, want %v", got.Day, tt.want.Day)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("delete task", today); !errors.Is(err, ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
	if _, err := Parse("edit task   ", today); !errors.Is(err, ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
	if _, err := Parse("show tasks next week", today); !errors.Is(err, ErrBadDate) {
		t.Errorf("expected ErrBadDate, got %v", err)
	}
}

func TestBareShowNeedsTarget(t *testing.T) {
	cmd, _ := Parse("show tasks", today)
	if !cmd.NeedsTarget() {
		t.Fatal("bare show should ask for a target")
	}
	answer, err := ParseShowTarget("All of them", today)
	if err != nil || !answer.All || answer.NeedsTarget() {
		t.Fatalf("unexpected answer %+v, %v", answer, err)
	}
}

func TestMatch(t *testing.T) {
	tasks := []model.Task{{Title: "Dentist appointment"}, {Title: "Call dentist"}, {Title: "Groceries"}}

	if got := Match(tasks, "GROCER"); len(got) != 1 || got[0].Title != "Groceries" {
		t.Errorf("expected a single match, got %+v", got)
	}
	if got := Match(tasks, "dentist"); len(got) != 2 {
		t.Errorf("expected two matches, got %+v", got)
	}
	if got := Match(tasks, "gym"); len(got) != 0 {
		t.Errorf("expected no matches, got %+v", got)
	}
}

func TestDescribe(t *testing.T) {
	due := today
	tasks := []model.Task{{Title: "a", DueDate: &due}, {Title: "b"}}

	if got := Describe(Command{Kind: KindShow, All: true}, tasks); got != "All tasks: a, b" {
		t.Errorf("all: %q", got)
	}
	if got := Describe(Command{Kind: KindShow, Day: &due}, tasks); got != "Tasks on 06/10/2025: a" {
		t.Errorf("day: %q", got)
	}
	other := today.AddDays(2)
	if got := Describe(Command{Kind: KindShow, Day: &other}, tasks); got != "No tasks found for 06/12/2025" {
		t.Errorf("empty day: %q", got)
	}
}
