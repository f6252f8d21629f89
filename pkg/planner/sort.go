// Package planner holds the read-side views over a list of tasks: sorting,
// the daily plan and the dashboard figures.
package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/harrisonrobin/taskera/pkg/model"
)

type SortMode string

const (
	SortDefault  SortMode = "default"
	SortPriority SortMode = "priority"
	SortDueDate  SortMode = "due"
)

var SortModes = []SortMode{SortDefault, SortPriority, SortDueDate}

func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return SortDefault, nil
	case "priority":
		return SortPriority, nil
	case "due", "due-date", "duedate", "date":
		return SortDueDate, nil
	}
	return "", fmt.Errorf("unknown sort mode %q (want one of %v)", s, SortModes)
}

// SortTasks returns a sorted copy. Ties keep their input order.
//
// Priority puts High, then Medium, then everything else. Due date puts
// tasks without a date last.
func SortTasks(tasks []model.Task, mode SortMode) []model.Task {
	out := slices.Clone(tasks)
	switch mode {
	case SortPriority:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	case SortDueDate:
		slices.SortStableFunc(out, compareDue)
	}
	return out
}

func compareDue(a, b model.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	case a.DueDate.Before(*b.DueDate):
		return -1
	case b.DueDate.Before(*a.DueDate):
		return 1
	}
	return 0
}
