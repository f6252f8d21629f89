// Package voice turns a transcribed phrase into an app command.
package voice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

// SpokenDateLayout is how dates are read out: MM/dd/yyyy.
const SpokenDateLayout = "01/02/2006"

type Kind string

const (
	KindAdd       Kind = "add"
	KindDelete    Kind = "delete"
	KindEdit      Kind = "edit"
	KindShow      Kind = "show"
	KindSettings  Kind = "settings"
	KindDashboard Kind = "dashboard"
	KindDailyPlan Kind = "daily plan"
	KindUnknown   Kind = "unknown"
)

var (
	ErrMissingName = errors.New("missing task name")
	ErrBadDate     = errors.New("could not parse date")
)

// Command is a parsed phrase.
type Command struct {
	Kind Kind
	// Query is the task name of delete and edit, or the title of add.
	Query string
	// Show targets: every task, one day, or neither when the user still has
	// to be asked.
	All bool
	Day *model.Date
}

// NeedsTarget reports a bare "show tasks" that needs a follow-up answer.
func (c Command) NeedsTarget() bool {
	return c.Kind == KindShow && !c.All && c.Day == nil
}

// Parse reads a phrase. Relative days resolve against today.
func Parse(spoken string, today model.Date) (Command, error) {
	raw := strings.TrimSpace(spoken)
	s := strings.ToLower(raw)

	switch {
	case strings.Contains(s, "add task"):
		return Command{Kind: KindAdd, Query: strings.TrimSpace(after(raw, "add task"))}, nil
	case strings.HasPrefix(s, "delete task"):
		return named(KindDelete, after(raw, "delete task"))
	case strings.HasPrefix(s, "edit task"):
		return named(KindEdit, after(raw, "edit task"))
	case strings.HasPrefix(s, "show tasks"):
		rest := strings.TrimSpace(strings.TrimPrefix(s, "show tasks"))
		if rest == "" {
			return Command{Kind: KindShow}, nil
		}
		return ParseShowTarget(rest, today)
	case strings.Contains(s, "settings"):
		return Command{Kind: KindSettings}, nil
	case strings.Contains(s, "dashboard"):
		return Command{Kind: KindDashboard}, nil
	case strings.Contains(s, "daily plan"):
		return Command{Kind: KindDailyPlan}, nil
	}
	return Command{Kind: KindUnknown}, nil
}

// after returns what follows the first case-insensitive match of keyword,
// keeping the spoken casing.
func after(raw, keyword string) string {
	for i := 0; i+len(keyword) <= len(raw); i++ {
		if strings.EqualFold(raw[i:i+len(keyword)], keyword) {
			return raw[i+len(keyword):]
		}
	}
	return ""
}

func named(kind Kind, rest string) (Command, error) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return Command{Kind: kind}, fmt.Errorf("%w: say \"%s task [task name]\"", ErrMissingName, kind)
	}
	return Command{Kind: kind, Query: name}, nil
}

// ParseShowTarget reads the answer to "all tasks or a specific day?":
// "all", "today", "tomorrow" or MM/dd/yyyy.
func ParseShowTarget(answer string, today model.Date) (Command, error) {
	s := strings.ToLower(strings.TrimSpace(answer))
	cmd := Command{Kind: KindShow}
	switch {
	case strings.Contains(s, "all"):
		cmd.All = true
		return cmd, nil
	case s == "today":
		cmd.Day = &today
		return cmd, nil
	case s == "tomorrow":
		d := today.AddDays(1)
		cmd.Day = &d
		return cmd, nil
	}
	t, err := time.Parse(SpokenDateLayout, s)
	if err != nil {
		return cmd, fmt.Errorf("%w: %q", ErrBadDate, answer)
	}
	d := model.DateOf(t)
	cmd.Day = &d
	return cmd, nil
}

// Match returns the tasks whose title contains query, ignoring case.
func Match(tasks []model.Task, query string) []model.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []model.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// OnDay returns the tasks due on day.
func OnDay(tasks []model.Task, day model.Date) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if t.DueDate != nil && *t.DueDate == day {
			out = append(out, t)
		}
	}
	return out
}

// Describe renders the reply to a show command.
func Describe(cmd Command, tasks []model.Task) string {
	if cmd.All {
		if len(tasks) == 0 {
			return "No tasks to show"
		}
		return "All tasks: " + joinTitles(tasks)
	}
	if cmd.Day == nil {
		return "Do you want all tasks or tasks for a specific day? Say \"all\" or a date (e.g. MM/dd/yyyy)."
	}
	date := cmd.Day.In(time.UTC).Format(SpokenDateLayout)
	matches := OnDay(tasks, *cmd.Day)
	if len(matches) == 0 {
		return "No tasks found for " + date
	}
	return fmt.Sprintf("Tasks on %s: %s", date, joinTitles(matches))
}

func joinTitles(tasks []model.Task) string {
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return strings.Join(titles, ", ")
}
