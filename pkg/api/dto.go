package api

import (
	"fmt"
	"strings"

	"github.com/harrisonrobin/taskera/pkg/model"
	"github.com/harrisonrobin/taskera/pkg/planner"
)

type taskJSON struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
	EventID     string `json:"eventId,omitempty"`
	LeadTimeMin *int   `json:"leadTimeMin,omitempty"`
}

// taskInput is the body of POST /tasks and PUT /tasks/:id.
type taskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
	LeadTimeMin *int   `json:"leadTimeMin"`
}

func toJSON(t model.Task) taskJSON {
	out := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		Category:    string(t.Category),
		Completed:   t.Completed,
		EventID:     t.EventID,
		LeadTimeMin: t.LeadTimeMin,
	}
	if t.DueDate != nil {
		out.DueDate = t.DueDate.String()
	}
	if t.StartTime != nil {
		out.StartTime = t.StartTime.String()
	}
	if t.EndTime != nil {
		out.EndTime = t.EndTime.String()
	}
	return out
}

func toJSONList(tasks []model.Task) []taskJSON {
	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toJSON(t))
	}
	return out
}

// apply copies the input onto t, keeping its identity and linkage.
func (in taskInput) apply(t model.Task) (model.Task, error) {
	t.Title = strings.TrimSpace(in.Title)
	t.Description = in.Description
	t.Priority = model.ParsePriority(in.Priority)
	t.Category = model.ParseCategory(in.Category)
	t.Completed = in.Completed
	t.LeadTimeMin = in.LeadTimeMin
	t.DueDate, t.StartTime, t.EndTime = nil, nil, nil

	if in.DueDate != "" {
		d, err := model.ParseDate(in.DueDate)
		if err != nil {
			return t, fmt.Errorf("%w: %v", model.ErrInvalidTask, err)
		}
		t.DueDate = &d
	}
	if in.StartTime != "" {
		c, err := model.ParseClock(in.StartTime)
		if err != nil {
			return t, fmt.Errorf("%w: %v", model.ErrInvalidTask, err)
		}
		t.StartTime = &c
	}
	if in.EndTime != "" {
		c, err := model.ParseClock(in.EndTime)
		if err != nil {
			return t, fmt.Errorf("%w: %v", model.ErrInvalidTask, err)
		}
		t.EndTime = &c
	}
	return t, nil
}

type segmentJSON struct {
	Kind    planner.SegmentKind `json:"kind"`
	Start   string              `json:"start"`
	End     string              `json:"end"`
	Minutes int                 `json:"minutes"`
	Task    *taskJSON           `json:"task,omitempty"`
}

func toSegmentJSON(segments []planner.Segment) []segmentJSON {
	out := make([]segmentJSON, 0, len(segments))
	for _, s := range segments {
		seg := segmentJSON{
			Kind:    s.Kind,
			Start:   s.Start.Format("15:04:05"),
			End:     s.End.Format("15:04:05"),
			Minutes: int(s.Duration().Minutes()),
		}
		if s.Task != nil {
			tj := toJSON(*s.Task)
			seg.Task = &tj
		}
		out = append(out, seg)
	}
	return out
}

type settingsJSON struct {
	RemindersEnabled   bool `json:"remindersEnabled"`
	DefaultLeadMinutes int  `json:"defaultLeadMinutes"`
}

// settingsInput is a PUT /settings body. Absent fields keep their value.
type settingsInput struct {
	RemindersEnabled   *bool `json:"remindersEnabled"`
	DefaultLeadMinutes *int  `json:"defaultLeadMinutes"`
}
