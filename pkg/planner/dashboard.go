package planner

import (
	"github.com/harrisonrobin/taskera/pkg/model"
)

// TrendDays is the length of the dashboard windows, today included.
const TrendDays = 7

type CategoryCount struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

type DayCount struct {
	Day   model.Date `json:"-"`
	Date  string     `json:"date"`
	Count int        `json:"count"`
}

type Dashboard struct {
	Today          string          `json:"today"`
	CompletedToday int             `json:"completedToday"`
	TotalToday     int             `json:"totalToday"`
	WeekByCategory []CategoryCount `json:"weekByCategory"`
	Trend          []DayCount      `json:"trend"`
}

// Progress is the share of today's tasks that are done, 0 when there are none.
func (d Dashboard) Progress() float64 {
	if d.TotalToday == 0 {
		return 0
	}
	return float64(d.CompletedToday) / float64(d.TotalToday)
}

// BuildDashboard computes today's progress, the tasks of the last seven days
// per category and the completed tasks per due day over the same window.
func BuildDashboard(tasks []model.Task, today model.Date) Dashboard {
	first := today.AddDays(-(TrendDays - 1))
	d := Dashboard{Today: today.String()}

	perCategory := map[model.Category]int{}
	completedPerDay := map[model.Date]int{}
	for _, t := range tasks {
		if t.DueDate == nil {
			continue
		}
		due := *t.DueDate
		if due == today {
			d.TotalToday++
			if t.Completed {
				d.CompletedToday++
			}
		}
		if due.Before(first) || today.Before(due) {
			continue
		}
		perCategory[t.Category.Bucket()]++
		if t.Completed {
			completedPerDay[due]++
		}
	}

	for _, c := range model.Categories {
		if n := perCategory[c]; n > 0 {
			d.WeekByCategory = append(d.WeekByCategory, CategoryCount{Category: c, Count: n})
		}
	}
	for i := 0; i < TrendDays; i++ {
		day := first.AddDays(i)
		d.Trend = append(d.Trend, DayCount{Day: day, Date: day.String(), Count: completedPerDay[day]})
	}
	return d
}
