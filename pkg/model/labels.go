package model

import "strings"

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities High=1, Medium=2, anything else=3.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// ParsePriority matches case-insensitively and falls back to Low.
func ParsePriority(s string) Priority {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p
		}
	}
	return PriorityLow
}

type Category string

const (
	CategoryPersonal Category = "Personal"
	CategoryWork     Category = "Work"
	CategoryStudy    Category = "Study"
	CategoryHealth   Category = "Health"
	CategoryFinance  Category = "Finance"
	CategoryOther    Category = "Other"
)

var Categories = []Category{
	CategoryPersonal,
	CategoryWork,
	CategoryStudy,
	CategoryHealth,
	CategoryFinance,
	CategoryOther,
}

// Bucket maps unknown categories to Other.
func (c Category) Bucket() Category {
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryOther
}

// ParseCategory matches case-insensitively; empty input yields Personal and
// anything unrecognised yields Other.
func ParseCategory(s string) Category {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryPersonal
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CategoryOther
}
