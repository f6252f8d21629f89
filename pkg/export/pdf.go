// Package export renders the daily plan as a one-page PDF.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/harrisonrobin/taskera/pkg/model"
)

const (
	fileDateLayout = "01022006" // MMddyyyy

	pageHeight   = 842.0 // A4 in points
	marginX      = 40.0
	titleY       = 50.0
	firstLineY   = 80.0
	lineSpacing  = 24.0
	bottomMargin = 40.0
)

// FileName is daily_plan_MMddyyyy.pdf.
func FileName(day model.Date) string {
	return fmt.Sprintf("daily_plan_%s.pdf", day.In(time.UTC).Format(fileDateLayout))
}

func Title(day model.Date) string {
	return "Daily Plan – " + day.In(time.UTC).Format(fileDateLayout)
}

// Line renders one task as "• [09:00 – 10:00] Title (Category)". The time
// range and category are left out when missing.
func Line(t model.Task) string {
	line := "• "
	if t.StartTime != nil && t.EndTime != nil {
		line += fmt.Sprintf("[%s – %s] ", t.StartTime, t.EndTime)
	}
	line += t.Title
	if t.Category != "" {
		line += fmt.Sprintf(" (%s)", t.Category)
	}
	return line
}

// WritePlan writes the plan for day to w. Lines that do not fit on the page
// are dropped.
func WritePlan(w io.Writer, day model.Date, tasks []model.Task) error {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(Title(day), true)
	pdf.SetCreator("taskera", false)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(marginX, titleY, tr(Title(day)))

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(64, 64, 64)
	y := firstLineY
	for _, t := range tasks {
		if y > pageHeight-bottomMargin {
			break
		}
		pdf.Text(marginX, y, tr(Line(t)))
		y += lineSpacing
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render daily plan: %w", err)
	}
	return nil
}

// SavePlan writes the plan into dir and returns the file path.
func SavePlan(dir string, day model.Date, tasks []model.Task) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(day))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePlan(f, day, tasks); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
