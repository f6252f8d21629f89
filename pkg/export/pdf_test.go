package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harrisonrobin/taskera/pkg/model"
)

func ptr[T any](v T) *T { return &v }

var day = model.NewDate(2025, time.June, 3)

func TestNames(t *testing.T) {
	if got := FileName(day); got != "daily_plan_06032025.pdf" {
		t.Errorf("FileName = %q", got)
	}
	if got := Title(day); got != "Daily Plan – 06032025" {
		t.Errorf("Title = %q", got)
	}
}

func TestLine(t *testing.T) {
	tests := []struct {
		task model.Task
		want string
	}{
		{
			model.Task{Title: "Standup", StartTime: ptr(model.NewClock(9, 0)), EndTime: ptr(model.NewClock(9, 15)), Category: model.CategoryWork},
			"• [09:00 – 09:15] Standup (Work)",
		},
		{model.Task{Title: "Read"}, "• Read"},
	}
	for _, tt := range tests {
		if got := Line(tt.task); got != tt.want {
			t.Errorf("Line() = %q, want %q", got, tt.want)
		}
	}
}

func TestWritePlanProducesPDF(t *testing.T) {
	var tasks []model.Task
	for i := 0; i < 60; i++ {
		tasks = append(tasks, model.Task{Title: "task", Category: model.CategoryOther})
	}

	var buf bytes.Buffer
	if err := WritePlan(&buf, day, tasks); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:16])
	}
}

func TestSavePlan(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plans")
	path, err := SavePlan(dir, day, nil)
	if err != nil {
		t.Fatalf("save plan: %v", err)
	}
	if filepath.Base(path) != "daily_plan_06032025.pdf" {
		t.Errorf("unexpected path %s", path)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected a non-empty file, got %v %v", info, err)
	}
}
