package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"smsdispatch/internal/model"
)

func TestWorkbook_HeadersAndRows(t *testing.T) {
	t.Parallel()

	deviceName := "sim-1"
	reason := "network error"

	tasks := []model.TaskView{
		{
			Task: model.Task{
				ID:      uuid.New(),
				Content: "hello there",
				DueAt:   time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC),
				Status:  model.StatusSent,
			},
			ContactName:  "Alice",
			ContactPhone: "+361234567",
			DeviceName:   &deviceName,
		},
		{
			Task: model.Task{
				ID:      uuid.New(),
				Content: "doomed",
				DueAt:   time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC),
				Status:  model.StatusFailed,
				Error:   &reason,
			},
			ContactName:  "Bob",
			ContactPhone: "+367654321",
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, tasks); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	if rows[0][0] != "ID" || rows[0][6] != "Status" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}

	if rows[1][1] != "Alice" || rows[1][3] != "sim-1" || rows[1][6] != "sent" {
		t.Fatalf("unexpected first data row: %v", rows[1])
	}
	if rows[2][6] != "failed" || rows[2][7] != "network error" {
		t.Fatalf("unexpected second data row: %v", rows[2])
	}
}

func TestWorkbook_EmptyProjection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header row only, got %d rows", len(rows))
	}
}
