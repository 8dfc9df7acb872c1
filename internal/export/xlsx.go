package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"smsdispatch/internal/model"
)

const sheetName = "Tasks"

var headers = []string{"ID", "Contact", "Phone", "Device", "Content", "Due At", "Status", "Error"}

// Workbook renders a read-only tabular projection of the given tasks.
func Workbook(tasks []model.TaskView) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheetName, "A1", last, headerStyle)

	for row, t := range tasks {
		device := ""
		if t.DeviceName != nil {
			device = *t.DeviceName
		}
		taskErr := ""
		if t.Error != nil {
			taskErr = *t.Error
		}

		values := []any{
			t.ID.String(),
			t.ContactName,
			t.ContactPhone,
			device,
			t.Content,
			t.DueAt.UTC().Format(time.RFC3339),
			string(t.Status),
			taskErr,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+2, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "E", 24)
	_ = f.SetColWidth(sheetName, "F", "H", 20)

	return f, nil
}

// Write streams the workbook for the given tasks to w.
func Write(w io.Writer, tasks []model.TaskView) error {
	f, err := Workbook(tasks)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}
