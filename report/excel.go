package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"github.com/warp/attendance-engine/engine"
)

// WriteExcel renders an employee's reconstructed timeline as an xlsx
// workbook: one sheet, a header row, one row per day record.
func WriteExcel(w io.Writer, emp engine.Employee, tl engine.Timeline) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Status", "Check-in", "Method"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	rowNum := 2
	for _, rec := range tl.Records {
		checkin, method := "", ""
		if rec.Event != nil {
			checkin = rec.Event.At.Format("15:04")
			method = rec.Event.Method
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), rec.Day.String())
		f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), string(rec.Status))
		f.SetCellValue(sheet, fmt.Sprintf("C%d", rowNum), checkin)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", rowNum), method)
		rowNum++
	}

	// Summary block below the table.
	rowNum++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), "Employee")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), emp.Name)
	rowNum++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), "Days covered")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), tl.TotalDays)
	rowNum++
	f.SetCellValue(sheet, fmt.Sprintf("A%d", rowNum), "Absences")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", rowNum), tl.TotalAbsences)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
