package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/warp/attendance-engine/engine"
)

// WritePDF renders an employee's reconstructed timeline as a PDF report:
// header, summary block, day-by-day table, then the alert list.
func WritePDF(w io.Writer, emp engine.Employee, tl engine.Timeline, alerts []engine.Alert) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Attendance Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Employee: %s", emp.Name))
	pdf.Ln(6)
	if emp.Position != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Position: %s", emp.Position))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Days covered: %d    Absences: %d    Presences: %d",
		tl.TotalDays, tl.TotalAbsences, tl.TotalDays-tl.TotalAbsences))
	pdf.Ln(10)

	// Day-by-day table.
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(40, 7, "Date", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Check-in", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, rec := range tl.Records {
		checkin := "-"
		if rec.Event != nil {
			checkin = rec.Event.At.Format("15:04")
		}
		pdf.CellFormat(40, 6, rec.Day.String(), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(rec.Status), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, checkin, "1", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Alerts (%d)", len(alerts)))
	pdf.Ln(9)

	pdf.SetFont("Arial", "", 10)
	if len(alerts) == 0 {
		pdf.Cell(0, 6, "No alerts for this employee.")
		pdf.Ln(6)
	}
	for _, a := range alerts {
		pdf.Cell(0, 6, fmt.Sprintf("[%s] %s", a.Severity, Message(a)))
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}
