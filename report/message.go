/*
Package report turns engine output into things humans read: alert
messages, the dashboard insights feed, and PDF/Excel timeline exports.

Evaluators emit magnitudes only; all prose lives here. Changing a
message never touches stored alerts.
*/
package report

import (
	"fmt"

	"github.com/warp/attendance-engine/engine"
)

// Message renders the human-readable explanation for an alert.
func Message(a engine.Alert) string {
	switch a.Kind {
	case engine.KindConsecutiveAbsences:
		return fmt.Sprintf("Absent %d consecutive days (%s to %s).",
			a.AbsencesValue, a.PeriodStart, a.PeriodEnd)
	case engine.KindAbsencesInWindow:
		return fmt.Sprintf("%d absences in the last %d days (%s to %s).",
			a.AbsencesValue, a.DaysValue, a.PeriodStart, a.PeriodEnd)
	case engine.KindAttendanceStreak:
		return fmt.Sprintf("Perfect attendance for %d consecutive days (%s to %s).",
			a.PresencesValue, a.PeriodStart, a.PeriodEnd)
	default:
		return fmt.Sprintf("Alert for period %s to %s.", a.PeriodStart, a.PeriodEnd)
	}
}
