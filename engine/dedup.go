/*
dedup.go - Duplicate-alert suppression

PURPOSE:
  Makes repeated evaluation of the same cutoff idempotent. Running the batch
  twice for the same day produces no duplicate alerts: a candidate whose
  dedup key matches a prior alert is discarded as a silent no-op.

DEDUP KEY:
  consecutive_absences  (employee, rule, periodEnd) - keyed by cutoff alone,
                        since the run start shifts as the run grows
  absences_in_window    (employee, rule, periodStart, periodEnd)
  attendance_streak     (employee, rule, periodStart, periodEnd)
*/
package engine

// Equivalent reports whether an existing alert occupies the candidate's
// dedup key.
func Equivalent(candidate, existing Alert) bool {
	if existing.EmployeeID != candidate.EmployeeID || existing.RuleID != candidate.RuleID {
		return false
	}
	if !existing.PeriodEnd.Equal(candidate.PeriodEnd) {
		return false
	}
	if candidate.Kind == KindConsecutiveAbsences {
		return true
	}
	return existing.PeriodStart.Equal(candidate.PeriodStart)
}

// ShouldInsert checks a candidate against prior alerts sharing its
// (employee, rule, periodEnd) and reports whether it survives.
func ShouldInsert(candidate Alert, existing []Alert) bool {
	for _, a := range existing {
		if Equivalent(candidate, a) {
			return false
		}
	}
	return true
}
