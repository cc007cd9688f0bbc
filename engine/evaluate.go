/*
evaluate.go - The three rule evaluators

PURPOSE:
  Each evaluator consumes an employee's events plus a rule configuration and
  produces zero or one candidate alert. Evaluators are stateless and pure:
  they build the timeline internally and never touch storage. The candidate's
  uniqueness is checked by the deduplicator before any persistence.

EVALUATION RULES:
  consecutive_absences  Scan the timeline backward from the cutoff; count the
                        contiguous trailing run of absent days. Emit when the
                        run reaches the threshold.
  absences_in_window    Count absent days inside [cutoff-(window-1), cutoff].
                        Days before the employee's recorded history are not
                        in the timeline and therefore never counted.
  attendance_streak     Scan backward counting contiguous present days. Emit
                        when the streak reaches the configured minimum.

  All three skip silently (nil candidate, no error) when the timeline is
  empty or the relevant threshold is unconfigured.
*/
package engine

// Evaluate dispatches on the rule's config variant and returns at most one
// candidate alert. The candidate has no ID and no generation timestamp; the
// batch runner assigns those on insert. Inactive rules and nil configs
// produce no candidate.
func Evaluate(employeeID EmployeeID, rule Rule, events []AttendanceEvent, cutoff Day) *Alert {
	if rule.Config == nil || !rule.Config.configured() {
		return nil
	}

	switch cfg := rule.Config.(type) {
	case ConsecutiveAbsenceConfig:
		return evaluateConsecutiveAbsences(employeeID, rule, cfg, events, cutoff)
	case WindowConfig:
		return evaluateAbsencesInWindow(employeeID, rule, cfg, events, cutoff)
	case StreakConfig:
		return evaluateAttendanceStreak(employeeID, rule, cfg, events, cutoff)
	default:
		return nil
	}
}

func evaluateConsecutiveAbsences(employeeID EmployeeID, rule Rule, cfg ConsecutiveAbsenceConfig, events []AttendanceEvent, cutoff Day) *Alert {
	tl := BuildTimeline(events, cutoff)
	if len(tl.Records) == 0 {
		return nil
	}

	// Trailing run of absent days, newest first. Records dated after the
	// cutoff are ignored defensively even if present.
	run := 0
	var runStart Day
	for i := len(tl.Records) - 1; i >= 0; i-- {
		rec := tl.Records[i]
		if rec.Day.After(cutoff) {
			continue
		}
		if rec.Status != StatusAbsent {
			break
		}
		run++
		runStart = rec.Day
	}

	if run < cfg.Threshold {
		return nil
	}

	return &Alert{
		EmployeeID:    employeeID,
		RuleID:        rule.ID,
		Kind:          rule.Kind(),
		Severity:      rule.Severity,
		PeriodStart:   runStart,
		PeriodEnd:     cutoff,
		DaysValue:     run,
		AbsencesValue: run,
	}
}

func evaluateAbsencesInWindow(employeeID EmployeeID, rule Rule, cfg WindowConfig, events []AttendanceEvent, cutoff Day) *Alert {
	tl := BuildTimeline(events, cutoff)
	if len(tl.Records) == 0 {
		return nil
	}

	periodStart := cutoff.AddDays(-(cfg.Days - 1))

	absences := 0
	for _, rec := range tl.Records {
		if rec.Status != StatusAbsent {
			continue
		}
		if rec.Day.AfterOrEqual(periodStart) && rec.Day.BeforeOrEqual(cutoff) {
			absences++
		}
	}

	if absences < cfg.Threshold {
		return nil
	}

	return &Alert{
		EmployeeID:    employeeID,
		RuleID:        rule.ID,
		Kind:          rule.Kind(),
		Severity:      rule.Severity,
		PeriodStart:   periodStart,
		PeriodEnd:     cutoff,
		DaysValue:     cfg.Days,
		AbsencesValue: absences,
	}
}

func evaluateAttendanceStreak(employeeID EmployeeID, rule Rule, cfg StreakConfig, events []AttendanceEvent, cutoff Day) *Alert {
	tl := BuildTimeline(events, cutoff)
	if len(tl.Records) == 0 {
		return nil
	}

	// Trailing run of present days. A day with several events contributes
	// several present records; count each day once.
	run := 0
	var lastCounted Day
	for i := len(tl.Records) - 1; i >= 0; i-- {
		rec := tl.Records[i]
		if rec.Day.After(cutoff) {
			continue
		}
		if rec.Status != StatusPresent {
			break
		}
		if run == 0 || !rec.Day.Equal(lastCounted) {
			run++
			lastCounted = rec.Day
		}
	}

	if run < cfg.Days {
		return nil
	}

	return &Alert{
		EmployeeID:     employeeID,
		RuleID:         rule.ID,
		Kind:           rule.Kind(),
		Severity:       rule.Severity,
		PeriodStart:    cutoff.AddDays(-(run - 1)),
		PeriodEnd:      cutoff,
		DaysValue:      run,
		PresencesValue: run,
	}
}
