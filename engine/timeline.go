/*
timeline.go - Attendance timeline reconstruction

PURPOSE:
  Converts an employee's sparse attendance events into a dense day-by-day
  present/absent timeline from the first recorded event through a cutoff day.

CONTRACT:
  - Empty input yields an empty timeline (zero days, zero absences); an
    employee who has never checked in is not an error.
  - Every calendar day in [first event day, cutoff] appears: present days
    once per event (same-day re-scans are preserved), absent days exactly
    once.
  - TotalDays = cutoff - firstEventDay + 1. Events dated after the cutoff
    are never consulted.
  - Pure function of its inputs.

PRECONDITION:
  The caller guarantees cutoff >= first event day when events are non-empty.
  A cutoff before the employee's recorded history must be rejected or
  clamped upstream; see ValidateCutoff.
*/
package engine

// BuildTimeline walks every calendar day from the earliest event day to the
// cutoff inclusive. The input must be ordered by day ascending, as returned
// by the event source.
func BuildTimeline(events []AttendanceEvent, cutoff Day) Timeline {
	if len(events) == 0 {
		return Timeline{}
	}

	byDay := make(map[Day][]*AttendanceEvent)
	first := events[0].Day
	for i := range events {
		ev := &events[i]
		if ev.Day.Before(first) {
			first = ev.Day
		}
		byDay[ev.Day] = append(byDay[ev.Day], ev)
	}

	var tl Timeline
	for day := first; day.BeforeOrEqual(cutoff); day = day.AddDays(1) {
		if evs := byDay[day]; len(evs) > 0 {
			for _, ev := range evs {
				tl.Records = append(tl.Records, DayRecord{Day: day, Status: StatusPresent, Event: ev})
			}
		} else {
			tl.Records = append(tl.Records, DayRecord{Day: day, Status: StatusAbsent})
			tl.TotalAbsences++
		}
	}

	tl.TotalDays = DaysBetween(first, cutoff) + 1
	return tl
}

// ValidateCutoff rejects a cutoff that precedes the employee's first
// recorded event. Callers invoke this before BuildTimeline when the cutoff
// comes from outside input; the builder itself does not defend against it.
func ValidateCutoff(events []AttendanceEvent, cutoff Day) error {
	if len(events) == 0 {
		return nil
	}
	first := events[0].Day
	for _, ev := range events[1:] {
		if ev.Day.Before(first) {
			first = ev.Day
		}
	}
	if cutoff.Before(first) {
		return ErrInvalidCutoff
	}
	return nil
}
