/*
Package engine provides the attendance-history reconstruction and
rule-evaluation core.

PURPOSE:
  This package turns a sparse set of attendance events into a dense
  day-by-day present/absent timeline, evaluates configurable behavioral
  rules against that timeline, and produces deduplicated alert records.

KEY CONCEPTS IN THIS FILE (types.go):
  - AttendanceEvent: An immutable fact recorded when an employee checks in
  - DayRecord/Timeline: The derived, gap-filled daily reconstruction
  - Alert: A generated fact describing a detected behavioral pattern
  - Employee: The minimal entity the engine needs (identity + active flag)

DESIGN PRINCIPLES:
  1. Purity: timeline building and rule evaluation are pure functions;
     only the batch runner touches storage
  2. Immutability: events are never mutated; alerts mutate only their
     read flag after creation
  3. Structured output: evaluators emit numeric magnitudes and periods,
     never prose - message rendering lives in the report package

SEE ALSO:
  - timeline.go: Timeline reconstruction
  - rules.go:    Rule configurations (tagged variant)
  - evaluate.go: The three rule evaluators
  - dedup.go:    Duplicate-alert suppression
  - batch.go:    The batch orchestrator
*/
package engine

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RuleID string
type AlertID string
type EventID string

// =============================================================================
// SEVERITY
// =============================================================================

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// =============================================================================
// ATTENDANCE EVENT - Immutable check-in fact
// =============================================================================

// AttendanceEvent records a single check-in. Events are created exactly once
// per scan action and never mutated or deleted. Multiple events may share a
// day (re-scans); the timeline treats any day with at least one event as
// present.
type AttendanceEvent struct {
	ID         EventID
	EmployeeID EmployeeID
	Day        Day
	At         time.Time // full instant; carries the time-of-day
	Method     string    // originating method, e.g. "qr"
	SourceAddr string    // client address of the scan
	CreatedAt  time.Time
}

// =============================================================================
// DAY RECORD / TIMELINE - Derived, not persisted
// =============================================================================

type DayStatus string

const (
	StatusPresent DayStatus = "present"
	StatusAbsent  DayStatus = "absent"
)

// DayRecord is one entry in a reconstructed timeline. Present days carry the
// originating event; absent days carry nil.
type DayRecord struct {
	Day    Day
	Status DayStatus
	Event  *AttendanceEvent
}

// Timeline is the gap-filled reconstruction for one employee from the first
// recorded event through the cutoff day. Records are ordered by day
// ascending, with one record per event on multi-scan days and exactly one
// absent record per eventless day.
type Timeline struct {
	Records       []DayRecord
	TotalDays     int // calendar days in [first event day, cutoff], inclusive
	TotalAbsences int // count of absent records
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the entity tracked by the engine. Only ID and Active matter
// for evaluation; the rest exists for the surrounding service.
type Employee struct {
	ID          EmployeeID
	Name        string
	Position    string
	Active      bool
	AccessToken string // opaque token embedded in the check-in QR link
	QRFilename  string // generated badge image, if provisioned
	CreatedAt   time.Time
}

// =============================================================================
// ALERT - Generated fact
// =============================================================================

// Alert is one detected pattern occurrence. For a given
// (employee, rule, period) at most one alert may exist; the deduplicator
// enforces this before insertion. After creation only the Read flag changes.
//
// Magnitudes are kind-dependent: consecutive-absence alerts set DaysValue and
// AbsencesValue to the run length; window alerts set DaysValue to the window
// size and AbsencesValue to the count found; streak alerts set DaysValue and
// PresencesValue to the streak length.
type Alert struct {
	ID             AlertID
	EmployeeID     EmployeeID
	RuleID         RuleID
	Kind           RuleKind // copied from the rule at generation time
	Severity       Severity
	PeriodStart    Day
	PeriodEnd      Day
	DaysValue      int
	AbsencesValue  int
	PresencesValue int
	GeneratedAt    time.Time
	Read           bool
}
