/*
store.go - Persistence interfaces consumed by the batch runner

PURPOSE:
  Defines the boundary between the pure engine and storage. The engine is
  specified against these read/write operations, not against any particular
  storage mechanism.

IMPLEMENTATIONS:
  - store/sqlite (top-level package): production SQLite store
  - engine/store: in-memory implementation for tests and dev mode

CONCURRENCY NOTE:
  Two concurrent batch runs over the same cutoff must not both pass the
  "no equivalent alert exists" check and both insert. AppendBatch
  implementations therefore guard insertion with a uniqueness constraint
  keyed on (employee, rule, periodStart, periodEnd), not just the
  read-check-then-write sequence. A constraint conflict is reported per
  alert, not as a batch failure.
*/
package engine

import "context"

// EventSource returns all attendance events for one employee, ordered by
// day ascending.
type EventSource interface {
	EventsByEmployee(ctx context.Context, id EmployeeID) ([]AttendanceEvent, error)
}

// RuleSource returns all rules with the active flag set.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]Rule, error)
}

// EmployeeSource returns all active employees.
type EmployeeSource interface {
	ActiveEmployees(ctx context.Context) ([]Employee, error)
}

// AlertStore persists generated alerts.
type AlertStore interface {
	// FindMatching returns existing alerts for the employee and rule whose
	// PeriodEnd equals periodEnd - the superset of every kind's dedup key.
	FindMatching(ctx context.Context, employeeID EmployeeID, ruleID RuleID, periodEnd Day) ([]Alert, error)

	// AppendBatch persists alerts atomically: either every non-duplicate
	// alert in the batch commits or none do. An alert colliding with the
	// uniqueness constraint is skipped, and the returned slice holds the
	// alerts actually inserted.
	AppendBatch(ctx context.Context, alerts []Alert) ([]Alert, error)
}
