/*
errors.go - Centralized error types for the attendance engine

ERROR TAXONOMY:
  - A rule missing a required threshold is NOT an error: the evaluator
    skips silently (an unset threshold means "disabled for this check").
  - A duplicate alert attempt is NOT an error: the deduplicator discards
    the candidate as a silent no-op.
  - A cutoff preceding an employee's first recorded event is rejected by
    the caller via ErrInvalidCutoff before the timeline builder runs.
  - Persistence failures propagate wrapped from the batch runner; no
    partial alert set is considered committed, and the whole batch may be
    retried safely because deduplication makes reruns idempotent.
*/
package engine

import "errors"

var (
	// ErrInvalidCutoff is returned when a cutoff day precedes an employee's
	// first recorded event.
	ErrInvalidCutoff = errors.New("cutoff precedes first recorded event")

	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRuleNotFound is returned when a referenced rule doesn't exist.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrAlertNotFound is returned when a referenced alert doesn't exist.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrDuplicateAlert is surfaced by stores whose uniqueness constraint
	// rejects an insert. The batch runner treats it as a silent no-op.
	ErrDuplicateAlert = errors.New("equivalent alert already exists")
)

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrAlertNotFound)
}
