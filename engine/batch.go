/*
batch.go - Batch orchestrator

PURPOSE:
  Iterates active employees and active rules, invoking the evaluator for
  each pair, filtering candidates through the deduplicator, and committing
  all surviving alerts atomically per run.

FAILURE BOUNDARY:
  A persistence failure propagates to the caller and no partial alert set
  is considered committed. The whole batch may be retried safely: the
  deduplicator (and the store's uniqueness constraint) make reruns
  idempotent.
*/
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Runner wires the engine's pure components to storage. All components
// except the final commit are read-only, so a Runner may evaluate different
// employees concurrently; the alert store's uniqueness constraint is the
// only coordination point.
type Runner struct {
	Events    EventSource
	Rules     RuleSource
	Employees EmployeeSource
	Alerts    AlertStore

	// Now supplies the generation timestamp; defaults to time.Now.
	Now func() time.Time
}

func NewRunner(events EventSource, rules RuleSource, employees EmployeeSource, alerts AlertStore) *Runner {
	return &Runner{Events: events, Rules: rules, Employees: employees, Alerts: alerts}
}

// RunBatch evaluates every active rule against every active employee for the
// given cutoff and returns the alerts actually inserted. Running with no
// active employees or no active rules is a no-op, not an error.
func (r *Runner) RunBatch(ctx context.Context, cutoff Day) ([]Alert, error) {
	rules, err := r.Rules.ActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active rules: %w", err)
	}
	employees, err := r.Employees.ActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active employees: %w", err)
	}
	if len(rules) == 0 || len(employees) == 0 {
		return nil, nil
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	var staged []Alert
	for _, emp := range employees {
		events, err := r.Events.EventsByEmployee(ctx, emp.ID)
		if err != nil {
			return nil, fmt.Errorf("loading events for %s: %w", emp.ID, err)
		}
		// An employee whose recorded history starts after the cutoff has
		// nothing judgeable yet; skip rather than feed the builder an
		// invalid range.
		if ValidateCutoff(events, cutoff) != nil {
			continue
		}

		for _, rule := range rules {
			candidate := Evaluate(emp.ID, rule, events, cutoff)
			if candidate == nil {
				continue
			}

			existing, err := r.Alerts.FindMatching(ctx, emp.ID, rule.ID, candidate.PeriodEnd)
			if err != nil {
				return nil, fmt.Errorf("checking existing alerts for %s/%s: %w", emp.ID, rule.ID, err)
			}
			if !ShouldInsert(*candidate, existing) {
				continue
			}

			candidate.ID = AlertID(uuid.NewString())
			candidate.GeneratedAt = now()
			staged = append(staged, *candidate)
		}
	}

	if len(staged) == 0 {
		return nil, nil
	}

	inserted, err := r.Alerts.AppendBatch(ctx, staged)
	if err != nil {
		return nil, fmt.Errorf("committing alert batch: %w", err)
	}
	return inserted, nil
}
