package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/engine/store"
)

func newTestRunner(m *store.Memory) *engine.Runner {
	r := engine.NewRunner(m, m, m, m)
	r.Now = func() time.Time { return time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC) }
	return r
}

func seedEmployee(m *store.Memory, id string) {
	m.SaveEmployee(engine.Employee{ID: engine.EmployeeID(id), Name: id, Active: true})
}

// =============================================================================
// BATCH ORCHESTRATOR TESTS
// =============================================================================

func TestRunBatch_EndToEndScenario(t *testing.T) {
	// GIVEN: Employee E with events on cutoff-5, cutoff-4, cutoff-3 only,
	//        otherwise absent back to cutoff-9; consecutive-absence rule
	//        with threshold 2
	// WHEN: Running the batch at the cutoff
	// THEN: The trailing run is cutoff, cutoff-1, cutoff-2 (3 absences since
	//       the last presence was cutoff-3): one alert, absencesValue 3,
	//       periodStart cutoff-2, periodEnd cutoff

	m := store.NewMemory()
	seedEmployee(m, "emp-e")
	m.SaveRule(consecutiveRule(2))

	cutoff := day(10)
	for _, d := range []engine.Day{cutoff.AddDays(-5), cutoff.AddDays(-4), cutoff.AddDays(-3)} {
		m.AppendEvent(event("emp-e", d))
	}

	inserted, err := newTestRunner(m).RunBatch(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, inserted, 1)

	alert := inserted[0]
	assert.Equal(t, engine.EmployeeID("emp-e"), alert.EmployeeID)
	assert.Equal(t, engine.RuleID("rule-consec"), alert.RuleID)
	assert.Equal(t, 3, alert.AbsencesValue)
	assert.True(t, alert.PeriodStart.Equal(cutoff.AddDays(-2)))
	assert.True(t, alert.PeriodEnd.Equal(cutoff))
	assert.NotEmpty(t, alert.ID)
	assert.False(t, alert.GeneratedAt.IsZero())
}

func TestRunBatch_Idempotent_SecondRunInsertsNothing(t *testing.T) {
	// GIVEN: A first batch run that inserted alerts
	// WHEN: Running again with the same cutoff and unchanged inputs
	// THEN: The second run inserts zero

	m := store.NewMemory()
	seedEmployee(m, "emp-1")
	m.SaveRule(consecutiveRule(2))
	m.AppendEvent(event("emp-1", day(1)))

	runner := newTestRunner(m)
	cutoff := day(6)

	first, err := runner.RunBatch(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := runner.RunBatch(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, m.ListAlerts(), 1)
}

func TestRunBatch_MultipleRulesAndEmployees(t *testing.T) {
	// Two employees, three rules: one absentee trips the consecutive and
	// window rules, one perfect attendee trips the streak rule.
	m := store.NewMemory()
	seedEmployee(m, "emp-absent")
	seedEmployee(m, "emp-steady")
	m.SaveRule(consecutiveRule(3))
	m.SaveRule(windowRule(7, 3))
	m.SaveRule(streakRule(7))

	cutoff := day(10)
	m.AppendEvent(event("emp-absent", day(1)))
	for d := 4; d <= 10; d++ {
		m.AppendEvent(event("emp-steady", day(d)))
	}

	inserted, err := newTestRunner(m).RunBatch(context.Background(), cutoff)
	require.NoError(t, err)
	require.Len(t, inserted, 3)

	byRule := map[engine.RuleID]engine.Alert{}
	for _, a := range inserted {
		byRule[a.RuleID] = a
	}
	assert.Equal(t, engine.EmployeeID("emp-absent"), byRule["rule-consec"].EmployeeID)
	assert.Equal(t, 9, byRule["rule-consec"].AbsencesValue)
	assert.Equal(t, engine.EmployeeID("emp-absent"), byRule["rule-window"].EmployeeID)
	assert.Equal(t, engine.EmployeeID("emp-steady"), byRule["rule-streak"].EmployeeID)
	assert.Equal(t, 7, byRule["rule-streak"].PresencesValue)
}

func TestRunBatch_NoActiveEmployeesOrRules_NoOp(t *testing.T) {
	m := store.NewMemory()

	inserted, err := newTestRunner(m).RunBatch(context.Background(), day(5))
	require.NoError(t, err)
	assert.Empty(t, inserted)

	// Rules but no employees.
	m.SaveRule(consecutiveRule(1))
	inserted, err = newTestRunner(m).RunBatch(context.Background(), day(5))
	require.NoError(t, err)
	assert.Empty(t, inserted)

	// Inactive employee stays invisible.
	m.SaveEmployee(engine.Employee{ID: "emp-gone", Active: false})
	inserted, err = newTestRunner(m).RunBatch(context.Background(), day(5))
	require.NoError(t, err)
	assert.Empty(t, inserted)
}

func TestRunBatch_InactiveRule_NotEvaluated(t *testing.T) {
	m := store.NewMemory()
	seedEmployee(m, "emp-1")
	rule := consecutiveRule(1)
	rule.Active = false
	m.SaveRule(rule)
	m.AppendEvent(event("emp-1", day(1)))

	inserted, err := newTestRunner(m).RunBatch(context.Background(), day(5))
	require.NoError(t, err)
	assert.Empty(t, inserted)
}

func TestRunBatch_HistoryStartsAfterCutoff_EmployeeSkipped(t *testing.T) {
	// An employee whose first event postdates the cutoff has nothing
	// judgeable; the runner clamps by skipping rather than erroring.
	m := store.NewMemory()
	seedEmployee(m, "emp-new")
	m.SaveRule(consecutiveRule(1))
	m.AppendEvent(event("emp-new", day(8)))

	inserted, err := newTestRunner(m).RunBatch(context.Background(), day(5))
	require.NoError(t, err)
	assert.Empty(t, inserted)
}

// =============================================================================
// FAILURE BOUNDARY
// =============================================================================

// failingAlertStore reads fine but refuses to commit.
type failingAlertStore struct {
	*store.Memory
}

var errStoreDown = errors.New("store unavailable")

func (f *failingAlertStore) AppendBatch(context.Context, []engine.Alert) ([]engine.Alert, error) {
	return nil, errStoreDown
}

func TestRunBatch_CommitFailure_PropagatesAndCommitsNothing(t *testing.T) {
	// GIVEN: An alert store that fails during commit
	// WHEN: Running the batch
	// THEN: The error propagates, nothing is considered committed, and the
	//       retry (against a healthy store) succeeds in full

	m := store.NewMemory()
	seedEmployee(m, "emp-1")
	m.SaveRule(consecutiveRule(2))
	m.AppendEvent(event("emp-1", day(1)))

	failing := engine.NewRunner(m, m, m, &failingAlertStore{Memory: m})
	_, err := failing.RunBatch(context.Background(), day(6))
	assert.ErrorIs(t, err, errStoreDown)
	assert.Empty(t, m.ListAlerts())

	healthy := newTestRunner(m)
	inserted, err := healthy.RunBatch(context.Background(), day(6))
	require.NoError(t, err)
	assert.Len(t, inserted, 1)
}
