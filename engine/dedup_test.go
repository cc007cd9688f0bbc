package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/attendance-engine/engine"
)

func TestDedup_ConsecutiveAbsences_KeyedByPeriodEndAlone(t *testing.T) {
	// GIVEN: A prior consecutive-absence alert ending on the same cutoff but
	//        with a different (longer) run start
	// WHEN: Checking the new candidate
	// THEN: It is discarded - the kind is keyed by cutoff alone

	prior := engine.Alert{
		EmployeeID:  "emp-1",
		RuleID:      "rule-consec",
		Kind:        engine.KindConsecutiveAbsences,
		PeriodStart: day(5),
		PeriodEnd:   day(9),
	}
	candidate := prior
	candidate.PeriodStart = day(7)

	assert.False(t, engine.ShouldInsert(candidate, []engine.Alert{prior}))
}

func TestDedup_WindowKind_RequiresFullPeriodMatch(t *testing.T) {
	prior := engine.Alert{
		EmployeeID:  "emp-1",
		RuleID:      "rule-window",
		Kind:        engine.KindAbsencesInWindow,
		PeriodStart: day(1),
		PeriodEnd:   day(9),
	}

	same := prior
	assert.False(t, engine.ShouldInsert(same, []engine.Alert{prior}))

	shifted := prior
	shifted.PeriodStart = day(2)
	assert.True(t, engine.ShouldInsert(shifted, []engine.Alert{prior}))
}

func TestDedup_DifferentEmployeeOrRule_Inserts(t *testing.T) {
	prior := engine.Alert{
		EmployeeID:  "emp-1",
		RuleID:      "rule-streak",
		Kind:        engine.KindAttendanceStreak,
		PeriodStart: day(1),
		PeriodEnd:   day(9),
	}

	otherEmp := prior
	otherEmp.EmployeeID = "emp-2"
	assert.True(t, engine.ShouldInsert(otherEmp, []engine.Alert{prior}))

	otherRule := prior
	otherRule.RuleID = "rule-other"
	assert.True(t, engine.ShouldInsert(otherRule, []engine.Alert{prior}))
}

func TestDedup_NoExisting_Inserts(t *testing.T) {
	candidate := engine.Alert{EmployeeID: "emp-1", RuleID: "r", Kind: engine.KindAttendanceStreak}
	assert.True(t, engine.ShouldInsert(candidate, nil))
}
