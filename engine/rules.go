/*
rules.go - Alert rule configurations

PURPOSE:
  Defines the rule type and its three configuration variants. The original
  system modeled rules as a flat record with kind-specific optional numeric
  fields; here each kind carries exactly the fields it needs, so evaluators
  never have to ask "is this field set for this kind".

RULE KINDS:
  consecutive_absences  Trailing run of absent days reaches a threshold
  absences_in_window    Absence count within a cutoff-anchored window
  attendance_streak     Trailing run of present days reaches a length

DISABLED THRESHOLDS:
  A zero or negative threshold means "rule disabled for this check". That is
  a valid administrative choice, not a fault: evaluators skip silently.
*/
package engine

// =============================================================================
// RULE KIND
// =============================================================================

type RuleKind string

const (
	KindConsecutiveAbsences RuleKind = "consecutive_absences"
	KindAbsencesInWindow    RuleKind = "absences_in_window"
	KindAttendanceStreak    RuleKind = "attendance_streak"
)

// =============================================================================
// RULE CONFIG - Tagged variant, one payload shape per kind
// =============================================================================

// RuleConfig is a sealed sum over the three rule payloads.
type RuleConfig interface {
	Kind() RuleKind

	// configured reports whether every required threshold is set.
	configured() bool

	isRuleConfig()
}

// ConsecutiveAbsenceConfig fires when the trailing run of absent days ending
// at the cutoff reaches Threshold.
type ConsecutiveAbsenceConfig struct {
	Threshold int
}

func (ConsecutiveAbsenceConfig) Kind() RuleKind     { return KindConsecutiveAbsences }
func (c ConsecutiveAbsenceConfig) configured() bool { return c.Threshold > 0 }
func (ConsecutiveAbsenceConfig) isRuleConfig()      {}

// WindowConfig fires when at least Threshold absences fall within the Days
// calendar days ending at the cutoff. The window is anchored to the cutoff;
// days before the employee's recorded history are not counted.
type WindowConfig struct {
	Days      int
	Threshold int
}

func (WindowConfig) Kind() RuleKind     { return KindAbsencesInWindow }
func (c WindowConfig) configured() bool { return c.Days > 0 && c.Threshold > 0 }
func (WindowConfig) isRuleConfig()      {}

// StreakConfig fires when the trailing run of present days ending at the
// cutoff reaches Days (a minimum streak length).
type StreakConfig struct {
	Days int
}

func (StreakConfig) Kind() RuleKind     { return KindAttendanceStreak }
func (c StreakConfig) configured() bool { return c.Days > 0 }
func (StreakConfig) isRuleConfig()      {}

// =============================================================================
// RULE
// =============================================================================

// Rule is an administrator-editable alert rule. Evaluation only considers
// rules with Active set at evaluation time.
type Rule struct {
	ID       RuleID
	Label    string
	Severity Severity
	Active   bool
	Config   RuleConfig
}

// Kind returns the kind of the rule's config, or "" when unset.
func (r Rule) Kind() RuleKind {
	if r.Config == nil {
		return ""
	}
	return r.Config.Kind()
}
