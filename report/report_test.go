package report_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
)

func day(d int) engine.Day {
	return engine.NewDay(2025, time.March, 1).AddDays(d - 1)
}

// =============================================================================
// ALERT MESSAGES
// =============================================================================

func TestMessage_PerKind(t *testing.T) {
	consec := engine.Alert{
		Kind:          engine.KindConsecutiveAbsences,
		AbsencesValue: 4,
		PeriodStart:   day(5),
		PeriodEnd:     day(8),
	}
	assert.Equal(t,
		"Absent 4 consecutive days (2025-03-05 to 2025-03-08).",
		report.Message(consec))

	window := engine.Alert{
		Kind:          engine.KindAbsencesInWindow,
		DaysValue:     30,
		AbsencesValue: 6,
		PeriodStart:   day(1),
		PeriodEnd:     day(30),
	}
	assert.Equal(t,
		"6 absences in the last 30 days (2025-03-01 to 2025-03-30).",
		report.Message(window))

	streak := engine.Alert{
		Kind:           engine.KindAttendanceStreak,
		PresencesValue: 15,
		PeriodStart:    day(1),
		PeriodEnd:      day(15),
	}
	assert.Equal(t,
		"Perfect attendance for 15 consecutive days (2025-03-01 to 2025-03-15).",
		report.Message(streak))
}

// =============================================================================
// INSIGHTS
// =============================================================================

// fakeStats is a canned StatsSource.
type fakeStats struct {
	lastEvent   engine.Day
	active      int
	present     int
	events      int
	alerts      int
	topAlerted  []report.NameCount
	topAttendee []report.NameCount
	weekdays    map[time.Weekday]int
	busy        []report.DayCount
}

func (f *fakeStats) LastEventDay(context.Context) (engine.Day, error) { return f.lastEvent, nil }
func (f *fakeStats) CountActiveEmployees(context.Context) (int, error) {
	return f.active, nil
}
func (f *fakeStats) PresentCount(context.Context, engine.Day) (int, error) { return f.present, nil }
func (f *fakeStats) CountEventsSince(context.Context, engine.Day) (int, error) {
	return f.events, nil
}
func (f *fakeStats) CountAlertsSince(context.Context, engine.Day) (int, error) {
	return f.alerts, nil
}
func (f *fakeStats) TopAlertedEmployees(context.Context, engine.Day, int) ([]report.NameCount, error) {
	return f.topAlerted, nil
}
func (f *fakeStats) TopAttendees(context.Context, engine.Day, int) ([]report.NameCount, error) {
	return f.topAttendee, nil
}
func (f *fakeStats) WeekdayActivity(context.Context, engine.Day) (map[time.Weekday]int, error) {
	return f.weekdays, nil
}
func (f *fakeStats) BusiestDays(context.Context, engine.Day, int) ([]report.DayCount, error) {
	return f.busy, nil
}

func TestInsights_NoDataYet(t *testing.T) {
	lines, err := report.Insights(context.Background(), &fakeStats{}, day(10))
	require.NoError(t, err)
	assert.Equal(t, []string{"No attendance has been recorded yet."}, lines)
}

func TestInsights_StaleDataNotice(t *testing.T) {
	// GIVEN: The newest event is 5 days old
	// WHEN: Building the feed
	// THEN: The first line is the stale-data notice

	stats := &fakeStats{lastEvent: day(5), active: 2}
	lines, err := report.Insights(context.Background(), stats, day(10))
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "No check-ins in the last 5 days")
	assert.Contains(t, lines[0], "2025-03-05")
}

func TestInsights_FullFeed(t *testing.T) {
	stats := &fakeStats{
		lastEvent:   day(10),
		active:      8,
		present:     6,
		events:      120,
		alerts:      3,
		topAlerted:  []report.NameCount{{Name: "Dana", Count: 3}, {Name: "Lee", Count: 2}},
		topAttendee: []report.NameCount{{Name: "Ana", Count: 22}},
		weekdays:    map[time.Weekday]int{time.Monday: 30, time.Friday: 10},
		busy:        []report.DayCount{{Day: day(9), Count: 8}},
	}

	lines, err := report.Insights(context.Background(), stats, day(10))
	require.NoError(t, err)
	joined := strings.Join(lines, "\n")

	assert.Contains(t, joined, "6 of 8 active employees checked in today (75%).")
	assert.Contains(t, joined, "Most alerted in the last 30 days: Dana (3), Lee (2).")
	assert.Contains(t, joined, "Most check-ins in the last 30 days: Ana (22).")
	assert.Contains(t, joined, "Quietest weekday over the last 30 days: Friday.")
	assert.Contains(t, joined, "High activity on 2025-03-09: 8 check-ins.")
	assert.Contains(t, joined, "120 check-ins in the last 30 days, 3 alerts in the last 7 days.")
	assert.NotContains(t, joined, "stale")
}

// =============================================================================
// EXPORTS
// =============================================================================

func exportFixture() (engine.Employee, engine.Timeline, []engine.Alert) {
	emp := engine.Employee{ID: "emp-1", Name: "Ana Torres", Position: "Operator"}

	ev := engine.AttendanceEvent{
		ID: "ev-1", EmployeeID: "emp-1", Day: day(1),
		At: day(1).Time().Add(9 * time.Hour), Method: "qr",
	}
	tl := engine.Timeline{
		Records: []engine.DayRecord{
			{Day: day(1), Status: engine.StatusPresent, Event: &ev},
			{Day: day(2), Status: engine.StatusAbsent},
			{Day: day(3), Status: engine.StatusAbsent},
		},
		TotalDays:     3,
		TotalAbsences: 2,
	}
	alerts := []engine.Alert{{
		Kind: engine.KindConsecutiveAbsences, Severity: engine.SeverityCritical,
		AbsencesValue: 2, PeriodStart: day(2), PeriodEnd: day(3),
	}}
	return emp, tl, alerts
}

func TestWritePDF_ProducesDocument(t *testing.T) {
	emp, tl, alerts := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, report.WritePDF(&buf, emp, tl, alerts))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWriteExcel_ProducesWorkbook(t *testing.T) {
	emp, tl, _ := exportFixture()

	var buf bytes.Buffer
	require.NoError(t, report.WriteExcel(&buf, emp, tl))
	// xlsx files are zip archives.
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
}
