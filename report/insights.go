package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/engine"
)

// NameCount pairs an employee name with an occurrence count.
type NameCount struct {
	Name  string
	Count int
}

// DayCount pairs a day with its check-in count.
type DayCount struct {
	Day   engine.Day
	Count int
}

// StatsSource provides the aggregates the insights feed is built from.
// The SQLite store implements it.
type StatsSource interface {
	LastEventDay(ctx context.Context) (engine.Day, error)
	CountActiveEmployees(ctx context.Context) (int, error)
	PresentCount(ctx context.Context, day engine.Day) (int, error)
	CountEventsSince(ctx context.Context, since engine.Day) (int, error)
	CountAlertsSince(ctx context.Context, since engine.Day) (int, error)
	TopAlertedEmployees(ctx context.Context, since engine.Day, limit int) ([]NameCount, error)
	TopAttendees(ctx context.Context, since engine.Day, limit int) ([]NameCount, error)
	WeekdayActivity(ctx context.Context, since engine.Day) (map[time.Weekday]int, error)
	BusiestDays(ctx context.Context, since engine.Day, limit int) ([]DayCount, error)
}

// staleAfterDays: a gap longer than this since the newest event produces a
// stale-data notice instead of activity highlights.
const staleAfterDays = 3

// Insights produces the dashboard feed: a short list of templated
// observations over the aggregates. Purely descriptive; it never looks at
// individual timelines.
func Insights(ctx context.Context, src StatsSource, today engine.Day) ([]string, error) {
	var out []string

	last, err := src.LastEventDay(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load last event day: %w", err)
	}
	if last.IsZero() {
		return []string{"No attendance has been recorded yet."}, nil
	}
	if gap := engine.DaysBetween(last, today); gap > staleAfterDays {
		out = append(out, fmt.Sprintf(
			"No check-ins in the last %d days; the newest record is from %s.", gap, last))
	}

	if line, err := attendanceToday(ctx, src, today); err != nil {
		return nil, err
	} else if line != "" {
		out = append(out, line)
	}

	monthAgo := today.AddDays(-29)
	weekAgo := today.AddDays(-6)

	alerted, err := src.TopAlertedEmployees(ctx, monthAgo, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to load top alerted: %w", err)
	}
	if len(alerted) > 0 {
		out = append(out, "Most alerted in the last 30 days: "+joinCounts(alerted)+".")
	}

	attendees, err := src.TopAttendees(ctx, monthAgo, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to load top attendees: %w", err)
	}
	if len(attendees) > 0 {
		out = append(out, "Most check-ins in the last 30 days: "+joinCounts(attendees)+".")
	}

	weekdays, err := src.WeekdayActivity(ctx, monthAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekday activity: %w", err)
	}
	if day, ok := quietestWeekday(weekdays); ok {
		out = append(out, fmt.Sprintf("Quietest weekday over the last 30 days: %s.", day))
	}

	busy, err := src.BusiestDays(ctx, weekAgo, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to load busiest days: %w", err)
	}
	for _, b := range busy {
		out = append(out, fmt.Sprintf("High activity on %s: %d check-ins.", b.Day, b.Count))
	}

	events, err := src.CountEventsSince(ctx, monthAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	alerts, err := src.CountAlertsSince(ctx, weekAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	out = append(out, fmt.Sprintf(
		"Period summary: %d check-ins in the last 30 days, %d alerts in the last 7 days.",
		events, alerts))

	return out, nil
}

func attendanceToday(ctx context.Context, src StatsSource, today engine.Day) (string, error) {
	active, err := src.CountActiveEmployees(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count active employees: %w", err)
	}
	if active == 0 {
		return "", nil
	}
	present, err := src.PresentCount(ctx, today)
	if err != nil {
		return "", fmt.Errorf("failed to count present: %w", err)
	}

	pct := decimal.NewFromInt(int64(present * 100)).
		Div(decimal.NewFromInt(int64(active))).
		Round(1)
	return fmt.Sprintf("%d of %d active employees checked in today (%s%%).",
		present, active, pct.String()), nil
}

func joinCounts(items []NameCount) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s (%d)", it.Name, it.Count)
	}
	return strings.Join(parts, ", ")
}

func quietestWeekday(counts map[time.Weekday]int) (time.Weekday, bool) {
	if len(counts) == 0 {
		return 0, false
	}
	// Walk Sunday..Saturday so ties resolve deterministically.
	best := time.Sunday
	bestCount := -1
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		c, ok := counts[wd]
		if !ok {
			continue
		}
		if bestCount == -1 || c < bestCount {
			best, bestCount = wd, c
		}
	}
	return best, true
}
