package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
)

// Aggregate queries backing the dashboard and the insights feed. The Store
// satisfies report.StatsSource.

// LastEventDay returns the newest recorded day, or the zero Day when no
// events exist.
func (s *Store) LastEventDay(ctx context.Context) (engine.Day, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var dayStr sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(day) FROM attendance_events`).Scan(&dayStr)
	if err != nil {
		return engine.Day{}, fmt.Errorf("failed to query last event day: %w", err)
	}
	if !dayStr.Valid {
		return engine.Day{}, nil
	}
	return engine.ParseDay(dayStr.String)
}

func (s *Store) CountActiveEmployees(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM employees WHERE active = 1`).Scan(&count)
	return count, err
}

func (s *Store) CountEventsSince(ctx context.Context, since engine.Day) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_events WHERE day >= ?`,
		since.String(),
	).Scan(&count)
	return count, err
}

func (s *Store) CountAlertsSince(ctx context.Context, since engine.Day) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE period_end >= ?`,
		since.String(),
	).Scan(&count)
	return count, err
}

// TopAlertedEmployees ranks employees by alert count since the given day.
func (s *Store) TopAlertedEmployees(ctx context.Context, since engine.Day, limit int) ([]report.NameCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT emp.name, COUNT(*) AS n
		FROM alerts a
		JOIN employees emp ON emp.id = a.employee_id
		WHERE a.period_end >= ?
		GROUP BY emp.id
		ORDER BY n DESC, emp.name
		LIMIT ?
	`
	return s.queryNameCounts(ctx, query, since.String(), limit)
}

// TopAttendees ranks employees by distinct check-in days since the given day.
func (s *Store) TopAttendees(ctx context.Context, since engine.Day, limit int) ([]report.NameCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT emp.name, COUNT(DISTINCT e.day) AS n
		FROM attendance_events e
		JOIN employees emp ON emp.id = e.employee_id
		WHERE e.day >= ?
		GROUP BY emp.id
		ORDER BY n DESC, emp.name
		LIMIT ?
	`
	return s.queryNameCounts(ctx, query, since.String(), limit)
}

// WeekdayActivity aggregates check-ins per weekday since the given day.
// Day strings come back from SQLite and are bucketed in Go, keeping
// weekday logic out of SQL.
func (s *Store) WeekdayActivity(ctx context.Context, since engine.Day) (map[time.Weekday]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, COUNT(*)
		FROM attendance_events
		WHERE day >= ?
		GROUP BY day
	`, since.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query weekday activity: %w", err)
	}
	defer rows.Close()

	result := make(map[time.Weekday]int)
	for rows.Next() {
		var (
			dayStr string
			count  int
		)
		if err := rows.Scan(&dayStr, &count); err != nil {
			return nil, fmt.Errorf("failed to scan weekday row: %w", err)
		}
		day, err := engine.ParseDay(dayStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", dayStr, err)
		}
		result[day.Weekday()] += count
	}
	return result, rows.Err()
}

// BusiestDays returns the days with the most check-ins since the given day.
func (s *Store) BusiestDays(ctx context.Context, since engine.Day, limit int) ([]report.DayCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, COUNT(*) AS n
		FROM attendance_events
		WHERE day >= ?
		GROUP BY day
		ORDER BY n DESC, day DESC
		LIMIT ?
	`, since.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query busiest days: %w", err)
	}
	defer rows.Close()

	var result []report.DayCount
	for rows.Next() {
		var (
			dayStr string
			item   report.DayCount
		)
		if err := rows.Scan(&dayStr, &item.Count); err != nil {
			return nil, fmt.Errorf("failed to scan day count: %w", err)
		}
		if item.Day, err = engine.ParseDay(dayStr); err != nil {
			return nil, fmt.Errorf("failed to parse day %q: %w", dayStr, err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func (s *Store) queryNameCounts(ctx context.Context, query string, args ...any) ([]report.NameCount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query name counts: %w", err)
	}
	defer rows.Close()

	var result []report.NameCount
	for rows.Next() {
		var item report.NameCount
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, fmt.Errorf("failed to scan name count: %w", err)
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
