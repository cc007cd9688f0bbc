/*
Package sqlite provides the SQLite-backed implementation of the engine's
persistence interfaces plus the record stores the HTTP layer needs.

INTERFACES IMPLEMENTED:
  engine.EventSource:    Attendance events per employee, ordered by day
  engine.RuleSource:     Active alert rules
  engine.EmployeeSource: Active employees
  engine.AlertStore:     Alert persistence with atomic batch commit

APPEND-ONLY EVENTS:
  attendance_events is append-only: no UPDATE or DELETE statements exist.
  A check-in is recorded exactly once per scan action.

DEDUP BACKSTOP:
  alerts carries a UNIQUE index on
  (employee_id, rule_id, period_start, period_end). The engine's
  deduplicator runs first, but the index is what stops two concurrent
  batch runs over the same cutoff from both inserting: a colliding row is
  dropped via ON CONFLICT DO NOTHING and reported as "not inserted",
  never as an error.

RULE MAPPING:
  The engine models rule configuration as a tagged variant; the table
  stores a kind column plus nullable day_window/absence_threshold
  columns. The mapping lives in ruleColumns / ruleConfigFromRow and
  nowhere else.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency.
  A sync.RWMutex guards the handle; with PostgreSQL the database's own
  concurrency control would take over.

USAGE:
  db, err := sqlite.New("./data/attendance.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/engine"
)

// Store implements every persistence interface using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		access_token TEXT NOT NULL UNIQUE,
		qr_filename TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS admins (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Append-only: one row per scan action, never updated or deleted.
	CREATE TABLE IF NOT EXISTS attendance_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		day TEXT NOT NULL,
		at TEXT NOT NULL,
		method TEXT,
		source_addr TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_employee_day
		ON attendance_events(employee_id, day);
	CREATE INDEX IF NOT EXISTS idx_events_day
		ON attendance_events(day);

	CREATE TABLE IF NOT EXISTS alert_rules (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		kind TEXT NOT NULL,
		day_window INTEGER,
		absence_threshold INTEGER,
		severity TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		rule_id TEXT NOT NULL REFERENCES alert_rules(id),
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		days_value INTEGER NOT NULL DEFAULT 0,
		absences_value INTEGER NOT NULL DEFAULT 0,
		presences_value INTEGER NOT NULL DEFAULT 0,
		generated_at TEXT NOT NULL,
		read_flag INTEGER NOT NULL DEFAULT 0
	);

	-- CRITICAL: the concurrency backstop for alert deduplication. Two
	-- concurrent batch runs over the same cutoff cannot both insert.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_dedup_key
		ON alerts(employee_id, rule_id, period_start, period_end);

	CREATE INDEX IF NOT EXISTS idx_alerts_employee
		ON alerts(employee_id, generated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_alerts_generated_at
		ON alerts(generated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee record.
func (s *Store) SaveEmployee(ctx context.Context, emp engine.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, position, active, access_token, qr_filename, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			active = excluded.active,
			access_token = excluded.access_token,
			qr_filename = excluded.qr_filename
	`
	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, nullString(emp.Position), boolToInt(emp.Active),
		emp.AccessToken, nullString(emp.QRFilename),
		emp.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id engine.EmployeeID) (*engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEmployee(ctx,
		`SELECT id, name, position, active, access_token, qr_filename, created_at
		 FROM employees WHERE id = ?`, id)
}

// GetEmployeeByToken resolves the opaque check-in token carried in the QR
// badge. Only active employees can check in.
func (s *Store) GetEmployeeByToken(ctx context.Context, token string) (*engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryEmployee(ctx,
		`SELECT id, name, position, active, access_token, qr_filename, created_at
		 FROM employees WHERE access_token = ? AND active = 1`, token)
}

func (s *Store) queryEmployee(ctx context.Context, query string, args ...any) (*engine.Employee, error) {
	var (
		emp       engine.Employee
		active    int
		position  sql.NullString
		qrFile    sql.NullString
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&emp.ID, &emp.Name, &position, &active, &emp.AccessToken, &qrFile, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, engine.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query employee: %w", err)
	}

	emp.Position = position.String
	emp.Active = active == 1
	emp.QRFilename = qrFile.String
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

// ListEmployees returns employees filtered by state: "active", "inactive"
// or "all".
func (s *Store) ListEmployees(ctx context.Context, state string) ([]engine.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, position, active, access_token, qr_filename, created_at FROM employees`
	switch state {
	case "inactive":
		query += ` WHERE active = 0`
	case "all":
	default:
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var result []engine.Employee
	for rows.Next() {
		var (
			emp       engine.Employee
			active    int
			position  sql.NullString
			qrFile    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &position, &active, &emp.AccessToken, &qrFile, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		emp.Position = position.String
		emp.Active = active == 1
		emp.QRFilename = qrFile.String
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, emp)
	}
	return result, rows.Err()
}

// ActiveEmployees implements engine.EmployeeSource.
func (s *Store) ActiveEmployees(ctx context.Context) ([]engine.Employee, error) {
	return s.ListEmployees(ctx, "active")
}

// SetEmployeeActive flips the active flag. Deactivation, not deletion:
// history and alerts stay.
func (s *Store) SetEmployeeActive(ctx context.Context, id engine.EmployeeID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) SetEmployeeQR(ctx context.Context, id engine.EmployeeID, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE employees SET qr_filename = ? WHERE id = ?`, filename, id)
	if err != nil {
		return fmt.Errorf("failed to update employee qr: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrEmployeeNotFound
	}
	return nil
}

// =============================================================================
// ADMINS
// =============================================================================

// Admin is a dashboard login. Passwords are stored as bcrypt hashes.
type Admin struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

func (s *Store) SaveAdmin(ctx context.Context, a Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO admins (username, password_hash, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash
	`
	_, err := s.db.ExecContext(ctx, query,
		a.Username, a.PasswordHash, a.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save admin: %w", err)
	}
	return nil
}

// GetAdmin returns nil without error when the username is unknown, so the
// login handler can fail uniformly without leaking which part was wrong.
func (s *Store) GetAdmin(ctx context.Context, username string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		a         Admin
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, created_at FROM admins WHERE username = ?`,
		username,
	).Scan(&a.Username, &a.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

// =============================================================================
// ATTENDANCE EVENTS (append-only)
// =============================================================================

func (s *Store) AppendEvent(ctx context.Context, ev engine.AttendanceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO attendance_events (id, employee_id, day, at, method, source_addr, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.EmployeeID, ev.Day.String(),
		ev.At.UTC().Format(time.RFC3339),
		nullString(ev.Method), nullString(ev.SourceAddr),
		ev.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// EventsByEmployee implements engine.EventSource: the employee's full
// history, ordered by day ascending.
func (s *Store) EventsByEmployee(ctx context.Context, id engine.EmployeeID) ([]engine.AttendanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, day, at, method, source_addr, created_at
		FROM attendance_events
		WHERE employee_id = ?
		ORDER BY day ASC, at ASC
	`
	return s.queryEvents(ctx, query, id)
}

// HasEventOn reports whether the employee already checked in on the given
// day. The check-in endpoint uses it to answer same-day re-scans politely.
func (s *Store) HasEventOn(ctx context.Context, id engine.EmployeeID, day engine.Day) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance_events WHERE employee_id = ? AND day = ?`,
		id, day.String(),
	).Scan(&count)
	return count > 0, err
}

// EventWithEmployee pairs an event with its employee's name for listings.
type EventWithEmployee struct {
	Event        engine.AttendanceEvent
	EmployeeName string
}

// RecentEvents returns the newest events across all employees.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]EventWithEmployee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT e.id, e.employee_id, e.day, e.at, e.method, e.source_addr, e.created_at, emp.name
		FROM attendance_events e
		JOIN employees emp ON emp.id = e.employee_id
		ORDER BY e.day DESC, e.at DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent events: %w", err)
	}
	defer rows.Close()

	var result []EventWithEmployee
	for rows.Next() {
		var (
			item      EventWithEmployee
			dayStr    string
			atStr     string
			createdAt string
			method    sql.NullString
			source    sql.NullString
		)
		if err := rows.Scan(&item.Event.ID, &item.Event.EmployeeID, &dayStr, &atStr,
			&method, &source, &createdAt, &item.EmployeeName); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		item.Event.Day, _ = engine.ParseDay(dayStr)
		item.Event.At, _ = time.Parse(time.RFC3339, atStr)
		item.Event.Method = method.String
		item.Event.SourceAddr = source.String
		item.Event.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, item)
	}
	return result, rows.Err()
}

// PresentCount returns how many distinct employees checked in on a day.
func (s *Store) PresentCount(ctx context.Context, day engine.Day) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT employee_id) FROM attendance_events WHERE day = ?`,
		day.String(),
	).Scan(&count)
	return count, err
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]engine.AttendanceEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var result []engine.AttendanceEvent
	for rows.Next() {
		var (
			ev        engine.AttendanceEvent
			dayStr    string
			atStr     string
			createdAt string
			method    sql.NullString
			source    sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.EmployeeID, &dayStr, &atStr, &method, &source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Day, _ = engine.ParseDay(dayStr)
		ev.At, _ = time.Parse(time.RFC3339, atStr)
		ev.Method = method.String
		ev.SourceAddr = source.String
		ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, ev)
	}
	return result, rows.Err()
}

// =============================================================================
// ALERT RULES
// =============================================================================

// SaveRule inserts or updates a rule, flattening the tagged config variant
// into the kind + threshold columns.
func (s *Store) SaveRule(ctx context.Context, rule engine.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayWindow, absenceThreshold := ruleColumns(rule.Config)

	query := `
		INSERT INTO alert_rules (id, label, kind, day_window, absence_threshold, severity, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			kind = excluded.kind,
			day_window = excluded.day_window,
			absence_threshold = excluded.absence_threshold,
			severity = excluded.severity,
			active = excluded.active
	`
	_, err := s.db.ExecContext(ctx, query,
		rule.ID, rule.Label, string(rule.Kind()),
		dayWindow, absenceThreshold,
		string(rule.Severity), boolToInt(rule.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}
	return nil
}

func (s *Store) GetRule(ctx context.Context, id engine.RuleID) (*engine.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rules, err := s.queryRules(ctx,
		`SELECT id, label, kind, day_window, absence_threshold, severity, active
		 FROM alert_rules WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, engine.ErrRuleNotFound
	}
	return &rules[0], nil
}

func (s *Store) ListRules(ctx context.Context) ([]engine.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRules(ctx,
		`SELECT id, label, kind, day_window, absence_threshold, severity, active
		 FROM alert_rules ORDER BY kind, id`)
}

// ActiveRules implements engine.RuleSource.
func (s *Store) ActiveRules(ctx context.Context) ([]engine.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRules(ctx,
		`SELECT id, label, kind, day_window, absence_threshold, severity, active
		 FROM alert_rules WHERE active = 1 ORDER BY kind, id`)
}

func (s *Store) CountRules(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alert_rules`).Scan(&count)
	return count, err
}

func (s *Store) queryRules(ctx context.Context, query string, args ...any) ([]engine.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var result []engine.Rule
	for rows.Next() {
		var (
			rule             engine.Rule
			kind             string
			dayWindow        sql.NullInt64
			absenceThreshold sql.NullInt64
			severity         string
			active           int
		)
		if err := rows.Scan(&rule.ID, &rule.Label, &kind, &dayWindow, &absenceThreshold, &severity, &active); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.Severity = engine.Severity(severity)
		rule.Active = active == 1
		rule.Config = ruleConfigFromRow(engine.RuleKind(kind), dayWindow, absenceThreshold)
		result = append(result, rule)
	}
	return result, rows.Err()
}

func ruleColumns(cfg engine.RuleConfig) (dayWindow, absenceThreshold sql.NullInt64) {
	switch c := cfg.(type) {
	case engine.ConsecutiveAbsenceConfig:
		return sql.NullInt64{}, nullInt(c.Threshold)
	case engine.WindowConfig:
		return nullInt(c.Days), nullInt(c.Threshold)
	case engine.StreakConfig:
		return nullInt(c.Days), sql.NullInt64{}
	default:
		return sql.NullInt64{}, sql.NullInt64{}
	}
}

func ruleConfigFromRow(kind engine.RuleKind, dayWindow, absenceThreshold sql.NullInt64) engine.RuleConfig {
	switch kind {
	case engine.KindConsecutiveAbsences:
		return engine.ConsecutiveAbsenceConfig{Threshold: int(absenceThreshold.Int64)}
	case engine.KindAbsencesInWindow:
		return engine.WindowConfig{Days: int(dayWindow.Int64), Threshold: int(absenceThreshold.Int64)}
	case engine.KindAttendanceStreak:
		return engine.StreakConfig{Days: int(dayWindow.Int64)}
	default:
		return nil
	}
}

// =============================================================================
// ALERTS
// =============================================================================

// FindMatching implements engine.AlertStore: alerts sharing the candidate's
// (employee, rule, periodEnd) superset key.
func (s *Store) FindMatching(ctx context.Context, employeeID engine.EmployeeID, ruleID engine.RuleID, periodEnd engine.Day) ([]engine.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, rule_id, kind, severity, period_start, period_end,
		       days_value, absences_value, presences_value, generated_at, read_flag
		FROM alerts
		WHERE employee_id = ? AND rule_id = ? AND period_end = ?
	`
	return s.queryAlerts(ctx, query, employeeID, ruleID, periodEnd.String())
}

// AppendBatch implements engine.AlertStore. The whole batch commits in one
// database transaction; a row colliding with the dedup index is skipped via
// ON CONFLICT DO NOTHING and excluded from the returned slice.
func (s *Store) AppendBatch(ctx context.Context, alerts []engine.Alert) ([]engine.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO alerts
		(id, employee_id, rule_id, kind, severity, period_start, period_end,
		 days_value, absences_value, presences_value, generated_at, read_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(employee_id, rule_id, period_start, period_end) DO NOTHING
	`

	var inserted []engine.Alert
	for _, a := range alerts {
		res, err := tx.ExecContext(ctx, query,
			a.ID, a.EmployeeID, a.RuleID, string(a.Kind), string(a.Severity),
			a.PeriodStart.String(), a.PeriodEnd.String(),
			a.DaysValue, a.AbsencesValue, a.PresencesValue,
			a.GeneratedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert alert: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = append(inserted, a)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit alert batch: %w", err)
	}
	return inserted, nil
}

// AlertFilter narrows ListAlerts. Zero-valued fields match everything.
type AlertFilter struct {
	EmployeeID engine.EmployeeID
	Kind       engine.RuleKind
	Severity   engine.Severity
	Read       *bool
}

func (s *Store) ListAlerts(ctx context.Context, filter AlertFilter) ([]engine.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, employee_id, rule_id, kind, severity, period_start, period_end,
		       days_value, absences_value, presences_value, generated_at, read_flag
		FROM alerts
	`
	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.Read != nil {
		where = append(where, "read_flag = ?")
		args = append(args, boolToInt(*filter.Read))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY generated_at DESC, id"

	return s.queryAlerts(ctx, query, args...)
}

func (s *Store) GetAlert(ctx context.Context, id engine.AlertID) (*engine.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	alerts, err := s.queryAlerts(ctx, `
		SELECT id, employee_id, rule_id, kind, severity, period_start, period_end,
		       days_value, absences_value, presences_value, generated_at, read_flag
		FROM alerts WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, engine.ErrAlertNotFound
	}
	return &alerts[0], nil
}

// ToggleAlertRead flips the read flag and returns the new state.
func (s *Store) ToggleAlertRead(ctx context.Context, id engine.AlertID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET read_flag = 1 - read_flag WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle alert: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, engine.ErrAlertNotFound
	}

	var read int
	if err := s.db.QueryRowContext(ctx,
		`SELECT read_flag FROM alerts WHERE id = ?`, id).Scan(&read); err != nil {
		return false, fmt.Errorf("failed to read alert flag: %w", err)
	}
	return read == 1, nil
}

func (s *Store) CountUnreadAlerts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE read_flag = 0`).Scan(&count)
	return count, err
}

func (s *Store) queryAlerts(ctx context.Context, query string, args ...any) ([]engine.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var result []engine.Alert
	for rows.Next() {
		var (
			a           engine.Alert
			kind        string
			severity    string
			startStr    string
			endStr      string
			generatedAt string
			read        int
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.RuleID, &kind, &severity,
			&startStr, &endStr, &a.DaysValue, &a.AbsencesValue, &a.PresencesValue,
			&generatedAt, &read); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.Kind = engine.RuleKind(kind)
		a.Severity = engine.Severity(severity)
		a.PeriodStart, _ = engine.ParseDay(startStr)
		a.PeriodEnd, _ = engine.ParseDay(endStr)
		a.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
		a.Read = read == 1
		result = append(result, a)
	}
	return result, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(n int) sql.NullInt64 {
	if n <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
