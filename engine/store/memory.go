// Package store provides an in-memory implementation of the engine's
// persistence interfaces, used by tests and dev mode.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory holds everything the batch runner needs, guarded by one RWMutex.
// AppendBatch mirrors the SQLite store's uniqueness constraint with a key
// set, so dedup behavior is identical across implementations.
type Memory struct {
	mu        sync.RWMutex
	employees map[engine.EmployeeID]engine.Employee
	rules     map[engine.RuleID]engine.Rule
	events    map[engine.EmployeeID][]engine.AttendanceEvent
	alerts    []engine.Alert
	alertKeys map[alertKey]bool
}

type alertKey struct {
	EmployeeID  engine.EmployeeID
	RuleID      engine.RuleID
	PeriodStart engine.Day
	PeriodEnd   engine.Day
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[engine.EmployeeID]engine.Employee),
		rules:     make(map[engine.RuleID]engine.Rule),
		events:    make(map[engine.EmployeeID][]engine.AttendanceEvent),
		alertKeys: make(map[alertKey]bool),
	}
}

// =============================================================================
// MUTATION HELPERS (tests and dev seeding)
// =============================================================================

func (m *Memory) SaveEmployee(emp engine.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
}

func (m *Memory) SaveRule(rule engine.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = rule
}

// AppendEvent inserts an event keeping the per-employee sequence ordered by
// day ascending.
func (m *Memory) AppendEvent(ev engine.AttendanceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	evs := m.events[ev.EmployeeID]
	i := sort.Search(len(evs), func(i int) bool {
		return evs[i].Day.After(ev.Day)
	})
	evs = append(evs, engine.AttendanceEvent{})
	copy(evs[i+1:], evs[i:])
	evs[i] = ev
	m.events[ev.EmployeeID] = evs
}

// =============================================================================
// ENGINE INTERFACES
// =============================================================================

func (m *Memory) EventsByEmployee(_ context.Context, id engine.EmployeeID) ([]engine.AttendanceEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.AttendanceEvent, len(m.events[id]))
	copy(result, m.events[id])
	return result, nil
}

func (m *Memory) ActiveRules(_ context.Context) ([]engine.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Rule
	for _, r := range m.rules {
		if r.Active {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) ActiveEmployees(_ context.Context) ([]engine.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Employee
	for _, e := range m.employees {
		if e.Active {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) FindMatching(_ context.Context, employeeID engine.EmployeeID, ruleID engine.RuleID, periodEnd engine.Day) ([]engine.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []engine.Alert
	for _, a := range m.alerts {
		if a.EmployeeID == employeeID && a.RuleID == ruleID && a.PeriodEnd.Equal(periodEnd) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *Memory) AppendBatch(_ context.Context, alerts []engine.Alert) ([]engine.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var inserted []engine.Alert
	for _, a := range alerts {
		k := alertKey{a.EmployeeID, a.RuleID, a.PeriodStart, a.PeriodEnd}
		if m.alertKeys[k] {
			continue
		}
		m.alertKeys[k] = true
		m.alerts = append(m.alerts, a)
		inserted = append(inserted, a)
	}
	return inserted, nil
}

// =============================================================================
// READ HELPERS
// =============================================================================

func (m *Memory) ListAlerts() []engine.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]engine.Alert, len(m.alerts))
	copy(result, m.alerts)
	return result
}
