/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// LoginRequest carries admin credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Position   string `json:"position,omitempty"`
	Active     bool   `json:"active"`
	CheckinURL string `json:"checkin_url,omitempty"`
	QRFilename string `json:"qr_filename,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// EventDTO represents an attendance event in API responses.
type EventDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Day          string `json:"day"`
	At           string `json:"at"`
	Method       string `json:"method,omitempty"`
}

// AlertDTO represents an alert in API responses. Message is rendered from
// the stored magnitudes on every read.
type AlertDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	RuleID         string `json:"rule_id"`
	Kind           string `json:"kind"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	DaysValue      int    `json:"days_value"`
	AbsencesValue  int    `json:"absences_value"`
	PresencesValue int    `json:"presences_value"`
	GeneratedAt    string `json:"generated_at"`
	Read           bool   `json:"read"`
}

// RuleDTO flattens the tagged rule config for the API, mirroring the
// storage shape: unused threshold fields are omitted.
type RuleDTO struct {
	ID               string `json:"id"`
	Label            string `json:"label"`
	Kind             string `json:"kind"`
	DayWindow        *int   `json:"day_window,omitempty"`
	AbsenceThreshold *int   `json:"absence_threshold,omitempty"`
	Severity         string `json:"severity"`
	Active           bool   `json:"active"`
}

// UpdateRuleRequest carries partial rule edits; nil fields are unchanged.
type UpdateRuleRequest struct {
	Label            *string `json:"label"`
	DayWindow        *int    `json:"day_window"`
	AbsenceThreshold *int    `json:"absence_threshold"`
	Severity         *string `json:"severity"`
	Active           *bool   `json:"active"`
}

// DayRecordDTO is one reconstructed timeline day.
type DayRecordDTO struct {
	Day       string `json:"day"`
	Status    string `json:"status"`
	CheckinAt string `json:"checkin_at,omitempty"`
	Method    string `json:"method,omitempty"`
}

// TimelineDTO is the full day-by-day report for one employee.
type TimelineDTO struct {
	EmployeeID    string         `json:"employee_id"`
	EmployeeName  string         `json:"employee_name"`
	Cutoff        string         `json:"cutoff"`
	TotalDays     int            `json:"total_days"`
	TotalAbsences int            `json:"total_absences"`
	Records       []DayRecordDTO `json:"records"`
}

// DashboardDTO is the summary block plus the insights feed.
type DashboardDTO struct {
	ActiveEmployees int      `json:"active_employees"`
	PresentToday    int      `json:"present_today"`
	AbsentToday     int      `json:"absent_today"`
	UnreadAlerts    int      `json:"unread_alerts"`
	Insights        []string `json:"insights"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(emp engine.Employee, baseURL string) EmployeeDTO {
	dto := EmployeeDTO{
		ID:         string(emp.ID),
		Name:       emp.Name,
		Position:   emp.Position,
		Active:     emp.Active,
		QRFilename: emp.QRFilename,
	}
	if !emp.CreatedAt.IsZero() {
		dto.CreatedAt = emp.CreatedAt.Format(time.RFC3339)
	}
	if emp.Active && emp.AccessToken != "" {
		dto.CheckinURL = checkinURL(baseURL, emp.AccessToken)
	}
	return dto
}

func toEventDTO(ev engine.AttendanceEvent, employeeName string) EventDTO {
	return EventDTO{
		ID:           string(ev.ID),
		EmployeeID:   string(ev.EmployeeID),
		EmployeeName: employeeName,
		Day:          ev.Day.String(),
		At:           ev.At.Format(time.RFC3339),
		Method:       ev.Method,
	}
}

func toAlertDTO(a engine.Alert) AlertDTO {
	return AlertDTO{
		ID:             string(a.ID),
		EmployeeID:     string(a.EmployeeID),
		RuleID:         string(a.RuleID),
		Kind:           string(a.Kind),
		Severity:       string(a.Severity),
		Message:        report.Message(a),
		PeriodStart:    a.PeriodStart.String(),
		PeriodEnd:      a.PeriodEnd.String(),
		DaysValue:      a.DaysValue,
		AbsencesValue:  a.AbsencesValue,
		PresencesValue: a.PresencesValue,
		GeneratedAt:    a.GeneratedAt.Format(time.RFC3339),
		Read:           a.Read,
	}
}

func toRuleDTO(rule engine.Rule) RuleDTO {
	dto := RuleDTO{
		ID:       string(rule.ID),
		Label:    rule.Label,
		Kind:     string(rule.Kind()),
		Severity: string(rule.Severity),
		Active:   rule.Active,
	}
	switch c := rule.Config.(type) {
	case engine.ConsecutiveAbsenceConfig:
		dto.AbsenceThreshold = intPtr(c.Threshold)
	case engine.WindowConfig:
		dto.DayWindow = intPtr(c.Days)
		dto.AbsenceThreshold = intPtr(c.Threshold)
	case engine.StreakConfig:
		dto.DayWindow = intPtr(c.Days)
	}
	return dto
}

func toTimelineDTO(emp engine.Employee, tl engine.Timeline, cutoff engine.Day) TimelineDTO {
	records := make([]DayRecordDTO, 0, len(tl.Records))
	for _, rec := range tl.Records {
		dto := DayRecordDTO{Day: rec.Day.String(), Status: string(rec.Status)}
		if rec.Event != nil {
			dto.CheckinAt = rec.Event.At.Format(time.RFC3339)
			dto.Method = rec.Event.Method
		}
		records = append(records, dto)
	}
	return TimelineDTO{
		EmployeeID:    string(emp.ID),
		EmployeeName:  emp.Name,
		Cutoff:        cutoff.String(),
		TotalDays:     tl.TotalDays,
		TotalAbsences: tl.TotalAbsences,
		Records:       records,
	}
}

func intPtr(n int) *int { return &n }
