/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the attendance engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/login                    Admin login (session cookie)
    POST   /api/logout                   Destroy session

  Check-in (public):
    POST   /api/checkin/{token}          Employee badge check-in

  Dashboard:
    GET    /api/dashboard                Summary counts + insights feed

  Employees:
    GET    /api/employees                List (state=active|inactive|all)
    POST   /api/employees                Register + provision badge
    POST   /api/employees/{id}/activate
    POST   /api/employees/{id}/deactivate
    POST   /api/employees/{id}/qr        Regenerate badge image

  Attendance:
    GET    /api/attendance               Recent events

  Alerts:
    GET    /api/alerts                   Recompute, then list with filters
    POST   /api/alerts/{id}/toggle-read

  Rules:
    GET    /api/rules
    PUT    /api/rules/{id}               Partial edit

  Reports:
    GET    /api/reports/{employeeID}       Timeline JSON
    GET    /api/reports/{employeeID}/pdf
    GET    /api/reports/{employeeID}/xlsx

  Admin:
    POST   /api/admin/run                On-demand batch (optional cutoff)

ALERT RECOMPUTATION:
  GET /api/alerts runs the batch first with cutoff = yesterday, so the
  listing is always up to date with the latest recorded history. The run
  is idempotent; repeated GETs insert nothing new.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/expired session
  - 404: Resource not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Session middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/attendance-engine/badge"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Runner   *engine.Runner
	Sessions *Sessions

	// BaseURL is embedded in provisioned badge URLs.
	BaseURL string
	// StaticDir receives generated badge PNGs.
	StaticDir string

	// Today is swappable for tests.
	Today func() engine.Day
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, baseURL, staticDir string) *Handler {
	return &Handler{
		Store:     store,
		Runner:    engine.NewRunner(store, store, store, store),
		Sessions:  NewSessions(),
		BaseURL:   baseURL,
		StaticDir: staticDir,
		Today:     engine.Today,
	}
}

// yesterday is the standard evaluation cutoff: today is still in progress,
// so the most recent judgeable day is the one before it.
func (h *Handler) yesterday() engine.Day {
	return h.Today().AddDays(-1)
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	admin, err := h.Store.GetAdmin(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load admin", err)
		return
	}
	if admin == nil || !checkPassword(admin.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := h.Sessions.Create(admin.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		h.Sessions.Destroy(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := h.Today()

	active, err := h.Store.CountActiveEmployees(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count employees", err)
		return
	}
	present, err := h.Store.PresentCount(ctx, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count check-ins", err)
		return
	}
	unread, err := h.Store.CountUnreadAlerts(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count alerts", err)
		return
	}
	insights, err := report.Insights(ctx, h.Store, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build insights", err)
		return
	}

	absent := active - present
	if absent < 0 {
		absent = 0
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		ActiveEmployees: active,
		PresentToday:    present,
		AbsentToday:     absent,
		UnreadAlerts:    unread,
		Insights:        insights,
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	employees, err := h.Store.ListEmployees(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, emp := range employees {
		dtos = append(dtos, toEmployeeDTO(emp, h.BaseURL))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers an employee and provisions the check-in badge:
// a fresh access token and a QR PNG under the static dir.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	token, err := badge.NewToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err)
		return
	}
	qrFile, err := badge.WriteQR(h.StaticDir, engine.EmployeeID(req.ID),
		badge.CheckinURL(h.BaseURL, token))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write badge", err)
		return
	}

	emp := engine.Employee{
		ID:          engine.EmployeeID(req.ID),
		Name:        req.Name,
		Position:    req.Position,
		Active:      true,
		AccessToken: token,
		QRFilename:  qrFile,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp, h.BaseURL))
}

func (h *Handler) ActivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setEmployeeActive(w, r, true)
}

func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setEmployeeActive(w, r, false)
}

func (h *Handler) setEmployeeActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	if err := h.Store.SetEmployeeActive(r.Context(), id, active); err != nil {
		if errors.Is(err, engine.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "employee not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": string(id), "active": active})
}

// RegenerateQR rewrites the badge image. The access token is kept, so
// previously printed badges stay valid.
func (h *Handler) RegenerateQR(w http.ResponseWriter, r *http.Request) {
	id := engine.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "employee not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load employee", err)
		return
	}

	qrFile, err := badge.WriteQR(h.StaticDir, emp.ID,
		badge.CheckinURL(h.BaseURL, emp.AccessToken))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write badge", err)
		return
	}
	if err := h.Store.SetEmployeeQR(r.Context(), emp.ID, qrFile); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update employee", err)
		return
	}

	emp.QRFilename = qrFile
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp, h.BaseURL))
}

// =============================================================================
// CHECK-IN (public)
// =============================================================================

func (h *Handler) Checkin(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	emp, err := h.Store.GetEmployeeByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, engine.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "invalid or inactive badge", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resolve badge", err)
		return
	}

	today := h.Today()
	already, err := h.Store.HasEventOn(r.Context(), emp.ID, today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check history", err)
		return
	}
	if already {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "already_checked_in",
			"employee": emp.Name,
			"day":      today.String(),
		})
		return
	}

	now := time.Now().UTC()
	ev := engine.AttendanceEvent{
		ID:         engine.EventID(uuid.NewString()),
		EmployeeID: emp.ID,
		Day:        today,
		At:         now,
		Method:     "qr",
		SourceAddr: r.RemoteAddr,
		CreatedAt:  now,
	}
	if err := h.Store.AppendEvent(r.Context(), ev); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record check-in", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"status":   "ok",
		"employee": emp.Name,
		"day":      today.String(),
	})
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (h *Handler) RecentAttendance(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	events, err := h.Store.RecentEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events", err)
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, item := range events {
		dtos = append(dtos, toEventDTO(item.Event, item.EmployeeName))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlerts recomputes alerts for cutoff = yesterday, then lists with
// optional kind/severity/read/employee filters.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inserted, err := h.Runner.RunBatch(ctx, h.yesterday())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to evaluate alerts", err)
		return
	}
	if len(inserted) > 0 {
		log.Printf("[API] Alert recompute inserted %d new alerts", len(inserted))
	}

	filter := sqlite.AlertFilter{
		EmployeeID: engine.EmployeeID(r.URL.Query().Get("employee")),
		Kind:       engine.RuleKind(r.URL.Query().Get("kind")),
		Severity:   engine.Severity(r.URL.Query().Get("severity")),
	}
	if raw := r.URL.Query().Get("read"); raw != "" {
		read, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid read filter", err)
			return
		}
		filter.Read = &read
	}

	alerts, err := h.Store.ListAlerts(ctx, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts", err)
		return
	}

	dtos := make([]AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		dtos = append(dtos, toAlertDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) ToggleAlertRead(w http.ResponseWriter, r *http.Request) {
	id := engine.AlertID(chi.URLParam(r, "id"))
	read, err := h.Store.ToggleAlertRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrAlertNotFound) {
			writeError(w, http.StatusNotFound, "alert not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to toggle alert", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": string(id), "read": read})
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListRules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}

	dtos := make([]RuleDTO, 0, len(rules))
	for _, rule := range rules {
		dtos = append(dtos, toRuleDTO(rule))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// UpdateRule applies a partial edit. The rule's kind is fixed; only label,
// thresholds, severity and the active flag can change.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	id := engine.RuleID(chi.URLParam(r, "id"))
	rule, err := h.Store.GetRule(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrRuleNotFound) {
			writeError(w, http.StatusNotFound, "rule not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load rule", err)
		return
	}

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Label != nil {
		rule.Label = *req.Label
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if req.Severity != nil {
		sev := engine.Severity(*req.Severity)
		switch sev {
		case engine.SeverityInfo, engine.SeverityWarning, engine.SeverityCritical:
			rule.Severity = sev
		default:
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid severity %q", *req.Severity), nil)
			return
		}
	}
	if cfg, err := updatedConfig(rule.Config, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	} else if cfg != nil {
		rule.Config = cfg
	}

	if err := h.Store.SaveRule(r.Context(), *rule); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save rule", err)
		return
	}
	writeJSON(w, http.StatusOK, toRuleDTO(*rule))
}

// updatedConfig rebuilds the tagged config with edited numbers, keeping
// untouched fields. Returns nil when neither number was edited.
func updatedConfig(current engine.RuleConfig, req UpdateRuleRequest) (engine.RuleConfig, error) {
	if req.DayWindow == nil && req.AbsenceThreshold == nil {
		return nil, nil
	}

	switch c := current.(type) {
	case engine.ConsecutiveAbsenceConfig:
		if req.DayWindow != nil {
			return nil, errors.New("day_window does not apply to this rule kind")
		}
		c.Threshold = *req.AbsenceThreshold
		return c, nil
	case engine.WindowConfig:
		if req.DayWindow != nil {
			c.Days = *req.DayWindow
		}
		if req.AbsenceThreshold != nil {
			c.Threshold = *req.AbsenceThreshold
		}
		return c, nil
	case engine.StreakConfig:
		if req.AbsenceThreshold != nil {
			return nil, errors.New("absence_threshold does not apply to this rule kind")
		}
		c.Days = *req.DayWindow
		return c, nil
	default:
		return nil, errors.New("rule has no editable configuration")
	}
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// reportData loads everything the report endpoints share: the employee,
// the reconstructed timeline up to the cutoff, and the employee's alerts.
func (h *Handler) reportData(w http.ResponseWriter, r *http.Request) (*engine.Employee, engine.Timeline, []engine.Alert, engine.Day, bool) {
	id := engine.EmployeeID(chi.URLParam(r, "employeeID"))
	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		if errors.Is(err, engine.ErrEmployeeNotFound) {
			writeError(w, http.StatusNotFound, "employee not found", err)
		} else {
			writeError(w, http.StatusInternalServerError, "failed to load employee", err)
		}
		return nil, engine.Timeline{}, nil, engine.Day{}, false
	}

	cutoff := h.yesterday()
	if raw := r.URL.Query().Get("cutoff"); raw != "" {
		cutoff, err = engine.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cutoff", err)
			return nil, engine.Timeline{}, nil, engine.Day{}, false
		}
	}

	events, err := h.Store.EventsByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load events", err)
		return nil, engine.Timeline{}, nil, engine.Day{}, false
	}
	if err := engine.ValidateCutoff(events, cutoff); err != nil {
		writeError(w, http.StatusBadRequest, "cutoff precedes recorded history", err)
		return nil, engine.Timeline{}, nil, engine.Day{}, false
	}

	alerts, err := h.Store.ListAlerts(r.Context(), sqlite.AlertFilter{EmployeeID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load alerts", err)
		return nil, engine.Timeline{}, nil, engine.Day{}, false
	}

	return emp, engine.BuildTimeline(events, cutoff), alerts, cutoff, true
}

func (h *Handler) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	emp, tl, _, cutoff, ok := h.reportData(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTimelineDTO(*emp, tl, cutoff))
}

func (h *Handler) EmployeeReportPDF(w http.ResponseWriter, r *http.Request) {
	emp, tl, alerts, _, ok := h.reportData(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="attendance_%s.pdf"`, emp.ID))
	if err := report.WritePDF(w, *emp, tl, alerts); err != nil {
		log.Printf("[API] PDF export failed for %s: %v", emp.ID, err)
	}
}

func (h *Handler) EmployeeReportExcel(w http.ResponseWriter, r *http.Request) {
	emp, tl, _, _, ok := h.reportData(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="attendance_%s.xlsx"`, emp.ID))
	if err := report.WriteExcel(w, *emp, tl); err != nil {
		log.Printf("[API] Excel export failed for %s: %v", emp.ID, err)
	}
}

// =============================================================================
// ADMIN
// =============================================================================

// RunBatchNow triggers an on-demand batch run, defaulting to cutoff =
// yesterday.
func (h *Handler) RunBatchNow(w http.ResponseWriter, r *http.Request) {
	cutoff := h.yesterday()
	var req struct {
		Cutoff string `json:"cutoff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Cutoff != "" {
		parsed, err := engine.ParseDay(req.Cutoff)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cutoff", err)
			return
		}
		cutoff = parsed
	}

	inserted, err := h.Runner.RunBatch(r.Context(), cutoff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "batch run failed", err)
		return
	}

	dtos := make([]AlertDTO, 0, len(inserted))
	for _, a := range inserted {
		dtos = append(dtos, toAlertDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cutoff":   cutoff.String(),
		"inserted": len(inserted),
		"alerts":   dtos,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func checkinURL(baseURL, token string) string {
	return badge.CheckinURL(baseURL, token)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
