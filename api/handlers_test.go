package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// TEST FIXTURE
// =============================================================================

type fixture struct {
	handler *api.Handler
	router  http.Handler
	store   *sqlite.Store
	cookie  *http.Cookie
}

var testToday = engine.NewDay(2025, time.March, 31)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := api.NewHandler(store, "http://localhost:8080", t.TempDir())
	h.Today = func() engine.Day { return testToday }

	hash, err := api.HashPassword("secret123")
	require.NoError(t, err)
	require.NoError(t, store.SaveAdmin(context.Background(), sqlite.Admin{
		Username: "admin", PasswordHash: hash, CreatedAt: time.Now().UTC(),
	}))

	f := &fixture{handler: h, router: api.NewRouter(h), store: store}
	f.login(t)
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"admin","password":"secret123"}`))
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			f.cookie = c
		}
	}
	require.NotNil(t, f.cookie)
}

// do performs an authenticated request and decodes the JSON response.
func (f *fixture) do(t *testing.T, method, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.AddCookie(f.cookie)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func seedRule(t *testing.T, f *fixture, rule engine.Rule) {
	t.Helper()
	require.NoError(t, f.store.SaveRule(context.Background(), rule))
}

func seedEvent(t *testing.T, f *fixture, emp string, day engine.Day) {
	t.Helper()
	require.NoError(t, f.store.AppendEvent(context.Background(), engine.AttendanceEvent{
		ID:         engine.EventID(fmt.Sprintf("ev-%s-%s", emp, day)),
		EmployeeID: engine.EmployeeID(emp),
		Day:        day,
		At:         day.Time().Add(9 * time.Hour),
		Method:     "qr",
		CreatedAt:  day.Time().Add(9 * time.Hour),
	}))
}

// =============================================================================
// AUTH
// =============================================================================

func TestLogin_BadCredentials(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoute_WithoutSession_Unauthorized(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// EMPLOYEES AND CHECK-IN
// =============================================================================

func TestCreateEmployee_ProvisionsBadge(t *testing.T) {
	// GIVEN: A new employee registration
	// WHEN: Posting to /api/employees
	// THEN: The response carries a check-in URL and the QR PNG exists

	f := newFixture(t)

	var dto api.EmployeeDTO
	rec := f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana Torres", Position: "Operator"}, &dto)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "emp-1", dto.ID)
	assert.True(t, dto.Active)
	assert.Contains(t, dto.CheckinURL, "/api/checkin/")
	assert.Equal(t, "employee_emp-1.png", dto.QRFilename)

	_, err := os.Stat(filepath.Join(f.handler.StaticDir, dto.QRFilename))
	assert.NoError(t, err)
}

func TestCreateEmployee_MissingName(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckin_FullFlow(t *testing.T) {
	// GIVEN: A provisioned employee
	// WHEN: Scanning the badge twice on the same day, then with a bad token
	// THEN: First scan records, second is a polite no-op, bad token is 404

	f := newFixture(t)

	var dto api.EmployeeDTO
	rec := f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, &dto)
	require.Equal(t, http.StatusCreated, rec.Code)
	token := dto.CheckinURL[strings.LastIndex(dto.CheckinURL, "/")+1:]

	// Check-in is public: no session cookie.
	first := httptest.NewRecorder()
	f.router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/checkin/"+token, nil))
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Contains(t, first.Body.String(), `"status":"ok"`)

	second := httptest.NewRecorder()
	f.router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/checkin/"+token, nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "already_checked_in")

	bad := httptest.NewRecorder()
	f.router.ServeHTTP(bad, httptest.NewRequest(http.MethodPost, "/api/checkin/nope", nil))
	assert.Equal(t, http.StatusNotFound, bad.Code)

	evs, err := f.store.EventsByEmployee(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.True(t, evs[0].Day.Equal(testToday))
}

func TestCheckin_DeactivatedEmployee_Rejected(t *testing.T) {
	f := newFixture(t)

	var dto api.EmployeeDTO
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, &dto)
	token := dto.CheckinURL[strings.LastIndex(dto.CheckinURL, "/")+1:]

	rec := f.do(t, http.MethodPost, "/api/employees/emp-1/deactivate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/checkin/"+token, nil))
	assert.Equal(t, http.StatusNotFound, res.Code)
}

// =============================================================================
// ALERTS
// =============================================================================

func TestListAlerts_RecomputesThenLists(t *testing.T) {
	// GIVEN: An employee absent since their only check-in 6 days ago and a
	//        consecutive-absence rule with threshold 3
	// WHEN: GETting /api/alerts twice
	// THEN: The first call materializes the alert with its rendered message;
	//       the second returns the same single alert

	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	seedRule(t, f, engine.Rule{
		ID: "r-consec", Label: "Consecutive absences", Severity: engine.SeverityCritical,
		Active: true, Config: engine.ConsecutiveAbsenceConfig{Threshold: 3},
	})
	seedEvent(t, f, "emp-1", testToday.AddDays(-6))

	var alerts []api.AlertDTO
	rec := f.do(t, http.MethodGet, "/api/alerts", nil, &alerts)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, alerts, 1)
	assert.Equal(t, "consecutive_absences", alerts[0].Kind)
	assert.Equal(t, 5, alerts[0].AbsencesValue)
	assert.Contains(t, alerts[0].Message, "Absent 5 consecutive days")
	assert.False(t, alerts[0].Read)

	var again []api.AlertDTO
	f.do(t, http.MethodGet, "/api/alerts", nil, &again)
	assert.Len(t, again, 1)
}

func TestToggleAlertRead_Endpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	seedRule(t, f, engine.Rule{
		ID: "r-consec", Label: "Consecutive absences", Severity: engine.SeverityCritical,
		Active: true, Config: engine.ConsecutiveAbsenceConfig{Threshold: 1},
	})
	seedEvent(t, f, "emp-1", testToday.AddDays(-3))

	var alerts []api.AlertDTO
	f.do(t, http.MethodGet, "/api/alerts", nil, &alerts)
	require.Len(t, alerts, 1)

	var result map[string]any
	rec := f.do(t, http.MethodPost, "/api/alerts/"+alerts[0].ID+"/toggle-read", nil, &result)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, result["read"])

	rec = f.do(t, http.MethodPost, "/api/alerts/missing/toggle-read", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// RULES
// =============================================================================

func TestUpdateRule_PartialEdit(t *testing.T) {
	f := newFixture(t)
	seedRule(t, f, engine.Rule{
		ID: "r-window", Label: "Too many absences", Severity: engine.SeverityWarning,
		Active: true, Config: engine.WindowConfig{Days: 30, Threshold: 5},
	})

	threshold := 7
	active := false
	var dto api.RuleDTO
	rec := f.do(t, http.MethodPut, "/api/rules/r-window",
		api.UpdateRuleRequest{AbsenceThreshold: &threshold, Active: &active}, &dto)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, dto.AbsenceThreshold)
	assert.Equal(t, 7, *dto.AbsenceThreshold)
	require.NotNil(t, dto.DayWindow)
	assert.Equal(t, 30, *dto.DayWindow)
	assert.False(t, dto.Active)

	stored, err := f.store.GetRule(context.Background(), "r-window")
	require.NoError(t, err)
	assert.Equal(t, engine.WindowConfig{Days: 30, Threshold: 7}, stored.Config)
}

func TestUpdateRule_InvalidSeverity(t *testing.T) {
	f := newFixture(t)
	seedRule(t, f, engine.Rule{
		ID: "r-streak", Label: "Perfect attendance", Severity: engine.SeverityInfo,
		Active: true, Config: engine.StreakConfig{Days: 15},
	})

	sev := "panic"
	rec := f.do(t, http.MethodPut, "/api/rules/r-streak",
		api.UpdateRuleRequest{Severity: &sev}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRule_WrongFieldForKind(t *testing.T) {
	f := newFixture(t)
	seedRule(t, f, engine.Rule{
		ID: "r-streak", Label: "Perfect attendance", Severity: engine.SeverityInfo,
		Active: true, Config: engine.StreakConfig{Days: 15},
	})

	threshold := 3
	rec := f.do(t, http.MethodPut, "/api/rules/r-streak",
		api.UpdateRuleRequest{AbsenceThreshold: &threshold}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestEmployeeReport_TimelineJSON(t *testing.T) {
	// GIVEN: Check-ins on days -5, -3 and -1 relative to today
	// WHEN: Fetching the report with the default cutoff (yesterday)
	// THEN: The timeline spans 5 days with 2 absences

	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	for _, offset := range []int{-5, -3, -1} {
		seedEvent(t, f, "emp-1", testToday.AddDays(offset))
	}

	var dto api.TimelineDTO
	rec := f.do(t, http.MethodGet, "/api/reports/emp-1", nil, &dto)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 5, dto.TotalDays)
	assert.Equal(t, 2, dto.TotalAbsences)
	assert.Equal(t, testToday.AddDays(-1).String(), dto.Cutoff)
	require.Len(t, dto.Records, 5)
	assert.Equal(t, "present", dto.Records[0].Status)
	assert.Equal(t, "absent", dto.Records[1].Status)
}

func TestEmployeeReport_CutoffBeforeHistory(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	seedEvent(t, f, "emp-1", testToday.AddDays(-2))

	rec := f.do(t, http.MethodGet,
		"/api/reports/emp-1?cutoff="+testToday.AddDays(-10).String(), nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmployeeReportExports_SetContentTypes(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	seedEvent(t, f, "emp-1", testToday.AddDays(-3))

	pdf := f.do(t, http.MethodGet, "/api/reports/emp-1/pdf", nil, nil)
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(pdf.Body.Bytes(), []byte("%PDF")))

	xlsx := f.do(t, http.MethodGet, "/api/reports/emp-1/xlsx", nil, nil)
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Contains(t, xlsx.Header().Get("Content-Type"), "spreadsheetml")
}

// =============================================================================
// ADMIN BATCH TRIGGER
// =============================================================================

func TestRunBatchNow_ExplicitCutoff(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	seedRule(t, f, engine.Rule{
		ID: "r-consec", Label: "Consecutive absences", Severity: engine.SeverityCritical,
		Active: true, Config: engine.ConsecutiveAbsenceConfig{Threshold: 2},
	})
	seedEvent(t, f, "emp-1", testToday.AddDays(-9))

	var result struct {
		Cutoff   string         `json:"cutoff"`
		Inserted int            `json:"inserted"`
		Alerts   []api.AlertDTO `json:"alerts"`
	}
	cutoff := testToday.AddDays(-4)
	rec := f.do(t, http.MethodPost, "/api/admin/run",
		map[string]string{"cutoff": cutoff.String()}, &result)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, cutoff.String(), result.Cutoff)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Alerts, 1)
	assert.Equal(t, 5, result.Alerts[0].AbsencesValue)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestDashboard_CountsAndInsights(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-1", Name: "Ana"}, nil)
	f.do(t, http.MethodPost, "/api/employees",
		api.CreateEmployeeRequest{ID: "emp-2", Name: "Luis"}, nil)
	seedEvent(t, f, "emp-1", testToday)

	var dto api.DashboardDTO
	rec := f.do(t, http.MethodGet, "/api/dashboard", nil, &dto)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, dto.ActiveEmployees)
	assert.Equal(t, 1, dto.PresentToday)
	assert.Equal(t, 1, dto.AbsentToday)
	assert.NotEmpty(t, dto.Insights)
}
