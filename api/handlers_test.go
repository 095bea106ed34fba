/*
handlers_test.go - HTTP tests for the API handlers

Tests run the full router over an in-memory SQLite store with a fixed clock:
- Error mapping (400/404/409/422/500) and error details
- Allocation create/remove with history and overallocation warnings
- Project hold confirmation
- Board session flow over HTTP
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haashirideassion/workforcemanagement-sub000/board"
	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/store/sqlite"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce/store"
)

var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler *Handler
	router  http.Handler
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := staffing.New(db, cache.NewMemory(), zerolog.Nop(),
		staffing.WithClock(func() time.Time { return testNow }))
	h := NewHandler(svc, board.NewRegistry(svc, zerolog.Nop(), 0, time.Hour), zerolog.Nop())
	return &testServer{
		t:       t,
		handler: h,
		router:  NewRouter(h, RouterOptions{EnableScenarios: true}),
	}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// call performs the request, checks the status and decodes the body into out.
func (s *testServer) call(method, path string, body any, status int, out any) {
	s.t.Helper()
	rec := s.do(method, path, body)
	require.Equal(s.t, status, rec.Code, rec.Body.String())
	if out != nil {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func (s *testServer) createEmployee(name string) EmployeeDTO {
	s.t.Helper()
	var e EmployeeDTO
	s.call(http.MethodPost, "/api/employees", map[string]any{
		"name":  name,
		"email": strings.ToLower(name) + "@example.com",
	}, http.StatusCreated, &e)
	return e
}

func (s *testServer) createProject(name, status string) ProjectDTO {
	s.t.Helper()
	var p ProjectDTO
	s.call(http.MethodPost, "/api/projects", map[string]any{
		"name":       name,
		"status":     status,
		"start_date": "2025-05-01",
	}, http.StatusCreated, &p)
	return p
}

func (s *testServer) allocate(emp EmployeeDTO, proj ProjectDTO, percent int) AllocationResponse {
	s.t.Helper()
	var res AllocationResponse
	s.call(http.MethodPost, "/api/allocations", map[string]any{
		"employee_id": emp.ID,
		"project_id":  proj.ID,
		"percent":     percent,
	}, http.StatusCreated, &res)
	return res
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestEmployeeEndpoints_ErrorMapping(t *testing.T) {
	s := setupTestServer(t)

	// Validation failures carry per-field messages.
	var errResp ErrorResponse
	s.call(http.MethodPost, "/api/employees", map[string]any{"name": "Jane", "email": "nope"},
		http.StatusBadRequest, &errResp)
	assert.Contains(t, errResp.Fields, "email")

	rec := s.do(http.MethodPost, "/api/employees", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.call(http.MethodGet, "/api/employees/ghost", nil, http.StatusNotFound, nil)

	jane := s.createEmployee("Jane")
	s.call(http.MethodPost, "/api/employees", map[string]any{
		"name": "Jane", "email": "jane2@example.com", "code": "E1",
	}, http.StatusCreated, nil)
	s.call(http.MethodPost, "/api/employees", map[string]any{
		"name": "Jim", "email": "jim@example.com", "code": "E1",
	}, http.StatusConflict, nil)

	// WHEN: Jane goes on hold, her record is frozen
	var updated EmployeeDTO
	s.call(http.MethodPut, "/api/employees/"+jane.ID+"/status", StatusChangeRequest{Status: "on-hold"},
		http.StatusOK, &updated)
	assert.Equal(t, "on-hold", updated.Status)
	s.call(http.MethodPut, "/api/employees/"+jane.ID, map[string]any{"name": "Jane D", "email": "jane@example.com"},
		http.StatusUnprocessableEntity, nil)
}

func TestListEmployees_FiltersByClassification(t *testing.T) {
	s := setupTestServer(t)
	jane := s.createEmployee("Jane")
	s.createEmployee("John")
	alpha := s.createProject("Alpha", "active")
	s.allocate(jane, alpha, 90)

	var full []EmployeeDTO
	s.call(http.MethodGet, "/api/employees?classification=full", nil, http.StatusOK, &full)
	require.Len(t, full, 1)
	assert.Equal(t, jane.ID, full[0].ID)

	s.call(http.MethodGet, "/api/employees?classification=busy", nil, http.StatusBadRequest, nil)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestAllocationLifecycle(t *testing.T) {
	s := setupTestServer(t)
	jane := s.createEmployee("Jane")
	alpha := s.createProject("Alpha", "active")
	beta := s.createProject("Beta", "active")

	// GIVEN: Jane at 60% on Alpha
	first := s.allocate(jane, alpha, 60)
	assert.Equal(t, workforce.ClassPartial, first.Utilization.Classification)
	assert.Empty(t, first.Warnings)

	// WHEN: 50% more on Beta
	second := s.allocate(jane, beta, 50)

	// THEN: written, with an overallocation warning
	require.Len(t, second.Warnings, 1)
	assert.Equal(t, workforce.WarnOverallocated, second.Warnings[0].Code)
	assert.True(t, second.Utilization.UtilizationPercent.Equal(workforce.NewPercent(110)))
	assert.Equal(t, workforce.ClassOverallocated, second.Utilization.Classification)

	// Duplicate pair is a hard block.
	s.call(http.MethodPost, "/api/allocations", map[string]any{
		"employee_id": jane.ID, "project_id": alpha.ID, "percent": 10,
	}, http.StatusConflict, nil)

	// Out-of-range percent is a client error.
	s.call(http.MethodPost, "/api/allocations", map[string]any{
		"employee_id": jane.ID, "project_id": alpha.ID, "percent": 101,
	}, http.StatusBadRequest, nil)

	// WHEN: Jane comes off Beta
	var removal RemovalResponse
	s.call(http.MethodPost, "/api/allocations/"+second.Allocation.ID+"/remove",
		RemoveAllocationRequest{ManagerName: "Sam", Remarks: "rebalancing"}, http.StatusOK, &removal)
	assert.True(t, removal.HistoryRecorded)
	require.NotNil(t, removal.Transition)
	assert.Equal(t, "Sam", removal.Transition.ManagerName)
	assert.True(t, removal.Utilization.UtilizationPercent.Equal(workforce.NewPercent(60)))

	var history []TransitionDTO
	s.call(http.MethodGet, "/api/employees/"+jane.ID+"/transitions", nil, http.StatusOK, &history)
	require.Len(t, history, 1)
	assert.Equal(t, beta.ID, history[0].ProjectID)

	var comment CommentDTO
	s.call(http.MethodPost, "/api/transitions/"+history[0].ID+"/comments",
		map[string]string{"author": "Sam", "text": "client asked"}, http.StatusCreated, &comment)
	s.call(http.MethodDelete, "/api/transitions/"+history[0].ID+"/comments/"+comment.ID, nil, http.StatusNoContent, nil)

	var allocs []AllocationDTO
	s.call(http.MethodGet, "/api/employees/"+jane.ID+"/allocations", nil, http.StatusOK, &allocs)
	require.Len(t, allocs, 1)
	assert.Equal(t, alpha.ID, allocs[0].ProjectID)

	var u EmployeeUtilizationDTO
	s.call(http.MethodGet, "/api/employees/"+jane.ID+"/utilization", nil, http.StatusOK, &u)
	assert.True(t, u.UtilizationPercent.Equal(workforce.NewPercent(60)))
	assert.Equal(t, workforce.RiskOptimal, u.Risk.Level)
}

func TestSaveAllocationDraft(t *testing.T) {
	s := setupTestServer(t)
	jane := s.createEmployee("Jane")
	alpha := s.createProject("Alpha", "active")
	beta := s.createProject("Beta", "active")
	existing := s.allocate(jane, alpha, 60)

	// WHEN: the draft drops Alpha and adds Beta
	var res DraftResponse
	s.call(http.MethodPut, "/api/employees/"+jane.ID+"/allocations", map[string]any{
		"allocations": []map[string]any{
			{"project_id": beta.ID, "percent": 40, "start_date": "2025-06-10"},
		},
		"manager_name": "Sam",
	}, http.StatusOK, &res)

	assert.Equal(t, []string{existing.Allocation.ID}, res.Removed)
	require.Len(t, res.Created, 1)
	assert.Equal(t, beta.ID, res.Created[0].ProjectID)
	assert.True(t, res.Utilization.UtilizationPercent.Equal(workforce.NewPercent(40)))
}

// =============================================================================
// PROJECTS / VIEWS
// =============================================================================

func TestProjectHold_RequiresConfirmation(t *testing.T) {
	s := setupTestServer(t)
	jane := s.createEmployee("Jane")
	alpha := s.createProject("Alpha", "active")
	s.allocate(jane, alpha, 60)

	var errResp ErrorResponse
	s.call(http.MethodPut, "/api/projects/"+alpha.ID+"/status", StatusChangeRequest{Status: "on-hold"},
		http.StatusConflict, &errResp)
	assert.Contains(t, errResp.Details, "1 allocation")

	var change ProjectStatusResponse
	s.call(http.MethodPut, "/api/projects/"+alpha.ID+"/status", StatusChangeRequest{Status: "on-hold", Confirm: true},
		http.StatusOK, &change)
	assert.Equal(t, "on-hold", change.Project.Status)
	assert.Equal(t, 1, change.AffectedAllocations)

	var bench []BenchEntryDTO
	s.call(http.MethodGet, "/api/bench", nil, http.StatusOK, &bench)
	require.Len(t, bench, 1)
	assert.Equal(t, jane.ID, bench[0].Employee.ID)
}

func TestListProjects_ActivatesDueProposals(t *testing.T) {
	s := setupTestServer(t)
	var p ProjectDTO
	s.call(http.MethodPost, "/api/projects", map[string]any{"name": "Gamma", "start_date": "2025-06-10"},
		http.StatusCreated, &p)
	assert.Equal(t, "proposal", p.Status)

	var projects []ProjectDTO
	s.call(http.MethodGet, "/api/projects", nil, http.StatusOK, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "active", projects[0].Status)
}

func TestDashboardAndGenerations(t *testing.T) {
	s := setupTestServer(t)

	var before map[string]uint64
	s.call(http.MethodGet, "/api/generations", nil, http.StatusOK, &before)

	jane := s.createEmployee("Jane")
	s.allocate(jane, s.createProject("Alpha", "active"), 100)
	s.createEmployee("John")

	var after map[string]uint64
	s.call(http.MethodGet, "/api/generations", nil, http.StatusOK, &after)
	assert.Greater(t, after[string(cache.Allocations)], before[string(cache.Allocations)])

	var d DashboardDTO
	s.call(http.MethodGet, "/api/dashboard", nil, http.StatusOK, &d)
	assert.Equal(t, 2, d.Headcount)
	assert.Equal(t, 1, d.BenchCount)
	assert.True(t, d.AverageUtilization.Equal(workforce.NewPercent(50)))
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)
	s.call(http.MethodGet, "/healthz", nil, http.StatusOK, nil)

	rec := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "talentmap_requests_total")
}

// =============================================================================
// BOARD
// =============================================================================

func TestBoardSession_SidebarDropAndAssign(t *testing.T) {
	s := setupTestServer(t)
	jane := s.createEmployee("Jane")
	alpha := s.createProject("Alpha", "active")

	var session BoardSessionDTO
	s.call(http.MethodPost, "/api/board/sessions", nil, http.StatusCreated, &session)
	base := "/api/board/sessions/" + session.ID

	// Drop before grabbing is out of order.
	s.call(http.MethodPost, base+"/drop", DropRequest{ProjectID: alpha.ID}, http.StatusConflict, nil)

	s.call(http.MethodPost, base+"/grab", map[string]any{
		"employee_id": jane.ID,
		"source":      map[string]string{"kind": "sidebar"},
		"at":          map[string]float64{"x": 0, "y": 0},
	}, http.StatusOK, nil)
	s.call(http.MethodPost, base+"/release", map[string]any{"at": map[string]float64{"x": 120, "y": 0}},
		http.StatusOK, nil)

	var out BoardOutcomeDTO
	s.call(http.MethodPost, base+"/drop", DropRequest{ProjectID: alpha.ID}, http.StatusOK, &out)
	assert.Equal(t, board.AssignmentPending, out.State)
	require.NotNil(t, out.Session.Assignment)
	assert.True(t, out.Session.Assignment.Percent.Equal(workforce.NewPercent(100)))

	// A rejected confirm keeps the form open.
	s.call(http.MethodPost, base+"/assign", map[string]any{"percent": 0}, http.StatusBadRequest, nil)
	var view BoardSessionDTO
	s.call(http.MethodGet, base, nil, http.StatusOK, &view)
	assert.Equal(t, board.AssignmentPending, view.State)
	assert.NotEmpty(t, view.LastError)

	s.call(http.MethodPost, base+"/assign", map[string]any{"percent": 70}, http.StatusOK, &out)
	assert.Equal(t, board.Idle, out.State)
	require.NotNil(t, out.Allocation)
	assert.Equal(t, alpha.ID, out.Allocation.ProjectID)

	s.call(http.MethodDelete, base, nil, http.StatusNoContent, nil)
	s.call(http.MethodGet, base, nil, http.StatusNotFound, nil)
}

func TestBoardSession_ClickOpensQuickView(t *testing.T) {
	s := setupTestServer(t)
	jane := s.createEmployee("Jane")

	var session BoardSessionDTO
	s.call(http.MethodPost, "/api/board/sessions", nil, http.StatusCreated, &session)
	base := fmt.Sprintf("/api/board/sessions/%s", session.ID)

	s.call(http.MethodPost, base+"/grab", map[string]any{
		"employee_id": jane.ID,
		"source":      map[string]string{"kind": "sidebar"},
		"at":          map[string]float64{"x": 50, "y": 50},
	}, http.StatusOK, nil)

	var out BoardOutcomeDTO
	s.call(http.MethodPost, base+"/release", map[string]any{"at": map[string]float64{"x": 52, "y": 51}},
		http.StatusOK, &out)
	assert.Equal(t, board.Idle, out.State)
	assert.Equal(t, workforce.EmployeeID(jane.ID), out.QuickView)
}

func TestBackendFailure_ReturnsRawMessage(t *testing.T) {
	// GIVEN: a store whose employee writes fail
	mem := store.NewMemory()
	mem.FailOn["SaveEmployee"] = errors.New("constraint failed: disk is full")
	svc := staffing.New(mem, cache.NewMemory(), zerolog.Nop(),
		staffing.WithClock(func() time.Time { return testNow }))
	h := NewHandler(svc, board.NewRegistry(svc, zerolog.Nop(), 0, time.Hour), zerolog.Nop())
	s := &testServer{t: t, handler: h, router: NewRouter(h, RouterOptions{})}

	// WHEN: an employee is created
	var resp ErrorResponse
	s.call(http.MethodPost, "/api/employees", map[string]any{
		"name":  "Jane",
		"email": "jane@example.com",
	}, http.StatusInternalServerError, &resp)

	// THEN: the backend message reaches the caller
	assert.Equal(t, "Internal error", resp.Error)
	assert.Contains(t, resp.Details, "constraint failed: disk is full")
}
