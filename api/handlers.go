/*
handlers.go - HTTP API handlers for the talent map

PURPOSE:
  Exposes the staffing service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the staffing service and board.

ENDPOINTS:
  Employees:
    GET    /api/employees                    List (status, entity, employment_type, search, classification)
    POST   /api/employees                    Create employee
    GET    /api/employees/{id}               Get employee
    PUT    /api/employees/{id}               Update employee (active only)
    DELETE /api/employees/{id}               Delete employee (no allocations)
    PUT    /api/employees/{id}/status        Lifecycle change
    GET    /api/employees/{id}/utilization   Utilization, risk and active allocations
    GET    /api/employees/{id}/allocations   Allocations of one employee
    PUT    /api/employees/{id}/allocations   Save the allocation draft
    GET    /api/employees/{id}/skills        Skill links
    PUT    /api/employees/{id}/skills        Replace skill links
    GET    /api/employees/{id}/transitions   Movement history

  Projects / Accounts / Skills:
    GET|POST /api/projects, GET|PUT|DELETE /api/projects/{id}
    PUT      /api/projects/{id}/status       Lifecycle change (hold needs confirm)
    GET      /api/projects/{id}/allocations
    GET|POST /api/accounts, GET|PUT|DELETE /api/accounts/{id}
    GET      /api/accounts/{id}/metrics
    GET|POST /api/skills

  Views:
    GET    /api/utilization                  Per-employee views
    GET    /api/bench                        Bench report
    GET    /api/dashboard                    KPIs
    GET    /api/generations                  Cache generation counters

  Admin:
    POST   /api/admin/sweep                  Run the project activation sweep

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate, lifecycle, confirmation, in use)
  - 422: Employee not editable
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - allocations.go: Allocation and transition handlers
  - board_handlers.go: Drag-and-drop board sessions
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/haashirideassion/workforcemanagement-sub000/board"
	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *staffing.Service
	Boards  *board.Registry

	log zerolog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the staffing service.
func NewHandler(svc *staffing.Service, boards *board.Registry, logger zerolog.Logger) *Handler {
	return &Handler{
		Service: svc,
		Boards:  boards,
		log:     logger.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns employees matching the query filters.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employees, err := h.Service.ListEmployees(r.Context(), staffing.EmployeeQuery{
		EmployeeFilter: workforce.EmployeeFilter{
			Status:         workforce.EmployeeStatus(q.Get("status")),
			Entity:         q.Get("entity"),
			EmploymentType: q.Get("employment_type"),
			Search:         q.Get("search"),
		},
		Classification: workforce.Classification(q.Get("classification")),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req staffing.EmployeeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	emp, err := h.Service.CreateEmployee(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*emp))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req staffing.EmployeeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	emp, err := h.Service.UpdateEmployee(r.Context(), employeeID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) ChangeEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	emp, err := h.Service.ChangeEmployeeStatus(r.Context(), employeeID(r), workforce.EmployeeStatus(req.Status))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteEmployee(r.Context(), employeeID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEmployeeUtilization returns utilization, bench risk and the allocations
// in effect today.
func (h *Handler) GetEmployeeUtilization(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.EmployeeUtilization(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeUtilizationDTO{
		UtilizationView: u.View,
		Risk:            u.Risk,
		BenchSince:      u.BenchSince,
		Active:          toAllocationDTOs(u.Active),
	})
}

// =============================================================================
// SKILL HANDLERS
// =============================================================================

func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.Service.ListSkills(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]SkillDTO, len(skills))
	for i, s := range skills {
		dtos[i] = SkillDTO{ID: string(s.ID), Name: s.Name, Category: s.Category}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSkill(w http.ResponseWriter, r *http.Request) {
	var req staffing.SkillInput
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.CreateSkill(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, SkillDTO{ID: string(s.ID), Name: s.Name, Category: s.Category})
}

func (h *Handler) GetEmployeeSkills(w http.ResponseWriter, r *http.Request) {
	links, err := h.Service.GetEmployeeSkills(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeSkillDTOs(links))
}

// SetEmployeeSkills replaces the employee's skill links.
// PUT /api/employees/{id}/skills
func (h *Handler) SetEmployeeSkills(w http.ResponseWriter, r *http.Request) {
	var req []EmployeeSkillDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	id := employeeID(r)
	links := make([]workforce.EmployeeSkill, len(req))
	for i, l := range req {
		links[i] = workforce.EmployeeSkill{
			EmployeeID: id,
			SkillID:    workforce.SkillID(l.SkillID),
			Level:      workforce.SkillLevel(l.Level),
		}
	}
	saved, err := h.Service.SetEmployeeSkills(r.Context(), id, links)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeSkillDTOs(saved))
}

func toEmployeeSkillDTOs(links []workforce.EmployeeSkill) []EmployeeSkillDTO {
	dtos := make([]EmployeeSkillDTO, len(links))
	for i, l := range links {
		dtos[i] = EmployeeSkillDTO{SkillID: string(l.SkillID), Level: string(l.Level)}
	}
	return dtos
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns projects. Loading the list activates any proposal
// whose start date has arrived.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projects, err := h.Service.ListProjects(r.Context(), workforce.ProjectFilter{
		Status:    workforce.ProjectStatus(q.Get("status")),
		AccountID: workforce.AccountID(q.Get("account_id")),
		Entity:    q.Get("entity"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProject(r.Context(), projectID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req staffing.ProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.CreateProject(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(*p))
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req staffing.ProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.UpdateProject(r.Context(), projectID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

// ChangeProjectStatus moves a project along its lifecycle. Putting an active
// project on hold answers 409 until the request carries "confirm": true.
func (h *Handler) ChangeProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	change, err := h.Service.ChangeProjectStatus(r.Context(), projectID(r), workforce.ProjectStatus(req.Status), req.Confirm)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProjectStatusResponse{
		Project:             toProjectDTO(change.Project),
		AffectedAllocations: change.AffectedAllocations,
	})
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProject(r.Context(), projectID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListProjectAllocations(w http.ResponseWriter, r *http.Request) {
	id := projectID(r)
	if _, err := h.Service.GetProject(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	allocs, err := h.Service.ListAllocations(r.Context(), workforce.AllocationFilter{ProjectID: id})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTOs(allocs))
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Service.ListAccounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.GetAccount(r.Context(), accountID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req staffing.AccountInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Service.CreateAccount(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(*a))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req staffing.AccountInput
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Service.UpdateAccount(r.Context(), accountID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(*a))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteAccount(r.Context(), accountID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetAccountMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.AccountMetrics(r.Context(), accountID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// ListUtilization returns one view per non-archived employee.
// GET /api/utilization
func (h *Handler) ListUtilization(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.UtilizationViews(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// GetBench returns everyone below 50%, most at-risk first.
// GET /api/bench
func (h *Handler) GetBench(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.BenchReport(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]BenchEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = BenchEntryDTO{
			Employee:    toEmployeeDTO(e.Employee),
			Utilization: e.View,
			Risk:        e.Risk,
			BenchSince:  e.BenchSince,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardDTO{
		AsOf:               d.AsOf,
		Headcount:          d.Headcount,
		BenchCount:         d.BenchCount,
		OverallocatedCount: d.OverallocatedCount,
		AverageUtilization: d.AverageUtilization,
		ByClassification:   d.ByClassification,
		ByRisk:             d.ByRisk,
		ProjectsByStatus:   d.ProjectsByStatus,
		Accounts:           d.Accounts,
	})
}

// GetGenerations lets clients poll for changes and refetch what moved.
// GET /api/generations
func (h *Handler) GetGenerations(w http.ResponseWriter, r *http.Request) {
	gens, err := h.Service.Generations(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gens)
}

// TriggerSweep runs the proposal activation sweep on demand.
// POST /api/admin/sweep
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.SweepProjectStatuses(r.Context(), h.Service.Today())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Health reports whether the backing store answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	type pinger interface {
		Ping(ctx context.Context) error
	}
	if p, ok := h.Service.Store().(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeID(r *http.Request) workforce.EmployeeID {
	return workforce.EmployeeID(chi.URLParam(r, "id"))
}

func projectID(r *http.Request) workforce.ProjectID {
	return workforce.ProjectID(chi.URLParam(r, "id"))
}

func accountID(r *http.Request) workforce.AccountID {
	return workforce.AccountID(chi.URLParam(r, "id"))
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
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

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case workforce.IsNotFound(err), errors.Is(err, board.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, workforce.ErrEmployeeNotEditable):
		return http.StatusUnprocessableEntity
	case workforce.IsClientError(err):
		return http.StatusBadRequest
	case workforce.IsConflict(err), errors.Is(err, board.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status for err. Internal errors are
// logged, and the backend message goes back in details for the operator.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, status, "Internal error", err)
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	var ve *workforce.ValidationError
	if errors.As(err, &ve) {
		resp.Error = workforce.ErrValidation.Error()
		resp.Fields = make(map[string]string, len(ve.Fields))
		for _, f := range ve.Fields {
			resp.Fields[f.Field] = f.Message
		}
	}
	var ce *workforce.ConfirmationError
	if errors.As(err, &ce) {
		resp.Details = fmt.Sprintf("%d allocation(s) affected; resend with confirm=true", ce.Impacted)
	}
	writeJSON(w, status, resp)
}
