/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	staffing data for demos. Each scenario creates accounts, projects,
	employees and allocations through the staffing service, so every
	validation rule applies to demo data too.

AVAILABLE SCENARIOS:

	reassignment:  Two active projects, one person at 60%, one on the bench
	bench-risk:    Idle employees at each bench-risk level
	pipeline:      Proposals due to activate and a project on hold

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create accounts and projects
 3. Create employees
 4. Create allocations (past ones give bench history)
 5. Invalidate cached views

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "bench-risk"}

USAGE VIA CLI:

	server seed bench-risk

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Other handlers
  - cmd/server/main.go: seed command
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "reassignment",
		Name:        "Reassignment",
		Description: "Jane at 60% on Alpha, John fully on Beta, Priya on the bench",
	},
	{
		ID:          "bench-risk",
		Name:        "Bench Risk",
		Description: "Idle employees at crisis, layoff-recommended, at-risk and underutilized levels",
	},
	{
		ID:          "pipeline",
		Name:        "Project Pipeline",
		Description: "Proposals that activate when the project list loads, plus a project on hold",
	},
}

var loaders = map[string]func(ctx context.Context, svc *staffing.Service) error{
	"reassignment": loadReassignmentScenario,
	"bench-risk":   loadBenchRiskScenario,
	"pipeline":     loadPipelineScenario,
}

// Scenarios lists the available demo scenarios.
func Scenarios() []ScenarioDTO {
	return scenarios
}

// Seed resets the store and loads the named scenario.
func Seed(ctx context.Context, svc *staffing.Service, scenarioID string) error {
	load, ok := loaders[scenarioID]
	if !ok {
		return fmt.Errorf("unknown scenario %q", scenarioID)
	}
	if err := svc.Store().Reset(ctx); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	defer svc.Invalidate(ctx)
	if err := load(ctx, svc); err != nil {
		return fmt.Errorf("load scenario %s: %w", scenarioID, err)
	}
	return nil
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := loaders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentScenario = ""

	if err := Seed(r.Context(), h.Service, req.ScenarioID); err != nil {
		h.log.Error().Err(err).Str("scenario", req.ScenarioID).Msg("scenario load failed")
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every collection.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Store().Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Service.Invalidate(r.Context())
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seeder threads the first error through a run of creates.
type seeder struct {
	ctx   context.Context
	svc   *staffing.Service
	today workforce.Date
	err   error
}

func newSeeder(ctx context.Context, svc *staffing.Service) *seeder {
	return &seeder{ctx: ctx, svc: svc, today: svc.Today()}
}

func (s *seeder) account(name, industry string) workforce.AccountID {
	if s.err != nil {
		return ""
	}
	a, err := s.svc.CreateAccount(s.ctx, staffing.AccountInput{Name: name, Industry: industry})
	if err != nil {
		s.err = err
		return ""
	}
	return a.ID
}

func (s *seeder) project(in staffing.ProjectInput) workforce.ProjectID {
	if s.err != nil {
		return ""
	}
	p, err := s.svc.CreateProject(s.ctx, in)
	if err != nil {
		s.err = err
		return ""
	}
	return p.ID
}

// employee creates an employee who joined on the given day. Demo data needs
// realistic join dates because bench duration never predates them.
func (s *seeder) employee(name, code, entity string, joined workforce.Date, skills ...string) workforce.EmployeeID {
	if s.err != nil {
		return ""
	}
	e, err := s.svc.CreateEmployee(s.ctx, staffing.EmployeeInput{
		Name:           name,
		Email:          code + "@example.com",
		Code:           code,
		Entity:         entity,
		EmploymentType: "full-time",
		PrimarySkills:  skills,
	})
	if err != nil {
		s.err = err
		return ""
	}
	e.CreatedAt = joined.Time
	e.StatusChangedAt = joined.Time
	s.err = s.svc.Store().SaveEmployee(s.ctx, *e)
	return e.ID
}

func (s *seeder) allocate(emp workforce.EmployeeID, proj workforce.ProjectID, percent int64, start workforce.Date, end *workforce.Date) {
	if s.err != nil {
		return
	}
	_, err := s.svc.CreateAllocation(s.ctx, staffing.AllocationInput{
		EmployeeID: emp,
		ProjectID:  proj,
		Percent:    workforce.NewPercent(percent),
		StartDate:  start,
		EndDate:    end,
	})
	s.err = err
}

func (s *seeder) daysAgo(n int) *workforce.Date {
	d := s.today.AddDays(-n)
	return &d
}

func loadReassignmentScenario(ctx context.Context, svc *staffing.Service) error {
	s := newSeeder(ctx, svc)
	acme := s.account("Acme Retail", "Retail")

	alpha := s.project(staffing.ProjectInput{
		Name: "Alpha", AccountID: acme, Status: workforce.ProjectActive,
		StartDate: s.today.AddDays(-60), Description: "Storefront replatforming",
	})
	beta := s.project(staffing.ProjectInput{
		Name: "Beta", AccountID: acme, Status: workforce.ProjectActive,
		StartDate: s.today.AddDays(-10), Description: "Loyalty programme",
	})

	joined := s.today.AddDays(-400)
	jane := s.employee("Jane Doe", "E001", "ITS", joined, "Go", "PostgreSQL")
	john := s.employee("John Smith", "E002", "ITS", joined, "React")
	s.employee("Priya Nair", "E003", "IBCC", s.today.AddDays(-20), "Data engineering")

	s.allocate(jane, alpha, 60, s.today.AddDays(-60), nil)
	s.allocate(john, beta, 100, s.today.AddDays(-10), nil)
	return s.err
}

func loadBenchRiskScenario(ctx context.Context, svc *staffing.Service) error {
	s := newSeeder(ctx, svc)
	legacy := s.project(staffing.ProjectInput{
		Name: "Legacy Support", Status: workforce.ProjectActive,
		StartDate: s.today.AddDays(-365), Description: "Internal maintenance pool",
	})

	// Each came off Legacy Support on a different day.
	joined := s.today.AddDays(-300)
	mia := s.employee("Mia Chen", "E101", "ITS", joined, "Java")
	omar := s.employee("Omar Haddad", "E102", "IITT", joined, "QA")
	lea := s.employee("Lea Martin", "E103", "ITS", joined, "Go")
	kim := s.employee("Kim Park", "E104", "IBCC", joined, "Design")

	s.allocate(mia, legacy, 100, s.today.AddDays(-200), s.daysAgo(50))
	s.allocate(omar, legacy, 100, s.today.AddDays(-200), s.daysAgo(35))
	s.allocate(lea, legacy, 100, s.today.AddDays(-200), s.daysAgo(12))
	s.allocate(kim, legacy, 30, s.today.AddDays(-30), nil)
	return s.err
}

func loadPipelineScenario(ctx context.Context, svc *staffing.Service) error {
	s := newSeeder(ctx, svc)
	globex := s.account("Globex", "Manufacturing")

	s.project(staffing.ProjectInput{
		Name: "Gamma", AccountID: globex, StartDate: s.today,
		Description: "Starts today; becomes active when projects are listed",
	})
	s.project(staffing.ProjectInput{
		Name: "Delta", AccountID: globex, StartDate: s.today.AddDays(30),
		Description: "Starts next month",
	})
	paused := s.project(staffing.ProjectInput{
		Name: "Epsilon", AccountID: globex, Status: workforce.ProjectActive,
		StartDate: s.today.AddDays(-90), Description: "Client paused the work",
	})

	ana := s.employee("Ana Souza", "E201", "ITS", s.today.AddDays(-120), "Go")
	s.allocate(ana, paused, 80, s.today.AddDays(-90), nil)
	if s.err != nil {
		return s.err
	}
	_, err := svc.ChangeProjectStatus(ctx, paused, workforce.ProjectOnHold, true)
	return err
}
