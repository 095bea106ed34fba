package staffing

import (
	"context"
	"strings"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/metrics"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// ProjectInput is the editable part of a project. Status is only honoured on
// create; later changes go through ChangeProjectStatus.
type ProjectInput struct {
	Name        string                  `json:"name" validate:"required,max=200"`
	Entity      string                  `json:"entity" validate:"max=100"`
	AccountID   workforce.AccountID     `json:"account_id"`
	Status      workforce.ProjectStatus `json:"status" validate:"omitempty,oneof=proposal active on-hold completed"`
	StartDate   workforce.Date          `json:"start_date"`
	EndDate     *workforce.Date         `json:"end_date"`
	Description string                  `json:"description" validate:"max=2000"`
}

func (s *Service) checkProjectInput(ctx context.Context, in ProjectInput) error {
	if err := checkInput(in); err != nil {
		return err
	}
	if in.StartDate.IsZero() {
		ve := &workforce.ValidationError{}
		ve.Add("start_date", "is required")
		return ve
	}
	if err := (workforce.Period{Start: in.StartDate, End: in.EndDate}).Validate(); err != nil {
		return err
	}
	if in.AccountID != "" {
		if _, err := s.account(ctx, in.AccountID); err != nil {
			return err
		}
	}
	return nil
}

func optionalAccount(id workforce.AccountID) *workforce.AccountID {
	if id == "" {
		return nil
	}
	return &id
}

// CreateProject adds a project, as a proposal unless told otherwise.
func (s *Service) CreateProject(ctx context.Context, in ProjectInput) (*workforce.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.checkProjectInput(ctx, in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = workforce.ProjectProposal
	}

	now := s.now()
	p := workforce.Project{
		ID:          workforce.ProjectID(s.newID()),
		Name:        in.Name,
		Entity:      in.Entity,
		AccountID:   optionalAccount(in.AccountID),
		Status:      status,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveProject(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Str("project_id", string(p.ID)).Str("status", string(p.Status)).Msg("project created")
	s.bump(ctx, cache.Projects)
	return &p, nil
}

func (s *Service) GetProject(ctx context.Context, id workforce.ProjectID) (*workforce.Project, error) {
	return s.project(ctx, id)
}

// ListProjects runs the passive status sweep, then returns the filtered list.
// A failing sweep never fails the read.
func (s *Service) ListProjects(ctx context.Context, f workforce.ProjectFilter) ([]workforce.Project, error) {
	if _, err := s.SweepProjectStatuses(ctx, s.Today()); err != nil {
		s.log.Warn().Err(err).Msg("project sweep skipped")
	}
	return s.store.ListProjects(ctx, f)
}

// UpdateProject replaces the descriptive fields of a project.
func (s *Service) UpdateProject(ctx context.Context, id workforce.ProjectID, in ProjectInput) (*workforce.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Status = ""
	if err := s.checkProjectInput(ctx, in); err != nil {
		return nil, err
	}
	p, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Entity = in.Entity
	p.AccountID = optionalAccount(in.AccountID)
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	p.Description = in.Description
	p.UpdatedAt = s.now()

	if err := s.store.SaveProject(ctx, *p); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Projects)
	return p, nil
}

// StatusChange reports a project status update and the allocations it moved.
type StatusChange struct {
	Project             workforce.Project
	AffectedAllocations int
}

// ChangeProjectStatus applies a manual status change. Putting a project on
// hold parks its Active allocations (they stop counting toward utilization)
// and needs confirm=true; resuming it restores them.
func (s *Service) ChangeProjectStatus(ctx context.Context, id workforce.ProjectID, to workforce.ProjectStatus, confirm bool) (*StatusChange, error) {
	p, err := s.project(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workforce.CheckProjectTransition(p.Status, to); err != nil {
		return nil, err
	}
	if p.Status == to {
		return &StatusChange{Project: *p}, nil
	}

	allocs, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{ProjectID: id})
	if err != nil {
		return nil, err
	}

	var (
		fromAlloc workforce.AllocationStatus
		toAlloc   workforce.AllocationStatus
	)
	switch {
	case to == workforce.ProjectOnHold:
		fromAlloc, toAlloc = workforce.AllocationActive, workforce.AllocationOnHold
	case p.Status == workforce.ProjectOnHold && to == workforce.ProjectActive:
		fromAlloc, toAlloc = workforce.AllocationOnHold, workforce.AllocationActive
	}

	var affected []workforce.Allocation
	if fromAlloc != "" {
		for _, a := range allocs {
			if a.Status == fromAlloc {
				affected = append(affected, a)
			}
		}
	}

	if workforce.NeedsConfirmation(p.Status, to) && !confirm {
		return nil, &workforce.ConfirmationError{Action: "putting the project on hold", Impacted: len(affected)}
	}

	from := p.Status
	if err := s.store.UpdateProjectStatus(ctx, id, to); err != nil {
		return nil, err
	}
	p.Status = to
	p.UpdatedAt = s.now()

	moved := 0
	for _, a := range affected {
		a.Status = toAlloc
		a.UpdatedAt = p.UpdatedAt
		if err := s.store.SaveAllocation(ctx, a); err != nil {
			// The project row is already updated; report what did move.
			s.log.Error().Err(err).
				Str("project_id", string(id)).
				Str("allocation_id", string(a.ID)).
				Msg("failed to update allocation status with project")
			s.bump(ctx, cache.Projects, cache.Allocations)
			return nil, err
		}
		moved++
	}

	s.log.Info().
		Str("project_id", string(id)).
		Str("from", string(from)).
		Str("to", string(to)).
		Int("allocations", moved).
		Msg("project status changed")
	s.bump(ctx, cache.Projects, cache.Allocations)
	return &StatusChange{Project: *p, AffectedAllocations: moved}, nil
}

// DeleteProject removes a project with no allocations.
func (s *Service) DeleteProject(ctx context.Context, id workforce.ProjectID) error {
	if _, err := s.project(ctx, id); err != nil {
		return err
	}
	allocs, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{ProjectID: id})
	if err != nil {
		return err
	}
	if len(allocs) > 0 {
		return workforce.ErrInUse
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.bump(ctx, cache.Projects)
	return nil
}

// =============================================================================
// PASSIVE SWEEP - Proposal -> Active once the start date arrives
// =============================================================================

// SweepFailure is one project the sweep could not update.
type SweepFailure struct {
	ProjectID workforce.ProjectID `json:"project_id"`
	Error     string              `json:"error"`
}

// SweepReport summarizes one sweep run.
type SweepReport struct {
	Checked   int                   `json:"checked"`
	Activated []workforce.ProjectID `json:"activated"`
	Failed    []SweepFailure        `json:"failed"`
}

// SweepProjectStatuses activates every proposal whose start date is on or
// before today. Each project is updated independently: one failure is
// recorded and the sweep moves on. The returned error is only set when the
// proposal list itself could not be read.
func (s *Service) SweepProjectStatuses(ctx context.Context, today workforce.Date) (*SweepReport, error) {
	proposals, err := s.store.ListProjects(ctx, workforce.ProjectFilter{Status: workforce.ProjectProposal})
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Checked: len(proposals)}
	for _, p := range proposals {
		if !workforce.ShouldActivate(p, today) {
			continue
		}
		if err := s.store.UpdateProjectStatus(ctx, p.ID, workforce.ProjectActive); err != nil {
			s.log.Warn().Err(err).Str("project_id", string(p.ID)).Msg("failed to auto-activate project")
			metrics.ProjectActivations.WithLabelValues(metrics.ResultFailed).Inc()
			report.Failed = append(report.Failed, SweepFailure{ProjectID: p.ID, Error: err.Error()})
			continue
		}
		metrics.ProjectActivations.WithLabelValues(metrics.ResultOK).Inc()
		report.Activated = append(report.Activated, p.ID)
	}

	if len(report.Activated) > 0 {
		s.log.Info().Int("activated", len(report.Activated)).Int("failed", len(report.Failed)).Msg("project sweep")
		s.bump(ctx, cache.Projects)
	}
	return report, nil
}
