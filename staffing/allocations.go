package staffing

import (
	"context"
	"fmt"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/metrics"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// INPUTS / RESULTS
// =============================================================================

// AllocationInput creates one allocation. A zero StartDate means today and an
// empty Status means Active (On Hold when the project is on hold).
type AllocationInput struct {
	EmployeeID workforce.EmployeeID       `json:"employee_id"`
	ProjectID  workforce.ProjectID        `json:"project_id"`
	Percent    workforce.Percent          `json:"percent"`
	StartDate  workforce.Date             `json:"start_date"`
	EndDate    *workforce.Date            `json:"end_date"`
	Role       string                     `json:"role" validate:"max=100"`
	Status     workforce.AllocationStatus `json:"status"`
}

// AllocationUpdate changes selected fields of an allocation. Nil means keep.
type AllocationUpdate struct {
	Percent      *workforce.Percent          `json:"percent"`
	StartDate    *workforce.Date             `json:"start_date"`
	EndDate      *workforce.Date             `json:"end_date"`
	ClearEndDate bool                        `json:"clear_end_date"`
	Role         *string                     `json:"role" validate:"omitempty,max=100"`
	Status       *workforce.AllocationStatus `json:"status"`
}

// AllocationResult is a successful write plus its soft warnings.
type AllocationResult struct {
	Allocation  workforce.Allocation
	Utilization workforce.UtilizationView
	Warnings    []workforce.Warning
}

// RemovalResult reports a removal. Transition is nil when the history write
// failed; the allocation is removed regardless.
type RemovalResult struct {
	Removed     workforce.Allocation
	Transition  *workforce.Transition
	Utilization workforce.UtilizationView
}

// =============================================================================
// CREATE / UPDATE
// =============================================================================

// CreateAllocation assigns an employee to a project.
//
// Hard blocks (nothing written): employee not active, project missing or
// completed, percent outside [1,100], end before start, and a current
// allocation for the same employee/project pair. Pushing the employee above
// 100% is allowed and reported as a warning.
func (s *Service) CreateAllocation(ctx context.Context, in AllocationInput) (*AllocationResult, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	today := s.Today()
	if in.StartDate.IsZero() {
		in.StartDate = today
	}

	a := workforce.Allocation{
		ID:         workforce.AllocationID(s.newID()),
		EmployeeID: in.EmployeeID,
		ProjectID:  in.ProjectID,
		Percent:    in.Percent,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Role:       in.Role,
		Status:     in.Status,
	}
	if a.Status == "" {
		a.Status = workforce.AllocationActive
	}
	if err := workforce.ValidateAllocation(a); err != nil {
		return nil, err
	}

	emp, err := s.employee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := emp.RequireEditable(); err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if !proj.AcceptsAllocations() {
		return nil, workforce.ErrProjectClosed
	}
	a.Status = workforce.AllocationStatusFor(*proj, a.Status)

	existing, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: emp.ID})
	if err != nil {
		return nil, err
	}
	if err := workforce.CheckDuplicate(existing, a.EmployeeID, a.ProjectID, ""); err != nil {
		return nil, err
	}
	warnings := overallocationWarnings(existing, a, today)

	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if err := s.store.SaveAllocation(ctx, a); err != nil {
		return nil, err
	}

	metrics.AllocationsCreated.Inc()
	s.log.Info().
		Str("allocation_id", string(a.ID)).
		Str("employee_id", string(a.EmployeeID)).
		Str("project_id", string(a.ProjectID)).
		Str("percent", a.Percent.String()).
		Int("warnings", len(warnings)).
		Msg("allocation created")
	s.bump(ctx, cache.Allocations)

	return &AllocationResult{
		Allocation:  a,
		Utilization: workforce.BuildView(*emp, append(existing, a), nil, today),
		Warnings:    warnings,
	}, nil
}

// overallocationWarnings evaluates a against the employee's other allocations
// on the later of today and a's start, the first day it would count.
func overallocationWarnings(others []workforce.Allocation, a workforce.Allocation, today workforce.Date) []workforce.Warning {
	ref := workforce.MaxDate(today, a.StartDate)
	if !a.Status.Counts() || !a.IsActive(ref) {
		return nil
	}
	return workforce.OverallocationWarning(workforce.Utilization(others, ref), a.Percent)
}

// UpdateAllocation edits percent, dates, role or status of an allocation.
func (s *Service) UpdateAllocation(ctx context.Context, id workforce.AllocationID, upd AllocationUpdate) (*AllocationResult, error) {
	if err := checkInput(upd); err != nil {
		return nil, err
	}
	a, err := s.allocation(ctx, id)
	if err != nil {
		return nil, err
	}
	emp, err := s.employee(ctx, a.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := emp.RequireEditable(); err != nil {
		return nil, err
	}
	proj, err := s.project(ctx, a.ProjectID)
	if err != nil {
		return nil, err
	}

	if upd.Percent != nil {
		a.Percent = *upd.Percent
	}
	if upd.StartDate != nil {
		a.StartDate = *upd.StartDate
	}
	if upd.ClearEndDate {
		a.EndDate = nil
	} else if upd.EndDate != nil {
		a.EndDate = upd.EndDate
	}
	if upd.Role != nil {
		a.Role = *upd.Role
	}
	if upd.Status != nil {
		a.Status = *upd.Status
		if err := workforce.ValidateAllocation(*a); err != nil {
			return nil, err
		}
		a.Status = workforce.AllocationStatusFor(*proj, a.Status)
	}
	if err := workforce.ValidateAllocation(*a); err != nil {
		return nil, err
	}

	existing, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: a.EmployeeID})
	if err != nil {
		return nil, err
	}
	if a.Current() {
		if err := workforce.CheckDuplicate(existing, a.EmployeeID, a.ProjectID, a.ID); err != nil {
			return nil, err
		}
	}
	others := withoutAllocation(existing, a.ID)
	today := s.Today()
	warnings := overallocationWarnings(others, *a, today)

	a.UpdatedAt = s.now()
	if err := s.store.SaveAllocation(ctx, *a); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Allocations)

	return &AllocationResult{
		Allocation:  *a,
		Utilization: workforce.BuildView(*emp, append(others, *a), nil, today),
		Warnings:    warnings,
	}, nil
}

func withoutAllocation(allocs []workforce.Allocation, id workforce.AllocationID) []workforce.Allocation {
	out := make([]workforce.Allocation, 0, len(allocs))
	for _, a := range allocs {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func (s *Service) GetAllocation(ctx context.Context, id workforce.AllocationID) (*workforce.Allocation, error) {
	return s.allocation(ctx, id)
}

func (s *Service) ListAllocations(ctx context.Context, f workforce.AllocationFilter) ([]workforce.Allocation, error) {
	if f.Status != "" && !f.Status.Valid() {
		ve := &workforce.ValidationError{}
		ve.Add("status", "is not a valid allocation status")
		return nil, ve
	}
	return s.store.ListAllocations(ctx, f)
}

// =============================================================================
// REMOVE WITH HISTORY
// =============================================================================

// RemoveAllocation takes an employee off a project. A transition record is
// written first; if that write fails the failure is logged and the removal
// still goes ahead.
func (s *Service) RemoveAllocation(ctx context.Context, id workforce.AllocationID, details workforce.RemovalDetails) (*RemovalResult, error) {
	a, err := s.allocation(ctx, id)
	if err != nil {
		return nil, err
	}
	emp, err := s.employee(ctx, a.EmployeeID)
	if err != nil {
		return nil, err
	}
	if err := emp.RequireEditable(); err != nil {
		return nil, err
	}

	tr, err := s.removeWithHistory(ctx, *a, details)
	if err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Allocations, cache.Transitions)

	remaining, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: emp.ID})
	if err != nil {
		return nil, err
	}
	return &RemovalResult{
		Removed:     *a,
		Transition:  tr,
		Utilization: workforce.BuildView(*emp, remaining, nil, s.Today()),
	}, nil
}

// removeWithHistory writes the transition (best effort) and deletes a.
func (s *Service) removeWithHistory(ctx context.Context, a workforce.Allocation, details workforce.RemovalDetails) (*workforce.Transition, error) {
	tr := workforce.NewTransition(workforce.TransitionID(s.newID()), a, details, s.Today())
	tr.CreatedAt = s.now()

	recorded := &tr
	if err := s.store.CreateTransition(ctx, tr); err != nil {
		s.log.Warn().Err(err).
			Str("allocation_id", string(a.ID)).
			Str("employee_id", string(a.EmployeeID)).
			Msg("failed to record transition history, removing allocation anyway")
		metrics.TransitionWrites.WithLabelValues(metrics.ResultFailed).Inc()
		recorded = nil
	} else {
		metrics.TransitionWrites.WithLabelValues(metrics.ResultOK).Inc()
	}

	if err := s.store.DeleteAllocation(ctx, a.ID); err != nil {
		return nil, err
	}
	metrics.AllocationsRemoved.Inc()
	s.log.Info().
		Str("allocation_id", string(a.ID)).
		Str("employee_id", string(a.EmployeeID)).
		Str("project_id", string(a.ProjectID)).
		Bool("history", recorded != nil).
		Msg("allocation removed")
	return recorded, nil
}

// =============================================================================
// DRAFT SAVE - Replace an employee's current allocation set in one call
// =============================================================================

// DraftAllocation is one row of the allocation editor. An empty ID is a new
// allocation.
type DraftAllocation struct {
	ID        workforce.AllocationID     `json:"id"`
	ProjectID workforce.ProjectID        `json:"project_id"`
	Percent   workforce.Percent          `json:"percent"`
	StartDate workforce.Date             `json:"start_date"`
	EndDate   *workforce.Date            `json:"end_date"`
	Role      string                     `json:"role" validate:"max=100"`
	Status    workforce.AllocationStatus `json:"status"`
}

// DraftInput is the full editor state. Current allocations missing from
// Allocations are removed with history using ManagerName and Remarks.
type DraftInput struct {
	Allocations []DraftAllocation `json:"allocations" validate:"dive"`
	ManagerName string            `json:"manager_name" validate:"max=100"`
	Remarks     string            `json:"remarks" validate:"max=2000"`
}

type DraftResult struct {
	Created     []workforce.Allocation
	Updated     []workforce.Allocation
	Removed     []workforce.AllocationID
	Warnings    []workforce.Warning
	Utilization workforce.UtilizationView
}

// SaveAllocationDraft validates every row first and writes nothing if any
// row is rejected. Rows are then applied one by one; the store offers no
// cross-row transaction, so a backend failure can leave a partial result.
func (s *Service) SaveAllocationDraft(ctx context.Context, employeeID workforce.EmployeeID, in DraftInput) (*DraftResult, error) {
	if err := checkInput(in); err != nil {
		return nil, err
	}
	emp, err := s.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := emp.RequireEditable(); err != nil {
		return nil, err
	}

	existing, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: employeeID})
	if err != nil {
		return nil, err
	}
	byID := make(map[workforce.AllocationID]workforce.Allocation, len(existing))
	for _, a := range existing {
		byID[a.ID] = a
	}

	today := s.Today()
	now := s.now()
	projects := make(map[workforce.ProjectID]*workforce.Project)

	var (
		final   []workforce.Allocation
		creates []workforce.Allocation
		updates []workforce.Allocation
		kept    = make(map[workforce.AllocationID]bool)
	)
	for i, row := range in.Allocations {
		proj, ok := projects[row.ProjectID]
		if !ok && row.ProjectID != "" {
			proj, err = s.project(ctx, row.ProjectID)
			if err != nil {
				return nil, fmt.Errorf("allocation %d: %w", i, err)
			}
			projects[row.ProjectID] = proj
		}

		a := workforce.Allocation{
			ID:         row.ID,
			EmployeeID: employeeID,
			ProjectID:  row.ProjectID,
			Percent:    row.Percent,
			StartDate:  row.StartDate,
			EndDate:    row.EndDate,
			Role:       row.Role,
			Status:     row.Status,
		}
		if a.StartDate.IsZero() {
			a.StartDate = today
		}
		if a.Status == "" {
			a.Status = workforce.AllocationActive
		}
		if err := workforce.ValidateAllocation(a); err != nil {
			return nil, fmt.Errorf("allocation %d: %w", i, err)
		}
		a.Status = workforce.AllocationStatusFor(*proj, a.Status)

		if row.ID == "" {
			if !proj.AcceptsAllocations() {
				return nil, fmt.Errorf("allocation %d: %w", i, workforce.ErrProjectClosed)
			}
			a.ID = workforce.AllocationID(s.newID())
			a.CreatedAt = now
			a.UpdatedAt = now
			creates = append(creates, a)
		} else {
			prev, ok := byID[row.ID]
			if !ok {
				return nil, fmt.Errorf("allocation %d: %w", i, workforce.ErrAllocationNotFound)
			}
			if prev.ProjectID != a.ProjectID {
				ve := &workforce.ValidationError{}
				ve.Add(fmt.Sprintf("allocations[%d].project_id", i), "cannot change on an existing allocation")
				return nil, ve
			}
			a.CreatedAt = prev.CreatedAt
			a.UpdatedAt = now
			if kept[a.ID] {
				ve := &workforce.ValidationError{}
				ve.Add(fmt.Sprintf("allocations[%d].id", i), "is listed twice")
				return nil, ve
			}
			kept[a.ID] = true
			if !sameAllocation(prev, a) {
				updates = append(updates, a)
			}
		}

		if a.Current() {
			if err := workforce.CheckDuplicate(final, a.EmployeeID, a.ProjectID, a.ID); err != nil {
				return nil, fmt.Errorf("allocation %d: %w", i, err)
			}
		}
		final = append(final, a)
	}

	// Current rows the editor dropped are removed; ended rows are history.
	var removals []workforce.Allocation
	for _, a := range existing {
		if !kept[a.ID] && a.Current() {
			removals = append(removals, a)
		}
	}

	result := &DraftResult{}
	defer func() {
		if len(result.Created)+len(result.Updated)+len(result.Removed) > 0 {
			s.bump(ctx, cache.Allocations, cache.Transitions)
		}
	}()

	details := workforce.RemovalDetails{ManagerName: in.ManagerName, Remarks: in.Remarks}
	for _, a := range removals {
		if _, err := s.removeWithHistory(ctx, a, details); err != nil {
			return nil, err
		}
		result.Removed = append(result.Removed, a.ID)
	}
	for _, a := range updates {
		if err := s.store.SaveAllocation(ctx, a); err != nil {
			return nil, err
		}
		result.Updated = append(result.Updated, a)
	}
	for _, a := range creates {
		if err := s.store.SaveAllocation(ctx, a); err != nil {
			return nil, err
		}
		metrics.AllocationsCreated.Inc()
		result.Created = append(result.Created, a)
	}

	// Ended rows not in the draft stay in the employee's set.
	for _, a := range existing {
		if !kept[a.ID] && !a.Current() {
			final = append(final, a)
		}
	}
	u := workforce.Utilization(final, today)
	if u.GreaterThan(workforce.FullCapacity) {
		result.Warnings = []workforce.Warning{{
			Code:    workforce.WarnOverallocated,
			Message: "employee will be overallocated (" + u.String() + "%)",
		}}
	}
	result.Utilization = workforce.BuildView(*emp, final, nil, today)

	s.log.Info().
		Str("employee_id", string(employeeID)).
		Int("created", len(result.Created)).
		Int("updated", len(result.Updated)).
		Int("removed", len(result.Removed)).
		Msg("allocation draft saved")
	return result, nil
}

func sameAllocation(a, b workforce.Allocation) bool {
	sameEnd := (a.EndDate == nil && b.EndDate == nil) ||
		(a.EndDate != nil && b.EndDate != nil && a.EndDate.Equal(*b.EndDate))
	return a.Percent.Equal(b.Percent) &&
		a.StartDate.Equal(b.StartDate) &&
		sameEnd &&
		a.Role == b.Role &&
		a.Status == b.Status
}
