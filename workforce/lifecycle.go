package workforce

// =============================================================================
// EMPLOYEE LIFECYCLE
// =============================================================================

// employeeEdges lists the legal status changes. Archived is terminal.
var employeeEdges = map[EmployeeStatus][]EmployeeStatus{
	EmployeeActive: {EmployeeOnHold, EmployeeArchived},
	EmployeeOnHold: {EmployeeActive, EmployeeArchived},
}

// CheckEmployeeTransition validates a status change. Same-status is a no-op.
func CheckEmployeeTransition(from, to EmployeeStatus) error {
	if !to.Valid() {
		return &StatusTransitionError{Kind: "employee", From: string(from), To: string(to)}
	}
	if from == to {
		return nil
	}
	for _, next := range employeeEdges[from] {
		if next == to {
			return nil
		}
	}
	return &StatusTransitionError{Kind: "employee", From: string(from), To: string(to)}
}

// Editable reports whether the employee's core fields and allocations may
// change.
func (e Employee) Editable() bool {
	return e.Status == EmployeeActive
}

// RequireEditable returns ErrEmployeeNotEditable for non-active employees.
func (e Employee) RequireEditable() error {
	if !e.Editable() {
		return ErrEmployeeNotEditable
	}
	return nil
}

// =============================================================================
// PROJECT LIFECYCLE
// =============================================================================

// CheckProjectTransition validates a status change. Completed is terminal;
// everything else may move freely.
func CheckProjectTransition(from, to ProjectStatus) error {
	if !to.Valid() || (from == ProjectCompleted && to != ProjectCompleted) {
		return &StatusTransitionError{Kind: "project", From: string(from), To: string(to)}
	}
	return nil
}

// NeedsConfirmation reports whether moving from -> to affects the derived
// utilization of the project's members and must be confirmed first.
func NeedsConfirmation(from, to ProjectStatus) bool {
	return to == ProjectOnHold && from != ProjectOnHold
}

// ShouldActivate is the only automatic status change: a proposal whose start
// date has arrived becomes active. Nothing moves projects to completed.
func ShouldActivate(p Project, today Date) bool {
	return p.Status == ProjectProposal && !p.StartDate.After(today)
}

// AcceptsAllocations reports whether new people may be assigned.
func (p Project) AcceptsAllocations() bool {
	return p.Status != ProjectCompleted
}

// AllocationStatusFor returns the status a new allocation gets on p: placing
// someone on a held project parks the allocation as On Hold.
func AllocationStatusFor(p Project, requested AllocationStatus) AllocationStatus {
	if p.Status == ProjectOnHold && requested.Counts() {
		return AllocationOnHold
	}
	if requested == "" {
		return AllocationActive
	}
	return requested
}
