package workforce

// =============================================================================
// ASSIGNMENT RULES - Checks run before any allocation write
// =============================================================================

// ValidateAllocation checks the row-local rules: percent range, window, status.
func ValidateAllocation(a Allocation) error {
	if !a.Percent.InAllocationRange() {
		return &PercentRangeError{Percent: a.Percent}
	}
	if err := a.Period().Validate(); err != nil {
		return err
	}
	v := &ValidationError{}
	if a.EmployeeID == "" {
		v.Add("employee_id", "is required")
	}
	if a.ProjectID == "" {
		v.Add("project_id", "is required")
	}
	if a.StartDate.IsZero() {
		v.Add("start_date", "is required")
	}
	if a.Status != "" && !a.Status.Valid() {
		v.Add("status", "is not a valid allocation status")
	}
	return v.OrNil()
}

// FindDuplicate returns the current allocation that already places the
// employee on the project, skipping the allocation with id `except` (used
// when editing an existing row). Nil means the pair is free.
func FindDuplicate(existing []Allocation, employeeID EmployeeID, projectID ProjectID, except AllocationID) *Allocation {
	for i := range existing {
		a := existing[i]
		if a.ID == except || !a.Current() {
			continue
		}
		if a.EmployeeID == employeeID && a.ProjectID == projectID {
			return &a
		}
	}
	return nil
}

// CheckDuplicate wraps FindDuplicate into the hard-block error.
func CheckDuplicate(existing []Allocation, employeeID EmployeeID, projectID ProjectID, except AllocationID) error {
	if dup := FindDuplicate(existing, employeeID, projectID, except); dup != nil {
		return &DuplicateAssignmentError{EmployeeID: employeeID, ProjectID: projectID, ExistingID: dup.ID}
	}
	return nil
}

// Warning is a non-blocking notice returned next to a successful result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const WarnOverallocated = "overallocated"

// OverallocationWarning returns the soft warning for current+added > 100.
func OverallocationWarning(current, added Percent) []Warning {
	if !WouldOverallocate(current, added) {
		return nil
	}
	return []Warning{{
		Code:    WarnOverallocated,
		Message: "employee will be overallocated (" + current.Add(added).String() + "%)",
	}}
}

// NewTransition builds the history row that closes out a.
func NewTransition(id TransitionID, a Allocation, details RemovalDetails, today Date) Transition {
	end := today
	if details.EndDate != nil {
		end = *details.EndDate
	} else if a.EndDate != nil && a.EndDate.Before(today) {
		end = *a.EndDate
	}
	if end.Before(a.StartDate) {
		end = a.StartDate
	}
	return Transition{
		ID:           id,
		EmployeeID:   a.EmployeeID,
		ProjectID:    a.ProjectID,
		AllocationID: a.ID,
		StartDate:    a.StartDate,
		EndDate:      end,
		Percent:      a.Percent,
		Role:         a.Role,
		Status:       TransitionCompleted,
		ManagerName:  details.ManagerName,
		Remarks:      details.Remarks,
	}
}
