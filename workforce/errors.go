/*
errors.go - Centralized error types for the staffing domain

PURPOSE:
  All error types in one place for consistency and discoverability.
  The service and HTTP layers wrap these with context and map them to
  status codes; callers test them with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Not found - a referenced record does not exist
  2. Validation - bad input caught before any write (percent range, dates,
     missing fields)
  3. Conflict - duplicate assignment, illegal status change, unconfirmed
     destructive change; no write is attempted
  4. Store - backend failures, wrapped with fmt.Errorf("...: %w")

SEE ALSO:
  - api/handlers.go: statusFor maps these to HTTP codes
*/
package workforce

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAllocationNotFound = errors.New("allocation not found")
	ErrTransitionNotFound = errors.New("transition not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrSkillNotFound      = errors.New("skill not found")

	// ErrDuplicateAssignment is returned when the employee already holds a
	// current allocation on the project. Hard block: nothing is written.
	ErrDuplicateAssignment = errors.New("employee is already assigned to this project")

	// ErrPercentOutOfRange is returned for allocation percents outside [1, 100].
	ErrPercentOutOfRange = errors.New("allocation percent must be between 1 and 100")

	// ErrInvalidPeriod is returned when an end date precedes its start date.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrValidation is the parent of field-level validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrEmployeeNotEditable is returned when editing a non-active employee.
	ErrEmployeeNotEditable = errors.New("only active employees can be edited")

	// ErrProjectClosed is returned when assigning to a completed project.
	ErrProjectClosed = errors.New("project is completed")

	// ErrInvalidStatusTransition is returned for a disallowed lifecycle edge.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrConfirmationRequired is returned when a change with side effects on
	// other records was requested without explicit confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrInUse is returned when deleting a record others still reference.
	ErrInUse = errors.New("record is still referenced")

	// ErrDuplicateCode is returned when an employee code is already taken.
	ErrDuplicateCode = errors.New("employee code already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateAssignmentError names the allocation that blocks the new one.
type DuplicateAssignmentError struct {
	EmployeeID EmployeeID
	ProjectID  ProjectID
	ExistingID AllocationID
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("employee %s is already assigned to project %s (allocation %s)",
		e.EmployeeID, e.ProjectID, e.ExistingID)
}

func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }

// PercentRangeError carries the rejected value.
type PercentRangeError struct {
	Percent Percent
}

func (e *PercentRangeError) Error() string {
	return fmt.Sprintf("allocation percent %s is outside [1, 100]", e.Percent)
}

func (e *PercentRangeError) Unwrap() error { return ErrPercentOutOfRange }

// PeriodError carries the malformed window.
type PeriodError struct {
	Start Date
	End   Date
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("end date %s is before start date %s", e.End, e.Start)
}

func (e *PeriodError) Unwrap() error { return ErrInvalidPeriod }

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError groups field failures so forms can show them inline.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Fields[0].Field, e.Fields[0].Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StatusTransitionError names the rejected edge.
type StatusTransitionError struct {
	Kind string // "employee" or "project"
	From string
	To   string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("%s status cannot change from %q to %q", e.Kind, e.From, e.To)
}

func (e *StatusTransitionError) Unwrap() error { return ErrInvalidStatusTransition }

// ConfirmationError tells the caller what the confirmed change would affect.
type ConfirmationError struct {
	Action   string
	Impacted int
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%s affects %d allocation(s); resend with confirm=true", e.Action, e.Impacted)
}

func (e *ConfirmationError) Unwrap() error { return ErrConfirmationRequired }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAllocationNotFound) ||
		errors.Is(err, ErrTransitionNotFound) ||
		errors.Is(err, ErrCommentNotFound) ||
		errors.Is(err, ErrSkillNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPercentOutOfRange) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsConflict returns true if the request clashes with existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAssignment) ||
		errors.Is(err, ErrInvalidStatusTransition) ||
		errors.Is(err, ErrConfirmationRequired) ||
		errors.Is(err, ErrInUse) ||
		errors.Is(err, ErrDuplicateCode) ||
		errors.Is(err, ErrProjectClosed)
}
