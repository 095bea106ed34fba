/*
Package workforce provides the core staffing model and its business rules.

PURPOSE:
  This package holds the records the talent map works with (employees,
  projects, accounts, allocations, transitions) and the pure rules derived
  from them. Nothing here talks to a database or the network; persistence is
  behind the Store interfaces in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Typed identifiers: EmployeeID, ProjectID, ... prevent mixing ids
  - Employee / Project / Account: the directory records
  - Allocation: a time-bounded assignment of an employee to a project
  - Transition: the immutable history written when an allocation is removed

DESIGN PRINCIPLES:
  1. Derived, never stored: utilization is always recomputed from allocations
  2. Precision: percentages use decimal.Decimal (see percent.go)
  3. Day granularity: all business dates are calendar days (see date.go)

SEE ALSO:
  - utilization.go: Utilization calculator and classification bands
  - bench.go: Bench-duration risk classifier
  - lifecycle.go: Status transitions and the project auto-activation rule
  - store.go: Persistence interfaces
*/
package workforce

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type ProjectID string
type AccountID string
type AllocationID string
type TransitionID string
type CommentID string
type SkillID string

// =============================================================================
// EMPLOYEE
// =============================================================================

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeOnHold   EmployeeStatus = "on-hold"
	EmployeeArchived EmployeeStatus = "archived"
)

func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeActive, EmployeeOnHold, EmployeeArchived:
		return true
	}
	return false
}

// Employee is a person in the directory. It deliberately has no utilization
// field: see Utilization.
type Employee struct {
	ID             EmployeeID
	Name           string
	Email          string
	Code           string
	Entity         string // internal unit, e.g. ITS, IBCC, IITT
	EmploymentType string // e.g. full-time, contractor
	Status         EmployeeStatus

	PrimarySkills   []string
	SecondarySkills []string

	CreatedAt       time.Time
	UpdatedAt       time.Time
	StatusChangedAt time.Time
}

// =============================================================================
// PROJECT
// =============================================================================

type ProjectStatus string

const (
	ProjectProposal  ProjectStatus = "proposal"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on-hold"
	ProjectCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectProposal, ProjectActive, ProjectOnHold, ProjectCompleted:
		return true
	}
	return false
}

type Project struct {
	ID          ProjectID
	Name        string
	Entity      string
	AccountID   *AccountID // nil = internal project
	Status      ProjectStatus
	StartDate   Date
	EndDate     *Date
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// ACCOUNT
// =============================================================================

// Account is a client owning zero or more projects. Its metrics are derived,
// see account.go.
type Account struct {
	ID           AccountID
	Name         string
	Entity       string
	Industry     string
	ContactEmail string
	CreatedAt    time.Time
}

// =============================================================================
// ALLOCATION - Employee x Project x Period x Percent
// =============================================================================

type AllocationStatus string

const (
	AllocationActive  AllocationStatus = "Active"
	AllocationPlanned AllocationStatus = "Planned"
	AllocationOnHold  AllocationStatus = "On Hold"
	AllocationEnded   AllocationStatus = "Ended"
)

func (s AllocationStatus) Valid() bool {
	switch s {
	case AllocationActive, AllocationPlanned, AllocationOnHold, AllocationEnded:
		return true
	}
	return false
}

// Counts reports whether allocations in this status contribute to utilization.
func (s AllocationStatus) Counts() bool {
	return s == AllocationActive || s == AllocationPlanned
}

type Allocation struct {
	ID         AllocationID
	EmployeeID EmployeeID
	ProjectID  ProjectID
	Percent    Percent
	StartDate  Date
	EndDate    *Date // nil = open-ended
	Role       string
	Status     AllocationStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period returns the allocation's effective window.
func (a Allocation) Period() Period {
	return Period{Start: a.StartDate, End: a.EndDate}
}

// IsActive returns true if the allocation's window covers the given day.
// Status is not considered; see EffectivePercent.
func (a Allocation) IsActive(at Date) bool {
	return a.Period().Contains(at)
}

// EffectivePercent is the share this allocation contributes to utilization
// sums: the stored percent for Active and Planned, zero otherwise.
func (a Allocation) EffectivePercent() Percent {
	if !a.Status.Counts() {
		return ZeroPercent
	}
	return a.Percent
}

// Current reports whether the allocation still occupies its employee on the
// project, i.e. whether a second allocation for the same pair is a duplicate.
func (a Allocation) Current() bool {
	return a.Status != AllocationEnded
}

// =============================================================================
// TRANSITION - History of an allocation leaving a project
// =============================================================================

type TransitionStatus string

const TransitionCompleted TransitionStatus = "completed"

// Transition is written once, when an allocation is removed or moved.
// Only its comment thread changes afterwards.
type Transition struct {
	ID           TransitionID
	EmployeeID   EmployeeID
	ProjectID    ProjectID
	AllocationID AllocationID
	StartDate    Date
	EndDate      Date
	Percent      Percent
	Role         string
	Status       TransitionStatus
	ManagerName  string
	Remarks      string
	Comments     []Comment
	CreatedAt    time.Time
}

type Comment struct {
	ID           CommentID
	TransitionID TransitionID
	Author       string
	Text         string
	CreatedAt    time.Time
}

// RemovalDetails is what the operator supplies when taking an employee off a
// project.
type RemovalDetails struct {
	ManagerName string
	Remarks     string
	EndDate     *Date // defaults to the removal day
}

// =============================================================================
// SKILL DIRECTORY
// =============================================================================

type SkillLevel string

const (
	SkillPrimary   SkillLevel = "primary"
	SkillSecondary SkillLevel = "secondary"
)

type Skill struct {
	ID       SkillID
	Name     string
	Category string
}

type EmployeeSkill struct {
	EmployeeID EmployeeID
	SkillID    SkillID
	Level      SkillLevel
}
