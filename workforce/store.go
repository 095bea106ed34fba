/*
store.go - Persistence interfaces for the staffing collections

PURPOSE:
  Defines the contract between the business rules and whatever holds the
  rows. The rules only ever need "fetch matching rows" and "mutate one row by
  id"; there is no cross-row transaction in this contract.

KEY INTERFACES:
  EmployeeStore, ProjectStore, AccountStore, AllocationStore,
  TransitionStore, SkillStore, and Store which embeds all of them.

CONSISTENCY:
  Last write wins. Callers must not assume a write is visible to a read
  issued elsewhere before the affected cache generation was bumped (see the
  cache package).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - workforce/store/memory.go: In-memory for tests and demos
*/
package workforce

import "context"

// =============================================================================
// FILTERS - Equality predicates; zero values mean "any"
// =============================================================================

type EmployeeFilter struct {
	Status         EmployeeStatus
	Entity         string
	EmploymentType string
	Search         string // case-insensitive match on name, email, code
}

type ProjectFilter struct {
	Status    ProjectStatus
	AccountID AccountID
	Entity    string
}

type AllocationFilter struct {
	EmployeeID EmployeeID
	ProjectID  ProjectID
	Status     AllocationStatus
}

type TransitionFilter struct {
	EmployeeID EmployeeID
	ProjectID  ProjectID
}

// =============================================================================
// STORES
// =============================================================================

type EmployeeStore interface {
	SaveEmployee(ctx context.Context, e Employee) error // insert or replace
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)
	ListEmployees(ctx context.Context, f EmployeeFilter) ([]Employee, error)
	DeleteEmployee(ctx context.Context, id EmployeeID) error
}

type ProjectStore interface {
	SaveProject(ctx context.Context, p Project) error
	GetProject(ctx context.Context, id ProjectID) (*Project, error)
	ListProjects(ctx context.Context, f ProjectFilter) ([]Project, error)
	UpdateProjectStatus(ctx context.Context, id ProjectID, status ProjectStatus) error
	DeleteProject(ctx context.Context, id ProjectID) error
}

type AccountStore interface {
	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id AccountID) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	DeleteAccount(ctx context.Context, id AccountID) error
}

type AllocationStore interface {
	SaveAllocation(ctx context.Context, a Allocation) error
	GetAllocation(ctx context.Context, id AllocationID) (*Allocation, error)
	ListAllocations(ctx context.Context, f AllocationFilter) ([]Allocation, error)
	DeleteAllocation(ctx context.Context, id AllocationID) error
}

// TransitionStore is append-only for transitions; only comments change later.
type TransitionStore interface {
	CreateTransition(ctx context.Context, t Transition) error
	GetTransition(ctx context.Context, id TransitionID) (*Transition, error)
	ListTransitions(ctx context.Context, f TransitionFilter) ([]Transition, error)
	AddComment(ctx context.Context, c Comment) error
	DeleteComment(ctx context.Context, transitionID TransitionID, id CommentID) error
}

type SkillStore interface {
	SaveSkill(ctx context.Context, s Skill) error
	ListSkills(ctx context.Context) ([]Skill, error)
	SetEmployeeSkills(ctx context.Context, id EmployeeID, skills []EmployeeSkill) error
	GetEmployeeSkills(ctx context.Context, id EmployeeID) ([]EmployeeSkill, error)
}

// Store is everything the staffing service needs.
type Store interface {
	EmployeeStore
	ProjectStore
	AccountStore
	AllocationStore
	TransitionStore
	SkillStore

	// Reset clears every collection (demo scenarios only).
	Reset(ctx context.Context) error
}
