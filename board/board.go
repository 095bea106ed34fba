/*
Package board implements the drag-and-drop reassignment workflow of the
allocation board as a server-side state machine.

STATES:
  Idle               nothing in hand
  Dragging           an employee was grabbed (from the sidebar or from an
                     allocation chip on a project)
  AssignmentPending  dropped on a project: waiting for percent/dates
  RemovalPending     a chip was dropped on another project (move) or a
                     removal was requested: waiting for manager/remarks

TRANSITIONS:
  Idle --Grab--> Dragging
  Dragging --Release (within tolerance)--> Idle + quick view
  Dragging --Drop(nothing)--> Idle
  Dragging --Drop(duplicate)--> Idle + warning
  Dragging --Drop(completed project or locked employee)--> Idle + warning
  Dragging --Drop(sidebar source)--> AssignmentPending
  Dragging --Drop(chip source)--> RemovalPending (move)
  Idle --RequestRemoval--> RemovalPending
  AssignmentPending --ConfirmAssignment--> Idle
  RemovalPending --ConfirmRemoval--> Idle, or AssignmentPending on a move
  any --Cancel--> Idle

FAILURES:
  A rejected or failed confirm keeps the pending state and its draft, and
  records the message in LastError so the operator can retry or cancel.

SEE ALSO:
  - registry.go: per-operator sessions
  - staffing/allocations.go: the writes behind the confirms
*/
package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haashirideassion/workforcemanagement-sub000/metrics"
	"github.com/haashirideassion/workforcemanagement-sub000/staffing"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// DefaultClickTolerance is the pointer travel, in pixels, under which a
// grab-and-release counts as a click.
const DefaultClickTolerance = 5.0

// =============================================================================
// TYPES
// =============================================================================

type State string

const (
	Idle              State = "idle"
	Dragging          State = "dragging"
	AssignmentPending State = "assignment_pending"
	RemovalPending    State = "removal_pending"
)

type SourceKind string

const (
	FromSidebar    SourceKind = "sidebar"
	FromAllocation SourceKind = "allocation"
)

// Source describes where the dragged employee came from.
type Source struct {
	Kind         SourceKind             `json:"kind"`
	AllocationID workforce.AllocationID `json:"allocation_id,omitempty"`
	ProjectID    workforce.ProjectID    `json:"project_id,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance is the straight-line pointer travel between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// AssignmentDraft is the pre-filled assignment form.
type AssignmentDraft struct {
	EmployeeID         workforce.EmployeeID `json:"employee_id"`
	ProjectID          workforce.ProjectID  `json:"project_id"`
	CurrentUtilization workforce.Percent    `json:"current_utilization"`
	Percent            workforce.Percent    `json:"percent"`
	StartDate          workforce.Date       `json:"start_date"`
	FromProjectID      workforce.ProjectID  `json:"from_project_id,omitempty"`
}

// RemovalDraft is the pending removal (or the first half of a move).
type RemovalDraft struct {
	EmployeeID      workforce.EmployeeID   `json:"employee_id"`
	AllocationID    workforce.AllocationID `json:"allocation_id"`
	SourceProjectID workforce.ProjectID    `json:"source_project_id"`
	TargetProjectID workforce.ProjectID    `json:"target_project_id,omitempty"`
	Move            bool                   `json:"move"`
	Percent         workforce.Percent      `json:"percent"`
}

// Notice is a non-blocking message for the operator.
type Notice struct {
	Level   string `json:"level"` // info, warning
	Message string `json:"message"`
}

// Outcome is what a board operation produced.
type Outcome struct {
	State      State                 `json:"state"`
	QuickView  workforce.EmployeeID  `json:"quick_view,omitempty"`
	Notice     *Notice               `json:"notice,omitempty"`
	Allocation *workforce.Allocation `json:"-"`
	Transition *workforce.Transition `json:"-"`
	Warnings   []workforce.Warning   `json:"warnings,omitempty"`
}

// View is the serializable state of a board.
type View struct {
	State      State                `json:"state"`
	EmployeeID workforce.EmployeeID `json:"employee_id,omitempty"`
	Source     *Source              `json:"source,omitempty"`
	Assignment *AssignmentDraft     `json:"assignment,omitempty"`
	Removal    *RemovalDraft        `json:"removal,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidState is returned for an operation the current state does not
// accept (e.g. Drop while Idle).
var ErrInvalidState = errors.New("operation not allowed in current board state")

type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed while %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// BOARD
// =============================================================================

// Staffing is the part of the staffing service the board drives.
type Staffing interface {
	Today() workforce.Date
	GetEmployee(ctx context.Context, id workforce.EmployeeID) (*workforce.Employee, error)
	GetProject(ctx context.Context, id workforce.ProjectID) (*workforce.Project, error)
	GetAllocation(ctx context.Context, id workforce.AllocationID) (*workforce.Allocation, error)
	ListAllocations(ctx context.Context, f workforce.AllocationFilter) ([]workforce.Allocation, error)
	CreateAllocation(ctx context.Context, in staffing.AllocationInput) (*staffing.AllocationResult, error)
	RemoveAllocation(ctx context.Context, id workforce.AllocationID, details workforce.RemovalDetails) (*staffing.RemovalResult, error)
}

var _ Staffing = (*staffing.Service)(nil)

// Board holds one operator's gesture state. Safe for concurrent use.
type Board struct {
	mu sync.Mutex

	staffing  Staffing
	log       zerolog.Logger
	tolerance float64

	state      State
	employeeID workforce.EmployeeID
	source     Source
	down       Point
	assignment *AssignmentDraft
	removal    *RemovalDraft
	lastError  string

	now      func() time.Time
	lastUsed time.Time
}

// New creates an idle board. A non-positive tolerance uses the default.
func New(s Staffing, logger zerolog.Logger, tolerance float64) *Board {
	if tolerance <= 0 {
		tolerance = DefaultClickTolerance
	}
	return &Board{
		staffing:  s,
		log:       logger.With().Str("component", "board").Logger(),
		tolerance: tolerance,
		state:     Idle,
		now:       time.Now,
		lastUsed:  time.Now(),
	}
}

func (b *Board) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

func (b *Board) viewLocked() View {
	v := View{State: b.state, LastError: b.lastError}
	if b.state != Idle {
		v.EmployeeID = b.employeeID
		src := b.source
		v.Source = &src
	}
	if b.assignment != nil {
		a := *b.assignment
		v.Assignment = &a
	}
	if b.removal != nil {
		r := *b.removal
		v.Removal = &r
	}
	return v
}

func (b *Board) resetLocked() {
	b.state = Idle
	b.employeeID = ""
	b.source = Source{}
	b.down = Point{}
	b.assignment = nil
	b.removal = nil
	b.lastError = ""
}

func (b *Board) require(op string, states ...State) error {
	for _, s := range states {
		if b.state == s {
			return nil
		}
	}
	return &StateError{Op: op, State: b.state}
}

func (b *Board) touch() {
	b.lastUsed = b.now()
}

// =============================================================================
// GESTURE
// =============================================================================

// Grab starts a drag at pointer-down position at.
func (b *Board) Grab(ctx context.Context, employeeID workforce.EmployeeID, src Source, at Point) (*Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	if err := b.require("grab", Idle); err != nil {
		return nil, err
	}
	if _, err := b.staffing.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	switch src.Kind {
	case FromSidebar:
		src = Source{Kind: FromSidebar}
	case FromAllocation:
		a, err := b.staffing.GetAllocation(ctx, src.AllocationID)
		if err != nil {
			return nil, err
		}
		if a.EmployeeID != employeeID {
			ve := &workforce.ValidationError{}
			ve.Add("allocation_id", "does not belong to the grabbed employee")
			return nil, ve
		}
		src.ProjectID = a.ProjectID
	default:
		ve := &workforce.ValidationError{}
		ve.Add("source.kind", "must be sidebar or allocation")
		return nil, ve
	}

	b.state = Dragging
	b.employeeID = employeeID
	b.source = src
	b.down = at
	return &Outcome{State: b.state}, nil
}

// Release reports where the pointer was let go. Within the click tolerance
// the gesture is a click: the drag is abandoned and the employee's quick view
// opens. Otherwise the drag continues and awaits Drop.
func (b *Board) Release(at Point) (*Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	if err := b.require("release", Dragging); err != nil {
		return nil, err
	}
	if Distance(b.down, at) <= b.tolerance {
		emp := b.employeeID
		b.resetLocked()
		metrics.BoardDrops.WithLabelValues("click").Inc()
		return &Outcome{State: b.state, QuickView: emp}, nil
	}
	return &Outcome{State: b.state}, nil
}

// Drop finishes a drag over target. A nil target is a drop outside any
// project and returns the board to Idle without side effects.
func (b *Board) Drop(ctx context.Context, target *workforce.ProjectID) (*Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	if err := b.require("drop", Dragging); err != nil {
		return nil, err
	}
	if target == nil || *target == "" {
		b.resetLocked()
		metrics.BoardDrops.WithLabelValues("elsewhere").Inc()
		return &Outcome{State: b.state}, nil
	}

	project, err := b.staffing.GetProject(ctx, *target)
	if err != nil {
		if workforce.IsNotFound(err) {
			b.resetLocked()
			metrics.BoardDrops.WithLabelValues("elsewhere").Inc()
			return &Outcome{State: b.state}, nil
		}
		return nil, err
	}

	if !project.AcceptsAllocations() {
		return b.rejectLocked("closed", fmt.Sprintf("%s is %s and takes no new allocations", project.Name, project.Status)), nil
	}
	emp, err := b.staffing.GetEmployee(ctx, b.employeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Editable() {
		return b.rejectLocked("closed", fmt.Sprintf("%s is %s and cannot be reassigned", emp.Name, emp.Status)), nil
	}

	existing, err := b.staffing.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: b.employeeID})
	if err != nil {
		return nil, err
	}
	if dup := workforce.FindDuplicate(existing, b.employeeID, project.ID, ""); dup != nil {
		return b.rejectLocked("duplicate", fmt.Sprintf("already assigned to %s", project.Name)), nil
	}

	today := b.staffing.Today()
	current := workforce.Utilization(existing, today)

	if b.source.Kind == FromAllocation {
		var percent workforce.Percent
		for _, a := range existing {
			if a.ID == b.source.AllocationID {
				percent = a.Percent
			}
		}
		b.state = RemovalPending
		b.removal = &RemovalDraft{
			EmployeeID:      b.employeeID,
			AllocationID:    b.source.AllocationID,
			SourceProjectID: b.source.ProjectID,
			TargetProjectID: project.ID,
			Move:            true,
			Percent:         percent,
		}
		metrics.BoardDrops.WithLabelValues("move").Inc()
		return &Outcome{State: b.state}, nil
	}

	b.state = AssignmentPending
	b.assignment = &AssignmentDraft{
		EmployeeID:         b.employeeID,
		ProjectID:          project.ID,
		CurrentUtilization: current,
		Percent:            DefaultPercent(current),
		StartDate:          today,
	}
	metrics.BoardDrops.WithLabelValues("assignment").Inc()
	return &Outcome{State: b.state}, nil
}

// rejectLocked abandons a drop that would fail later, before anything is
// written, and tells the operator why.
func (b *Board) rejectLocked(outcome, msg string) *Outcome {
	b.resetLocked()
	metrics.BoardDrops.WithLabelValues(outcome).Inc()
	return &Outcome{State: b.state, Notice: &Notice{Level: "warning", Message: msg}}
}

// DefaultPercent pre-fills the assignment form with the employee's remaining
// capacity, kept inside the legal allocation range.
func DefaultPercent(current workforce.Percent) workforce.Percent {
	return workforce.RemainingCapacity(current).Clamp(workforce.MinAllocation, workforce.MaxAllocation)
}

// RequestRemoval opens the removal form for an allocation chip.
func (b *Board) RequestRemoval(ctx context.Context, id workforce.AllocationID) (*Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	if err := b.require("request removal", Idle); err != nil {
		return nil, err
	}
	a, err := b.staffing.GetAllocation(ctx, id)
	if err != nil {
		return nil, err
	}

	b.state = RemovalPending
	b.employeeID = a.EmployeeID
	b.source = Source{Kind: FromAllocation, AllocationID: a.ID, ProjectID: a.ProjectID}
	b.removal = &RemovalDraft{
		EmployeeID:      a.EmployeeID,
		AllocationID:    a.ID,
		SourceProjectID: a.ProjectID,
		Percent:         a.Percent,
	}
	return &Outcome{State: b.state}, nil
}

// =============================================================================
// CONFIRM / CANCEL
// =============================================================================

// AssignmentInput is what the operator typed into the assignment form.
type AssignmentInput struct {
	Percent   workforce.Percent          `json:"percent"`
	StartDate *workforce.Date            `json:"start_date"`
	EndDate   *workforce.Date            `json:"end_date"`
	Role      string                     `json:"role"`
	Status    workforce.AllocationStatus `json:"status"`
}

// ConfirmAssignment creates the allocation. Any failure leaves the board in
// AssignmentPending with the error recorded.
func (b *Board) ConfirmAssignment(ctx context.Context, in AssignmentInput) (*Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	if err := b.require("confirm assignment", AssignmentPending); err != nil {
		return nil, err
	}
	draft := b.assignment

	if !in.Percent.InAllocationRange() {
		err := &workforce.PercentRangeError{Percent: in.Percent}
		b.lastError = err.Error()
		return nil, err
	}
	start := draft.StartDate
	if in.StartDate != nil {
		start = *in.StartDate
	}

	res, err := b.staffing.CreateAllocation(ctx, staffing.AllocationInput{
		EmployeeID: draft.EmployeeID,
		ProjectID:  draft.ProjectID,
		Percent:    in.Percent,
		StartDate:  start,
		EndDate:    in.EndDate,
		Role:       in.Role,
		Status:     in.Status,
	})
	if err != nil {
		b.lastError = err.Error()
		b.log.Warn().Err(err).Str("employee_id", string(draft.EmployeeID)).Msg("assignment failed, keeping draft")
		return nil, err
	}

	b.resetLocked()
	alloc := res.Allocation
	return &Outcome{State: b.state, Allocation: &alloc, Warnings: res.Warnings}, nil
}

// RemovalInput is what the operator typed into the removal form.
type RemovalInput struct {
	ManagerName string          `json:"manager_name"`
	Remarks     string          `json:"remarks"`
	EndDate     *workforce.Date `json:"end_date"`
}

// ConfirmRemoval removes the allocation (history is best effort). For a move
// the board then opens the assignment form for the target project.
func (b *Board) ConfirmRemoval(ctx context.Context, in RemovalInput) (*Outcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()

	if err := b.require("confirm removal", RemovalPending); err != nil {
		return nil, err
	}
	draft := b.removal

	res, err := b.staffing.RemoveAllocation(ctx, draft.AllocationID, workforce.RemovalDetails{
		ManagerName: in.ManagerName,
		Remarks:     in.Remarks,
		EndDate:     in.EndDate,
	})
	if err != nil {
		b.lastError = err.Error()
		b.log.Warn().Err(err).Str("allocation_id", string(draft.AllocationID)).Msg("removal failed, keeping draft")
		return nil, err
	}

	out := &Outcome{Transition: res.Transition}
	if res.Transition == nil {
		out.Notice = &Notice{Level: "warning", Message: "removed, but the history record could not be saved"}
	}

	if !draft.Move {
		b.resetLocked()
		out.State = b.state
		return out, nil
	}

	current := res.Utilization.UtilizationPercent
	percent := draft.Percent
	if !percent.InAllocationRange() {
		percent = DefaultPercent(current)
	}
	employee, target, from := draft.EmployeeID, draft.TargetProjectID, draft.SourceProjectID
	b.resetLocked()
	b.state = AssignmentPending
	b.employeeID = employee
	b.source = Source{Kind: FromAllocation, ProjectID: from}
	b.assignment = &AssignmentDraft{
		EmployeeID:         employee,
		ProjectID:          target,
		CurrentUtilization: current,
		Percent:            percent,
		StartDate:          b.staffing.Today(),
		FromProjectID:      from,
	}
	out.State = b.state
	return out, nil
}

// Cancel discards any draft and returns to Idle. It never writes.
func (b *Board) Cancel() *Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch()
	b.resetLocked()
	return &Outcome{State: b.state}
}
