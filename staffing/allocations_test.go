package staffing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

func TestJane_PartialThenOverallocatedWithWarning(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	alpha := f.project("Alpha", workforce.ProjectActive)
	beta := f.project("Beta", workforce.ProjectActive)

	// GIVEN: Jane at 60% on Alpha with no end date
	res := f.assign(jane, alpha, 60)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Utilization.UtilizationPercent.Equal(pct(60)))
	assert.Equal(t, workforce.ClassPartial, res.Utilization.Classification)
	assert.Equal(t, f.today(), res.Allocation.StartDate)

	// WHEN: she is also put at 50% on Beta
	res, err := f.svc.CreateAllocation(f.ctx, AllocationInput{EmployeeID: jane.ID, ProjectID: beta.ID, Percent: pct(50)})

	// THEN: the write succeeds with a soft warning
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, workforce.WarnOverallocated, res.Warnings[0].Code)
	assert.Contains(t, res.Warnings[0].Message, "110")
	assert.True(t, res.Utilization.UtilizationPercent.Equal(pct(110)))
	assert.Equal(t, workforce.ClassOverallocated, res.Utilization.Classification)

	detail, err := f.svc.EmployeeUtilization(f.ctx, jane.ID)
	require.NoError(t, err)
	assert.True(t, detail.View.UtilizationPercent.Equal(pct(110)))
	assert.Len(t, detail.Active, 2)
}

func TestCreateAllocation_DuplicateIsRejectedBeforeWrite(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	alpha := f.project("Alpha", workforce.ProjectActive)
	first := f.assign(jane, alpha, 60)

	_, err := f.svc.CreateAllocation(f.ctx, AllocationInput{EmployeeID: jane.ID, ProjectID: alpha.ID, Percent: pct(10)})

	var dup *workforce.DuplicateAssignmentError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, first.Allocation.ID, dup.ExistingID)

	allocs, err := f.svc.ListAllocations(f.ctx, workforce.AllocationFilter{EmployeeID: jane.ID})
	require.NoError(t, err)
	assert.Len(t, allocs, 1)

	// An ended allocation frees the pair again.
	ended := workforce.AllocationEnded
	_, err = f.svc.UpdateAllocation(f.ctx, first.Allocation.ID, AllocationUpdate{Status: &ended})
	require.NoError(t, err)
	_, err = f.svc.CreateAllocation(f.ctx, AllocationInput{EmployeeID: jane.ID, ProjectID: alpha.ID, Percent: pct(10)})
	assert.NoError(t, err)
}

func TestCreateAllocation_HardBlocks(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	alpha := f.project("Alpha", workforce.ProjectActive)
	done := f.project("Done", workforce.ProjectCompleted)

	for _, v := range []int64{0, 101} {
		_, err := f.svc.CreateAllocation(f.ctx, AllocationInput{EmployeeID: jane.ID, ProjectID: alpha.ID, Percent: pct(v)})
		assert.ErrorIs(t, err, workforce.ErrPercentOutOfRange, "percent %d", v)
	}

	end := f.today().AddDays(-1)
	_, err := f.svc.CreateAllocation(f.ctx, AllocationInput{
		EmployeeID: jane.ID, ProjectID: alpha.ID, Percent: pct(10), StartDate: f.today(), EndDate: &end,
	})
	assert.ErrorIs(t, err, workforce.ErrInvalidPeriod)

	_, err = f.svc.CreateAllocation(f.ctx, AllocationInput{EmployeeID: jane.ID, ProjectID: done.ID, Percent: pct(10)})
	assert.ErrorIs(t, err, workforce.ErrProjectClosed)

	_, err = f.svc.CreateAllocation(f.ctx, AllocationInput{EmployeeID: "ghost", ProjectID: alpha.ID, Percent: pct(10)})
	assert.ErrorIs(t, err, workforce.ErrEmployeeNotFound)

	allocs, _ := f.svc.ListAllocations(f.ctx, workforce.AllocationFilter{})
	assert.Empty(t, allocs)
}

func TestCreateAllocation_FutureStartWarnsOnItsFirstDay(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	f.assign(jane, f.project("Alpha", workforce.ProjectActive), 80)
	beta := f.project("Beta", workforce.ProjectActive)

	res, err := f.svc.CreateAllocation(f.ctx, AllocationInput{
		EmployeeID: jane.ID, ProjectID: beta.ID, Percent: pct(40), StartDate: f.today().AddDays(7),
		Status: workforce.AllocationPlanned,
	})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
	// Today she is still at 80.
	assert.True(t, res.Utilization.UtilizationPercent.Equal(pct(80)))
}

func TestUpdateAllocation(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	a := f.assign(jane, f.project("Alpha", workforce.ProjectActive), 60)

	p := pct(90)
	role := "Tech Lead"
	res, err := f.svc.UpdateAllocation(f.ctx, a.Allocation.ID, AllocationUpdate{Percent: &p, Role: &role})
	require.NoError(t, err)
	assert.True(t, res.Allocation.Percent.Equal(p))
	assert.Equal(t, "Tech Lead", res.Allocation.Role)
	assert.Equal(t, workforce.ClassFull, res.Utilization.Classification)

	bad := pct(150)
	_, err = f.svc.UpdateAllocation(f.ctx, a.Allocation.ID, AllocationUpdate{Percent: &bad})
	assert.ErrorIs(t, err, workforce.ErrPercentOutOfRange)

	stored, err := f.svc.GetAllocation(f.ctx, a.Allocation.ID)
	require.NoError(t, err)
	assert.True(t, stored.Percent.Equal(p))
}

// =============================================================================
// REMOVAL WITH HISTORY
// =============================================================================

func TestRemoveAllocation_WritesOneTransition(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	alpha := f.project("Alpha", workforce.ProjectActive)
	beta := f.project("Beta", workforce.ProjectActive)
	a := f.assign(jane, alpha, 60)
	f.assign(jane, beta, 30)

	res, err := f.svc.RemoveAllocation(f.ctx, a.Allocation.ID, workforce.RemovalDetails{Remarks: "great performer", ManagerName: "Sam"})
	require.NoError(t, err)
	require.NotNil(t, res.Transition)
	assert.True(t, res.Utilization.UtilizationPercent.Equal(pct(30)))

	history, err := f.svc.ListTransitions(f.ctx, workforce.TransitionFilter{EmployeeID: jane.ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "great performer", history[0].Remarks)
	assert.Equal(t, alpha.ID, history[0].ProjectID)
	assert.Equal(t, a.Allocation.ID, history[0].AllocationID)
	assert.Equal(t, f.today(), history[0].EndDate)

	allocs, _ := f.svc.ListAllocations(f.ctx, workforce.AllocationFilter{EmployeeID: jane.ID})
	for _, x := range allocs {
		assert.NotEqual(t, alpha.ID, x.ProjectID)
	}
}

func TestRemoveAllocation_HistoryFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	a := f.assign(jane, f.project("Alpha", workforce.ProjectActive), 60)

	// GIVEN: the history table is unavailable
	f.store.FailOn["CreateTransition"] = errors.New("history table unavailable")

	res, err := f.svc.RemoveAllocation(f.ctx, a.Allocation.ID, workforce.RemovalDetails{Remarks: "moving on"})

	// THEN: the removal still happens, without a transition
	require.NoError(t, err)
	assert.Nil(t, res.Transition)
	_, err = f.svc.GetAllocation(f.ctx, a.Allocation.ID)
	assert.ErrorIs(t, err, workforce.ErrAllocationNotFound)
	history, _ := f.svc.ListTransitions(f.ctx, workforce.TransitionFilter{})
	assert.Empty(t, history)
}

func TestRemoveAllocation_DeleteFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	a := f.assign(jane, f.project("Alpha", workforce.ProjectActive), 60)
	f.store.FailOn["DeleteAllocation"] = errors.New("connection reset")

	_, err := f.svc.RemoveAllocation(f.ctx, a.Allocation.ID, workforce.RemovalDetails{})
	assert.EqualError(t, err, "connection reset")

	_, err = f.svc.GetAllocation(f.ctx, a.Allocation.ID)
	assert.NoError(t, err)
}

func TestTransitionComments(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	a := f.assign(jane, f.project("Alpha", workforce.ProjectActive), 60)
	res, err := f.svc.RemoveAllocation(f.ctx, a.Allocation.ID, workforce.RemovalDetails{})
	require.NoError(t, err)

	c, err := f.svc.AddComment(f.ctx, res.Transition.ID, CommentInput{Author: "Sam", Text: "rehire when possible"})
	require.NoError(t, err)

	tr, err := f.svc.GetTransition(f.ctx, res.Transition.ID)
	require.NoError(t, err)
	require.Len(t, tr.Comments, 1)
	assert.Equal(t, "rehire when possible", tr.Comments[0].Text)

	_, err = f.svc.AddComment(f.ctx, res.Transition.ID, CommentInput{Author: "Sam", Text: "   "})
	assert.ErrorIs(t, err, workforce.ErrValidation)

	require.NoError(t, f.svc.DeleteComment(f.ctx, res.Transition.ID, c.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(f.ctx, res.Transition.ID, c.ID), workforce.ErrCommentNotFound)

	_, err = f.svc.GetTransition(f.ctx, "ghost")
	assert.ErrorIs(t, err, workforce.ErrTransitionNotFound)
}

// =============================================================================
// DRAFT SAVE
// =============================================================================

func TestSaveAllocationDraft(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	alpha := f.project("Alpha", workforce.ProjectActive)
	beta := f.project("Beta", workforce.ProjectActive)
	gamma := f.project("Gamma", workforce.ProjectActive)
	a := f.assign(jane, alpha, 60)

	// WHEN: the editor lowers Alpha and adds Beta
	res, err := f.svc.SaveAllocationDraft(f.ctx, jane.ID, DraftInput{Allocations: []DraftAllocation{
		{ID: a.Allocation.ID, ProjectID: alpha.ID, Percent: pct(40)},
		{ProjectID: beta.ID, Percent: pct(30)},
	}})
	require.NoError(t, err)
	assert.Len(t, res.Updated, 1)
	assert.Len(t, res.Created, 1)
	assert.Empty(t, res.Removed)
	assert.True(t, res.Utilization.UtilizationPercent.Equal(pct(70)))

	// WHEN: a draft lists the same project twice, nothing is written
	_, err = f.svc.SaveAllocationDraft(f.ctx, jane.ID, DraftInput{Allocations: []DraftAllocation{
		{ProjectID: gamma.ID, Percent: pct(10)},
		{ProjectID: gamma.ID, Percent: pct(20)},
	}})
	assert.ErrorIs(t, err, workforce.ErrDuplicateAssignment)
	allocs, _ := f.svc.ListAllocations(f.ctx, workforce.AllocationFilter{EmployeeID: jane.ID})
	assert.Len(t, allocs, 2)

	// WHEN: the editor is cleared, every current row is removed with history
	res, err = f.svc.SaveAllocationDraft(f.ctx, jane.ID, DraftInput{Remarks: "project wound down"})
	require.NoError(t, err)
	assert.Len(t, res.Removed, 2)
	assert.True(t, res.Utilization.UtilizationPercent.IsZero())

	history, _ := f.svc.ListTransitions(f.ctx, workforce.TransitionFilter{EmployeeID: jane.ID})
	require.Len(t, history, 2)
	assert.Equal(t, "project wound down", history[0].Remarks)
}

func TestSaveAllocationDraft_OverallocationWarns(t *testing.T) {
	f := newFixture(t)
	jane := f.employee("Jane")
	alpha := f.project("Alpha", workforce.ProjectActive)
	beta := f.project("Beta", workforce.ProjectActive)

	res, err := f.svc.SaveAllocationDraft(f.ctx, jane.ID, DraftInput{Allocations: []DraftAllocation{
		{ProjectID: alpha.ID, Percent: pct(70)},
		{ProjectID: beta.ID, Percent: pct(50)},
	}})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, workforce.ClassOverallocated, res.Utilization.Classification)
}
