package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

func TestMemory_EmployeeCodeUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveEmployee(ctx, workforce.Employee{ID: "e1", Name: "Jane", Code: "E001"}))
	// Re-saving the same record keeps its code.
	require.NoError(t, m.SaveEmployee(ctx, workforce.Employee{ID: "e1", Name: "Jane D", Code: "E001"}))

	err := m.SaveEmployee(ctx, workforce.Employee{ID: "e2", Name: "John", Code: "E001"})
	assert.ErrorIs(t, err, workforce.ErrDuplicateCode)
}

func TestMemory_ListEmployeesFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveEmployee(ctx, workforce.Employee{ID: "e1", Name: "Jane Doe", Email: "jane@example.com", Entity: "ITS", Status: workforce.EmployeeActive}))
	require.NoError(t, m.SaveEmployee(ctx, workforce.Employee{ID: "e2", Name: "Anna Bell", Entity: "IBCC", Status: workforce.EmployeeActive}))
	require.NoError(t, m.SaveEmployee(ctx, workforce.Employee{ID: "e3", Name: "Old Timer", Entity: "ITS", Status: workforce.EmployeeArchived}))

	all, err := m.ListEmployees(ctx, workforce.EmployeeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Anna Bell", all[0].Name)

	its, err := m.ListEmployees(ctx, workforce.EmployeeFilter{Entity: "ITS", Status: workforce.EmployeeActive})
	require.NoError(t, err)
	require.Len(t, its, 1)
	assert.Equal(t, workforce.EmployeeID("e1"), its[0].ID)

	found, err := m.ListEmployees(ctx, workforce.EmployeeFilter{Search: "JANE@"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestMemory_AllocationsSortedByStart(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	late := workforce.Allocation{ID: "a1", EmployeeID: "e1", ProjectID: "p1", StartDate: workforce.NewDate(2025, 6, 1)}
	early := workforce.Allocation{ID: "a2", EmployeeID: "e1", ProjectID: "p2", StartDate: workforce.NewDate(2025, 1, 1)}
	other := workforce.Allocation{ID: "a3", EmployeeID: "e2", ProjectID: "p1", StartDate: workforce.NewDate(2025, 3, 1)}
	for _, a := range []workforce.Allocation{late, early, other} {
		require.NoError(t, m.SaveAllocation(ctx, a))
	}

	got, err := m.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: "e1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, workforce.AllocationID("a2"), got[0].ID)
	assert.Equal(t, workforce.AllocationID("a1"), got[1].ID)

	require.NoError(t, m.DeleteAllocation(ctx, "a1"))
	assert.ErrorIs(t, m.DeleteAllocation(ctx, "a1"), workforce.ErrAllocationNotFound)

	missing, err := m.GetAllocation(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemory_TransitionCommentsAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateTransition(ctx, workforce.Transition{ID: "t1", EmployeeID: "e1"}))
	require.NoError(t, m.AddComment(ctx, workforce.Comment{ID: "c1", TransitionID: "t1", Text: "handover done"}))

	got, err := m.GetTransition(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)

	// Mutating the returned slice must not leak into the store.
	got.Comments[0].Text = "changed"
	again, err := m.GetTransition(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "handover done", again.Comments[0].Text)

	require.NoError(t, m.DeleteComment(ctx, "t1", "c1"))
	assert.ErrorIs(t, m.DeleteComment(ctx, "t1", "c1"), workforce.ErrCommentNotFound)
	assert.ErrorIs(t, m.AddComment(ctx, workforce.Comment{ID: "c2", TransitionID: "nope"}), workforce.ErrTransitionNotFound)
}

func TestMemory_FailOnAndReset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")
	m.FailOn["SaveProject"] = boom

	assert.ErrorIs(t, m.SaveProject(ctx, workforce.Project{ID: "p1"}), boom)

	delete(m.FailOn, "SaveProject")
	require.NoError(t, m.SaveProject(ctx, workforce.Project{ID: "p1", Status: workforce.ProjectProposal}))
	require.NoError(t, m.UpdateProjectStatus(ctx, "p1", workforce.ProjectActive))
	p, err := m.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, workforce.ProjectActive, p.Status)

	require.NoError(t, m.Reset(ctx))
	p, err = m.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, m.UpdateProjectStatus(ctx, "p1", workforce.ProjectActive), workforce.ErrProjectNotFound)
}

func TestMemory_EmployeeSkillsRequireKnownSkill(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveSkill(ctx, workforce.Skill{ID: "s1", Name: "Go"}))

	err := m.SetEmployeeSkills(ctx, "e1", []workforce.EmployeeSkill{{SkillID: "s2"}})
	assert.ErrorIs(t, err, workforce.ErrSkillNotFound)

	require.NoError(t, m.SetEmployeeSkills(ctx, "e1", []workforce.EmployeeSkill{{SkillID: "s1", Level: workforce.SkillPrimary}}))
	skills, err := m.GetEmployeeSkills(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, skills, 1)
}
