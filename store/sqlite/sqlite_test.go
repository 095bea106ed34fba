package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, s *Store, id, name, code string) workforce.Employee {
	t.Helper()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	e := workforce.Employee{
		ID:              workforce.EmployeeID(id),
		Name:            name,
		Email:           id + "@example.com",
		Code:            code,
		Entity:          "Ideassion",
		EmploymentType:  "full-time",
		Status:          workforce.EmployeeActive,
		PrimarySkills:   []string{"Go"},
		SecondarySkills: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusChangedAt: now,
	}
	require.NoError(t, s.SaveEmployee(context.Background(), e))
	return e
}

func seedProject(t *testing.T, s *Store, id string, status workforce.ProjectStatus) workforce.Project {
	t.Helper()
	p := workforce.Project{
		ID:        workforce.ProjectID(id),
		Name:      "Project " + id,
		Status:    status,
		StartDate: workforce.NewDate(2025, time.January, 1),
	}
	require.NoError(t, s.SaveProject(context.Background(), p))
	return p
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_RoundTripAndFilters(t *testing.T) {
	// GIVEN: two employees
	s := newTestStore(t)
	ctx := context.Background()
	jane := seedEmployee(t, s, "jane", "Jane Doe", "E001")
	seedEmployee(t, s, "john", "John Roe", "E002")

	// WHEN: reading one back
	got, err := s.GetEmployee(ctx, "jane")
	require.NoError(t, err)
	require.NotNil(t, got)

	// THEN: every column survives
	assert.Equal(t, jane.Name, got.Name)
	assert.Equal(t, jane.Code, got.Code)
	assert.Equal(t, []string{"Go"}, got.PrimarySkills)
	assert.Equal(t, workforce.EmployeeActive, got.Status)
	assert.True(t, jane.CreatedAt.Equal(got.CreatedAt))

	missing, err := s.GetEmployee(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, err := s.ListEmployees(ctx, workforce.EmployeeFilter{Search: "ROE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, workforce.EmployeeID("john"), found[0].ID)

	all, err := s.ListEmployees(ctx, workforce.EmployeeFilter{Status: workforce.EmployeeActive})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "Jane Doe", all[0].Name)
}

func TestEmployees_DuplicateCode(t *testing.T) {
	s := newTestStore(t)
	seedEmployee(t, s, "jane", "Jane Doe", "E001")

	dup := workforce.Employee{ID: "mia", Name: "Mia", Email: "mia@example.com", Code: "E001", Status: workforce.EmployeeActive}
	err := s.SaveEmployee(context.Background(), dup)
	assert.ErrorIs(t, err, workforce.ErrDuplicateCode)

	// Empty codes never collide.
	seedEmployee(t, s, "a", "A", "")
	seedEmployee(t, s, "b", "B", "")
}

// =============================================================================
// PROJECTS / ACCOUNTS
// =============================================================================

func TestProjects_StatusAndAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acct := workforce.Account{ID: "acme", Name: "Acme", Industry: "Retail"}
	require.NoError(t, s.SaveAccount(ctx, acct))

	acmeID := workforce.AccountID("acme")
	end := workforce.NewDate(2025, time.December, 31)
	p := workforce.Project{
		ID:        "alpha",
		Name:      "Alpha",
		AccountID: &acmeID,
		Status:    workforce.ProjectProposal,
		StartDate: workforce.NewDate(2025, time.March, 1),
		EndDate:   &end,
	}
	require.NoError(t, s.SaveProject(ctx, p))

	// WHEN: the status alone changes
	require.NoError(t, s.UpdateProjectStatus(ctx, "alpha", workforce.ProjectActive))

	got, err := s.GetProject(ctx, "alpha")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, workforce.ProjectActive, got.Status)
	assert.Equal(t, p.StartDate, got.StartDate)
	require.NotNil(t, got.EndDate)
	assert.Equal(t, end, *got.EndDate)
	require.NotNil(t, got.AccountID)
	assert.Equal(t, acmeID, *got.AccountID)

	byAccount, err := s.ListProjects(ctx, workforce.ProjectFilter{AccountID: "acme"})
	require.NoError(t, err)
	assert.Len(t, byAccount, 1)

	err = s.UpdateProjectStatus(ctx, "ghost", workforce.ProjectActive)
	assert.ErrorIs(t, err, workforce.ErrProjectNotFound)

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Retail", accounts[0].Industry)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestAllocations_DecimalPercentAndOpenEnd(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, s, "jane", "Jane", "E001")
	seedProject(t, s, "alpha", workforce.ProjectActive)
	seedProject(t, s, "beta", workforce.ProjectActive)

	a := workforce.Allocation{
		ID:         "a1",
		EmployeeID: "jane",
		ProjectID:  "alpha",
		Percent:    workforce.NewPercentFromFloat(62.5),
		StartDate:  workforce.NewDate(2025, time.January, 1),
		Role:       "Lead",
		Status:     workforce.AllocationActive,
	}
	require.NoError(t, s.SaveAllocation(ctx, a))

	b := a
	b.ID = "a2"
	b.ProjectID = "beta"
	b.Percent = workforce.NewPercent(50)
	b.StartDate = workforce.NewDate(2025, time.February, 1)
	b.Status = workforce.AllocationPlanned
	require.NoError(t, s.SaveAllocation(ctx, b))

	got, err := s.GetAllocation(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Percent.Equal(workforce.NewPercentFromFloat(62.5)), "got %s", got.Percent)
	assert.Nil(t, got.EndDate)
	assert.Equal(t, "Lead", got.Role)

	list, err := s.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: "jane"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, workforce.AllocationID("a1"), list[0].ID)

	planned, err := s.ListAllocations(ctx, workforce.AllocationFilter{Status: workforce.AllocationPlanned})
	require.NoError(t, err)
	assert.Len(t, planned, 1)

	require.NoError(t, s.DeleteAllocation(ctx, "a1"))
	assert.ErrorIs(t, s.DeleteAllocation(ctx, "a1"), workforce.ErrAllocationNotFound)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestTransitions_CommentsThread(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr := workforce.Transition{
		ID:           "t1",
		EmployeeID:   "jane",
		ProjectID:    "alpha",
		AllocationID: "a1",
		StartDate:    workforce.NewDate(2025, time.January, 1),
		EndDate:      workforce.NewDate(2025, time.June, 1),
		Percent:      workforce.NewPercent(60),
		Status:       workforce.TransitionCompleted,
		ManagerName:  "Sam",
		Remarks:      "great performer",
		CreatedAt:    created,
		Comments: []workforce.Comment{
			{ID: "c1", TransitionID: "t1", Author: "Sam", Text: "great performer", CreatedAt: created},
		},
	}
	require.NoError(t, s.CreateTransition(ctx, tr))

	// WHEN: a second comment is appended
	require.NoError(t, s.AddComment(ctx, workforce.Comment{
		ID: "c2", TransitionID: "t1", Author: "Lee", Text: "agreed", CreatedAt: created.Add(time.Hour),
	}))

	got, err := s.GetTransition(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, workforce.CommentID("c1"), got.Comments[0].ID)
	assert.Equal(t, "Sam", got.ManagerName)
	assert.True(t, got.Percent.Equal(workforce.NewPercent(60)))

	// THEN: deleting touches only the named comment
	require.NoError(t, s.DeleteComment(ctx, "t1", "c1"))
	assert.ErrorIs(t, s.DeleteComment(ctx, "t1", "c1"), workforce.ErrCommentNotFound)
	assert.ErrorIs(t, s.AddComment(ctx, workforce.Comment{ID: "c3", TransitionID: "ghost"}), workforce.ErrTransitionNotFound)

	history, err := s.ListTransitions(ctx, workforce.TransitionFilter{EmployeeID: "jane"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, history[0].Comments, 1)
	assert.Equal(t, "agreed", history[0].Comments[0].Text)
}

// =============================================================================
// SKILLS / RESET
// =============================================================================

func TestEmployeeSkills_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, s, "jane", "Jane", "E001")
	require.NoError(t, s.SaveSkill(ctx, workforce.Skill{ID: "go", Name: "Go", Category: "Backend"}))
	require.NoError(t, s.SaveSkill(ctx, workforce.Skill{ID: "react", Name: "React", Category: "Frontend"}))

	require.NoError(t, s.SetEmployeeSkills(ctx, "jane", []workforce.EmployeeSkill{
		{EmployeeID: "jane", SkillID: "go", Level: workforce.SkillPrimary},
		{EmployeeID: "jane", SkillID: "react", Level: workforce.SkillSecondary},
	}))
	require.NoError(t, s.SetEmployeeSkills(ctx, "jane", []workforce.EmployeeSkill{
		{EmployeeID: "jane", SkillID: "react", Level: workforce.SkillPrimary},
	}))

	links, err := s.GetEmployeeSkills(ctx, "jane")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, workforce.SkillID("react"), links[0].SkillID)

	err = s.SetEmployeeSkills(ctx, "jane", []workforce.EmployeeSkill{{EmployeeID: "jane", SkillID: "cobol", Level: workforce.SkillPrimary}})
	assert.ErrorIs(t, err, workforce.ErrSkillNotFound)

	// The failed replace rolled back.
	links, err = s.GetEmployeeSkills(ctx, "jane")
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedEmployee(t, s, "jane", "Jane", "E001")
	seedProject(t, s, "alpha", workforce.ProjectActive)

	require.NoError(t, s.Reset(ctx))

	employees, err := s.ListEmployees(ctx, workforce.EmployeeFilter{})
	require.NoError(t, err)
	assert.Empty(t, employees)
	projects, err := s.ListProjects(ctx, workforce.ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, projects)
}
