// Package store provides an in-memory workforce.Store.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	employees   map[workforce.EmployeeID]workforce.Employee
	projects    map[workforce.ProjectID]workforce.Project
	accounts    map[workforce.AccountID]workforce.Account
	allocations map[workforce.AllocationID]workforce.Allocation
	transitions map[workforce.TransitionID]workforce.Transition
	skills      map[workforce.SkillID]workforce.Skill
	empSkills   map[workforce.EmployeeID][]workforce.EmployeeSkill

	// FailOn makes the named operation return the error (tests only).
	FailOn map[string]error
}

var _ workforce.Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{FailOn: make(map[string]error)}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.employees = make(map[workforce.EmployeeID]workforce.Employee)
	m.projects = make(map[workforce.ProjectID]workforce.Project)
	m.accounts = make(map[workforce.AccountID]workforce.Account)
	m.allocations = make(map[workforce.AllocationID]workforce.Allocation)
	m.transitions = make(map[workforce.TransitionID]workforce.Transition)
	m.skills = make(map[workforce.SkillID]workforce.Skill)
	m.empSkills = make(map[workforce.EmployeeID][]workforce.EmployeeSkill)
}

func (m *Memory) fail(op string) error {
	return m.FailOn[op]
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e workforce.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveEmployee"); err != nil {
		return err
	}
	for id, other := range m.employees {
		if id != e.ID && e.Code != "" && other.Code == e.Code {
			return workforce.ErrDuplicateCode
		}
	}
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id workforce.EmployeeID) (*workforce.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context, f workforce.EmployeeFilter) ([]workforce.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search := strings.ToLower(f.Search)
	var result []workforce.Employee
	for _, e := range m.employees {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Entity != "" && e.Entity != f.Entity {
			continue
		}
		if f.EmploymentType != "" && e.EmploymentType != f.EmploymentType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Name), search) &&
			!strings.Contains(strings.ToLower(e.Email), search) &&
			!strings.Contains(strings.ToLower(e.Code), search) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) DeleteEmployee(_ context.Context, id workforce.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.employees, id)
	delete(m.empSkills, id)
	return nil
}

// =============================================================================
// PROJECTS
// =============================================================================

func (m *Memory) SaveProject(_ context.Context, p workforce.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveProject"); err != nil {
		return err
	}
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) GetProject(_ context.Context, id workforce.ProjectID) (*workforce.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) ListProjects(_ context.Context, f workforce.ProjectFilter) ([]workforce.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []workforce.Project
	for _, p := range m.projects {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.Entity != "" && p.Entity != f.Entity {
			continue
		}
		if f.AccountID != "" && (p.AccountID == nil || *p.AccountID != f.AccountID) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) UpdateProjectStatus(_ context.Context, id workforce.ProjectID, status workforce.ProjectStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateProjectStatus:" + string(id)); err != nil {
		return err
	}
	p, ok := m.projects[id]
	if !ok {
		return workforce.ErrProjectNotFound
	}
	p.Status = status
	m.projects[id] = p
	return nil
}

func (m *Memory) DeleteProject(_ context.Context, id workforce.ProjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (m *Memory) SaveAccount(_ context.Context, a workforce.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) GetAccount(_ context.Context, id workforce.AccountID) (*workforce.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]workforce.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]workforce.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) DeleteAccount(_ context.Context, id workforce.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, id)
	return nil
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func (m *Memory) SaveAllocation(_ context.Context, a workforce.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SaveAllocation"); err != nil {
		return err
	}
	m.allocations[a.ID] = a
	return nil
}

func (m *Memory) GetAllocation(_ context.Context, id workforce.AllocationID) (*workforce.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.allocations[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *Memory) ListAllocations(_ context.Context, f workforce.AllocationFilter) ([]workforce.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []workforce.Allocation
	for _, a := range m.allocations {
		if f.EmployeeID != "" && a.EmployeeID != f.EmployeeID {
			continue
		}
		if f.ProjectID != "" && a.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) DeleteAllocation(_ context.Context, id workforce.AllocationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteAllocation"); err != nil {
		return err
	}
	if _, ok := m.allocations[id]; !ok {
		return workforce.ErrAllocationNotFound
	}
	delete(m.allocations, id)
	return nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func (m *Memory) CreateTransition(_ context.Context, t workforce.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateTransition"); err != nil {
		return err
	}
	t.Comments = append([]workforce.Comment(nil), t.Comments...)
	m.transitions[t.ID] = t
	return nil
}

func (m *Memory) GetTransition(_ context.Context, id workforce.TransitionID) (*workforce.Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.transitions[id]
	if !ok {
		return nil, nil
	}
	t.Comments = append([]workforce.Comment(nil), t.Comments...)
	return &t, nil
}

func (m *Memory) ListTransitions(_ context.Context, f workforce.TransitionFilter) ([]workforce.Transition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []workforce.Transition
	for _, t := range m.transitions {
		if f.EmployeeID != "" && t.EmployeeID != f.EmployeeID {
			continue
		}
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		t.Comments = append([]workforce.Comment(nil), t.Comments...)
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) AddComment(_ context.Context, c workforce.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transitions[c.TransitionID]
	if !ok {
		return workforce.ErrTransitionNotFound
	}
	t.Comments = append(t.Comments, c)
	m.transitions[t.ID] = t
	return nil
}

func (m *Memory) DeleteComment(_ context.Context, transitionID workforce.TransitionID, id workforce.CommentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transitions[transitionID]
	if !ok {
		return workforce.ErrTransitionNotFound
	}
	for i, c := range t.Comments {
		if c.ID == id {
			t.Comments = append(t.Comments[:i:i], t.Comments[i+1:]...)
			m.transitions[transitionID] = t
			return nil
		}
	}
	return workforce.ErrCommentNotFound
}

// =============================================================================
// SKILLS
// =============================================================================

func (m *Memory) SaveSkill(_ context.Context, s workforce.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skills[s.ID] = s
	return nil
}

func (m *Memory) ListSkills(_ context.Context) ([]workforce.Skill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]workforce.Skill, 0, len(m.skills))
	for _, s := range m.skills {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *Memory) SetEmployeeSkills(_ context.Context, id workforce.EmployeeID, skills []workforce.EmployeeSkill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range skills {
		if _, ok := m.skills[s.SkillID]; !ok {
			return workforce.ErrSkillNotFound
		}
	}
	m.empSkills[id] = append([]workforce.EmployeeSkill(nil), skills...)
	return nil
}

func (m *Memory) GetEmployeeSkills(_ context.Context, id workforce.EmployeeID) ([]workforce.EmployeeSkill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]workforce.EmployeeSkill(nil), m.empSkills[id]...), nil
}
