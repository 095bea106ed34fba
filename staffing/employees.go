package staffing

import (
	"context"
	"strings"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// EmployeeInput is the editable part of an employee record.
type EmployeeInput struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Email           string   `json:"email" validate:"required,email"`
	Code            string   `json:"code" validate:"max=50"`
	Entity          string   `json:"entity" validate:"max=100"`
	EmploymentType  string   `json:"employment_type" validate:"max=50"`
	PrimarySkills   []string `json:"primary_skills" validate:"dive,max=100"`
	SecondarySkills []string `json:"secondary_skills" validate:"dive,max=100"`
}

// EmployeeQuery filters the employee table. Classification is derived, so it
// is applied after the store filter.
type EmployeeQuery struct {
	workforce.EmployeeFilter
	Classification workforce.Classification
}

func (in EmployeeInput) normalize() EmployeeInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Code = strings.TrimSpace(in.Code)
	in.PrimarySkills = cleanTags(in.PrimarySkills)
	in.SecondarySkills = cleanTags(in.SecondarySkills)
	return in
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

// CreateEmployee adds an active employee to the directory.
func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (*workforce.Employee, error) {
	in = in.normalize()
	if err := checkInput(in); err != nil {
		return nil, err
	}

	now := s.now()
	e := workforce.Employee{
		ID:              workforce.EmployeeID(s.newID()),
		Name:            in.Name,
		Email:           in.Email,
		Code:            in.Code,
		Entity:          in.Entity,
		EmploymentType:  in.EmploymentType,
		Status:          workforce.EmployeeActive,
		PrimarySkills:   in.PrimarySkills,
		SecondarySkills: in.SecondarySkills,
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusChangedAt: now,
	}
	if err := s.store.SaveEmployee(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().Str("employee_id", string(e.ID)).Msg("employee created")
	s.bump(ctx, cache.Employees)
	return &e, nil
}

func (s *Service) GetEmployee(ctx context.Context, id workforce.EmployeeID) (*workforce.Employee, error) {
	return s.employee(ctx, id)
}

// ListEmployees returns the filtered directory ordered by name.
func (s *Service) ListEmployees(ctx context.Context, q EmployeeQuery) ([]workforce.Employee, error) {
	employees, err := s.store.ListEmployees(ctx, q.EmployeeFilter)
	if err != nil {
		return nil, err
	}
	if q.Classification == "" {
		return employees, nil
	}
	if !q.Classification.Valid() {
		ve := &workforce.ValidationError{}
		ve.Add("classification", "is not a valid classification")
		return nil, ve
	}

	views, err := s.UtilizationViews(ctx)
	if err != nil {
		return nil, err
	}
	class := make(map[workforce.EmployeeID]workforce.Classification, len(views))
	for _, v := range views {
		class[v.EmployeeID] = v.Classification
	}

	filtered := employees[:0]
	for _, e := range employees {
		c, ok := class[e.ID]
		if !ok {
			// archived employees have no view; they compute as available
			c = workforce.ClassAvailable
		}
		if c == q.Classification {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// UpdateEmployee replaces the core fields. Only active employees are editable.
func (s *Service) UpdateEmployee(ctx context.Context, id workforce.EmployeeID, in EmployeeInput) (*workforce.Employee, error) {
	in = in.normalize()
	if err := checkInput(in); err != nil {
		return nil, err
	}

	e, err := s.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.RequireEditable(); err != nil {
		return nil, err
	}

	e.Name = in.Name
	e.Email = in.Email
	e.Code = in.Code
	e.Entity = in.Entity
	e.EmploymentType = in.EmploymentType
	e.PrimarySkills = in.PrimarySkills
	e.SecondarySkills = in.SecondarySkills
	e.UpdatedAt = s.now()

	if err := s.store.SaveEmployee(ctx, *e); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Employees)
	return e, nil
}

// ChangeEmployeeStatus moves an employee along a legal lifecycle edge.
func (s *Service) ChangeEmployeeStatus(ctx context.Context, id workforce.EmployeeID, to workforce.EmployeeStatus) (*workforce.Employee, error) {
	e, err := s.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workforce.CheckEmployeeTransition(e.Status, to); err != nil {
		return nil, err
	}
	if e.Status == to {
		return e, nil
	}

	from := e.Status
	now := s.now()
	e.Status = to
	e.StatusChangedAt = now
	e.UpdatedAt = now
	if err := s.store.SaveEmployee(ctx, *e); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("employee_id", string(id)).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("employee status changed")
	s.bump(ctx, cache.Employees)
	return e, nil
}

// DeleteEmployee removes an employee who holds no allocations.
func (s *Service) DeleteEmployee(ctx context.Context, id workforce.EmployeeID) error {
	if _, err := s.employee(ctx, id); err != nil {
		return err
	}
	allocs, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: id})
	if err != nil {
		return err
	}
	if len(allocs) > 0 {
		return workforce.ErrInUse
	}
	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.bump(ctx, cache.Employees, cache.Skills)
	return nil
}

// =============================================================================
// SKILL DIRECTORY
// =============================================================================

// SkillInput adds a skill to the directory.
type SkillInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"max=100"`
}

func (s *Service) CreateSkill(ctx context.Context, in SkillInput) (*workforce.Skill, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkInput(in); err != nil {
		return nil, err
	}
	sk := workforce.Skill{ID: workforce.SkillID(s.newID()), Name: in.Name, Category: in.Category}
	if err := s.store.SaveSkill(ctx, sk); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Skills)
	return &sk, nil
}

func (s *Service) ListSkills(ctx context.Context) ([]workforce.Skill, error) {
	return s.store.ListSkills(ctx)
}

// SetEmployeeSkills replaces the employee's directory skill links.
func (s *Service) SetEmployeeSkills(ctx context.Context, id workforce.EmployeeID, links []workforce.EmployeeSkill) ([]workforce.EmployeeSkill, error) {
	e, err := s.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.RequireEditable(); err != nil {
		return nil, err
	}

	ve := &workforce.ValidationError{}
	seen := make(map[workforce.SkillID]bool, len(links))
	for i := range links {
		links[i].EmployeeID = id
		if links[i].Level != workforce.SkillPrimary && links[i].Level != workforce.SkillSecondary {
			ve.Add("level", "must be primary or secondary")
		}
		if seen[links[i].SkillID] {
			ve.Add("skill_id", "is listed twice")
		}
		seen[links[i].SkillID] = true
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	if err := s.store.SetEmployeeSkills(ctx, id, links); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Skills)
	return s.store.GetEmployeeSkills(ctx, id)
}

func (s *Service) GetEmployeeSkills(ctx context.Context, id workforce.EmployeeID) ([]workforce.EmployeeSkill, error) {
	if _, err := s.employee(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetEmployeeSkills(ctx, id)
}
