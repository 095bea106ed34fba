package staffing

import (
	"context"
	"strings"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

type AccountInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	Entity       string `json:"entity" validate:"max=100"`
	Industry     string `json:"industry" validate:"max=100"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

func (s *Service) CreateAccount(ctx context.Context, in AccountInput) (*workforce.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkInput(in); err != nil {
		return nil, err
	}
	a := workforce.Account{
		ID:           workforce.AccountID(s.newID()),
		Name:         in.Name,
		Entity:       in.Entity,
		Industry:     in.Industry,
		ContactEmail: in.ContactEmail,
		CreatedAt:    s.now(),
	}
	if err := s.store.SaveAccount(ctx, a); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Accounts)
	return &a, nil
}

func (s *Service) GetAccount(ctx context.Context, id workforce.AccountID) (*workforce.Account, error) {
	return s.account(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context) ([]workforce.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) UpdateAccount(ctx context.Context, id workforce.AccountID, in AccountInput) (*workforce.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := checkInput(in); err != nil {
		return nil, err
	}
	a, err := s.account(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Name = in.Name
	a.Entity = in.Entity
	a.Industry = in.Industry
	a.ContactEmail = in.ContactEmail
	if err := s.store.SaveAccount(ctx, *a); err != nil {
		return nil, err
	}
	s.bump(ctx, cache.Accounts)
	return a, nil
}

// DeleteAccount removes an account that owns no projects.
func (s *Service) DeleteAccount(ctx context.Context, id workforce.AccountID) error {
	if _, err := s.account(ctx, id); err != nil {
		return err
	}
	projects, err := s.store.ListProjects(ctx, workforce.ProjectFilter{AccountID: id})
	if err != nil {
		return err
	}
	if len(projects) > 0 {
		return workforce.ErrInUse
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.bump(ctx, cache.Accounts)
	return nil
}

// AccountMetrics derives project counts, utilized headcount and the average
// allocation for one account as of today.
func (s *Service) AccountMetrics(ctx context.Context, id workforce.AccountID) (*workforce.AccountMetrics, error) {
	if _, err := s.account(ctx, id); err != nil {
		return nil, err
	}
	projects, err := s.store.ListProjects(ctx, workforce.ProjectFilter{AccountID: id})
	if err != nil {
		return nil, err
	}

	var allocs []workforce.Allocation
	for _, p := range projects {
		pa, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{ProjectID: p.ID})
		if err != nil {
			return nil, err
		}
		allocs = append(allocs, pa...)
	}

	m := workforce.ComputeAccountMetrics(id, projects, allocs, s.Today())
	return &m, nil
}
