/*
Package staffing is the application service of the talent map.

PURPOSE:
  Turns operator intents (create an employee, assign someone, take someone off
  a project, put a project on hold) into validated store writes, and derives
  the read views (utilization table, bench report, dashboard) from the stored
  facts. The HTTP layer and the allocation board both go through here.

WRITE PATH:
  1. validate the input (struct tags + workforce rules)
  2. load the records the rule needs (employee, project, existing allocations)
  3. write through workforce.Store
  4. bump the cache generations of the touched collections

READ PATH:
  Views are recomputed from allocations on every cache miss and memoized
  under the generation fingerprint of the collections they read.

FAILURE POLICY:
  - validation, duplicates, lifecycle violations: nothing is written
  - history (transition) write on removal: logged and swallowed
  - generation bump after a committed write: logged and swallowed
  - project sweep: per-project, failures reported next to successes

SEE ALSO:
  - workforce/: the pure rules this service applies
  - board/: the drag-and-drop workflow built on top of this service
  - cache/: generation counters
*/
package staffing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// Service implements every staffing operation on top of a workforce.Store.
type Service struct {
	store workforce.Store
	gens  cache.Generations
	log   zerolog.Logger

	now   func() time.Time
	newID func() string

	views cache.Memo[[]workforce.UtilizationView]
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now (tests, demo scenarios pinned to a date).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// New creates a Service. gens may be nil, in which case an in-process
// generation counter is used.
func New(store workforce.Store, gens cache.Generations, logger zerolog.Logger, opts ...Option) *Service {
	if gens == nil {
		gens = cache.NewMemory()
	}
	s := &Service{
		store: store,
		gens:  gens,
		log:   logger.With().Str("component", "staffing").Logger(),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying store (scenario loaders, health checks).
func (s *Service) Store() workforce.Store {
	return s.store
}

// Today is the reference date for every derived value.
func (s *Service) Today() workforce.Date {
	return workforce.DateOf(s.now())
}

// Generations returns the current generation of every collection.
func (s *Service) Generations(ctx context.Context) (map[cache.Collection]uint64, error) {
	return s.gens.Snapshot(ctx)
}

// Invalidate bumps every collection (bulk loads, resets).
func (s *Service) Invalidate(ctx context.Context) {
	s.bump(ctx, cache.AllCollections...)
}

func (s *Service) bump(ctx context.Context, cols ...cache.Collection) {
	if err := s.gens.Bump(ctx, cols...); err != nil {
		s.log.Warn().Err(err).Msg("failed to bump cache generations")
	}
}

// =============================================================================
// LOADERS - Store lookups that turn (nil, nil) into not-found errors
// =============================================================================

func (s *Service) employee(ctx context.Context, id workforce.EmployeeID) (*workforce.Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, workforce.ErrEmployeeNotFound
	}
	return e, nil
}

func (s *Service) project(ctx context.Context, id workforce.ProjectID) (*workforce.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, workforce.ErrProjectNotFound
	}
	return p, nil
}

func (s *Service) account(ctx context.Context, id workforce.AccountID) (*workforce.Account, error) {
	a, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, workforce.ErrAccountNotFound
	}
	return a, nil
}

func (s *Service) allocation(ctx context.Context, id workforce.AllocationID) (*workforce.Allocation, error) {
	a, err := s.store.GetAllocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, workforce.ErrAllocationNotFound
	}
	return a, nil
}
