package staffing

import (
	"context"
	"sort"

	"github.com/haashirideassion/workforcemanagement-sub000/cache"
	"github.com/haashirideassion/workforcemanagement-sub000/workforce"
)

// =============================================================================
// SNAPSHOT - Everything the derived views read, grouped per employee
// =============================================================================

type snapshot struct {
	employees []workforce.Employee
	allocs    map[workforce.EmployeeID][]workforce.Allocation
	history   map[workforce.EmployeeID][]workforce.Transition
}

// load reads the non-archived directory with its allocations and history.
func (s *Service) load(ctx context.Context) (*snapshot, error) {
	employees, err := s.store.ListEmployees(ctx, workforce.EmployeeFilter{})
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{})
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListTransitions(ctx, workforce.TransitionFilter{})
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		allocs:  make(map[workforce.EmployeeID][]workforce.Allocation),
		history: make(map[workforce.EmployeeID][]workforce.Transition),
	}
	for _, e := range employees {
		if e.Status != workforce.EmployeeArchived {
			snap.employees = append(snap.employees, e)
		}
	}
	for _, a := range allocs {
		snap.allocs[a.EmployeeID] = append(snap.allocs[a.EmployeeID], a)
	}
	for _, t := range history {
		snap.history[t.EmployeeID] = append(snap.history[t.EmployeeID], t)
	}
	return snap, nil
}

// =============================================================================
// PER-EMPLOYEE
// =============================================================================

// EmployeeUtilization is the detail card of one employee as of today.
type EmployeeUtilization struct {
	View       workforce.UtilizationView
	Risk       workforce.BenchRisk
	BenchSince workforce.Date
	Active     []workforce.Allocation
}

func (s *Service) EmployeeUtilization(ctx context.Context, id workforce.EmployeeID) (*EmployeeUtilization, error) {
	emp, err := s.employee(ctx, id)
	if err != nil {
		return nil, err
	}
	allocs, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: id})
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListTransitions(ctx, workforce.TransitionFilter{EmployeeID: id})
	if err != nil {
		return nil, err
	}

	today := s.Today()
	u := workforce.Utilization(allocs, today)
	since := workforce.BenchSince(*emp, allocs, history, today)
	return &EmployeeUtilization{
		View:       workforce.BuildView(*emp, allocs, history, today),
		Risk:       workforce.AssessBenchRisk(u, since, today),
		BenchSince: since,
		Active:     workforce.ActiveOn(allocs, today),
	}, nil
}

// CurrentUtilization is the employee's utilization total as of today.
func (s *Service) CurrentUtilization(ctx context.Context, id workforce.EmployeeID) (workforce.Percent, error) {
	allocs, err := s.store.ListAllocations(ctx, workforce.AllocationFilter{EmployeeID: id})
	if err != nil {
		return workforce.ZeroPercent, err
	}
	return workforce.Utilization(allocs, s.Today()), nil
}

// =============================================================================
// ALL EMPLOYEES (memoized per generation)
// =============================================================================

var viewCollections = []cache.Collection{cache.Employees, cache.Allocations, cache.Transitions}

// UtilizationViews returns the view of every non-archived employee, ordered
// by name. The result is shared between callers and must not be modified.
func (s *Service) UtilizationViews(ctx context.Context) ([]workforce.UtilizationView, error) {
	today := s.Today()
	key, err := cache.Fingerprint(ctx, s.gens, viewCollections...)
	if err != nil {
		s.log.Warn().Err(err).Msg("cache generations unavailable, computing views uncached")
		key = ""
	} else {
		key += "@" + today.String()
		if views, ok := s.views.Get(key); ok {
			return views, nil
		}
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]workforce.UtilizationView, 0, len(snap.employees))
	for _, e := range snap.employees {
		views = append(views, workforce.BuildView(e, snap.allocs[e.ID], snap.history[e.ID], today))
	}

	if key != "" {
		s.views.Put(key, views)
	}
	return views, nil
}

// =============================================================================
// BENCH REPORT
// =============================================================================

// BenchEntry is one bench-eligible employee (utilization below 50%).
type BenchEntry struct {
	Employee   workforce.Employee
	View       workforce.UtilizationView
	Risk       workforce.BenchRisk
	BenchSince workforce.Date
}

// BenchReport lists bench-eligible employees, longest idle first.
func (s *Service) BenchReport(ctx context.Context) ([]BenchEntry, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	var out []BenchEntry
	for _, e := range snap.employees {
		allocs := snap.allocs[e.ID]
		u := workforce.Utilization(allocs, today)
		if !workforce.OnBench(u) {
			continue
		}
		since := workforce.BenchSince(e, allocs, snap.history[e.ID], today)
		out = append(out, BenchEntry{
			Employee:   e,
			View:       workforce.BuildView(e, allocs, snap.history[e.ID], today),
			Risk:       workforce.AssessBenchRisk(u, since, today),
			BenchSince: since,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if rank(out[i].Risk.Level) != rank(out[j].Risk.Level) {
			return rank(out[i].Risk.Level) < rank(out[j].Risk.Level)
		}
		return out[i].Risk.BenchDays > out[j].Risk.BenchDays
	})
	return out, nil
}

func rank(l workforce.RiskLevel) int {
	switch l {
	case workforce.RiskCrisis:
		return 0
	case workforce.RiskLayoff:
		return 1
	case workforce.RiskAtRisk:
		return 2
	case workforce.RiskUnderutilized:
		return 3
	default:
		return 4
	}
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Dashboard holds the headline KPIs.
type Dashboard struct {
	AsOf               workforce.Date
	Headcount          int
	BenchCount         int
	OverallocatedCount int
	AverageUtilization workforce.Percent
	ByClassification   map[workforce.Classification]int
	ByRisk             map[workforce.RiskLevel]int
	ProjectsByStatus   map[workforce.ProjectStatus]int
	Accounts           int
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	projects, err := s.ListProjects(ctx, workforce.ProjectFilter{})
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	d := &Dashboard{
		AsOf:             today,
		Headcount:        len(snap.employees),
		ByClassification: make(map[workforce.Classification]int),
		ByRisk:           make(map[workforce.RiskLevel]int),
		ProjectsByStatus: make(map[workforce.ProjectStatus]int),
		Accounts:         len(accounts),
	}

	totals := make([]workforce.Percent, 0, len(snap.employees))
	for _, e := range snap.employees {
		allocs := snap.allocs[e.ID]
		u := workforce.Utilization(allocs, today)
		totals = append(totals, u)

		class := workforce.Classify(u)
		d.ByClassification[class]++
		if class == workforce.ClassOverallocated {
			d.OverallocatedCount++
		}
		if workforce.OnBench(u) {
			d.BenchCount++
		}
		risk := workforce.AssessBenchRisk(u, workforce.BenchSince(e, allocs, snap.history[e.ID], today), today)
		d.ByRisk[risk.Level]++
	}
	d.AverageUtilization = workforce.Average(totals)

	for _, p := range projects {
		d.ProjectsByStatus[p.Status]++
	}
	return d, nil
}
