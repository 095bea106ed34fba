package workforce

// =============================================================================
// ACCOUNT METRICS - Derived, never stored
// =============================================================================

type AccountMetrics struct {
	AccountID          AccountID `json:"account_id"`
	ProjectCount       int       `json:"project_count"`
	ActiveProjectCount int       `json:"active_project_count"`
	UtilizedHeadcount  int       `json:"utilized_headcount"`
	AverageAllocation  Percent   `json:"average_allocation_percent"`
}

// ComputeAccountMetrics derives an account's metrics from its projects and
// the allocations on them. Allocations for other projects are ignored.
func ComputeAccountMetrics(id AccountID, projects []Project, allocs []Allocation, ref Date) AccountMetrics {
	m := AccountMetrics{AccountID: id, AverageAllocation: ZeroPercent}

	owned := make(map[ProjectID]bool)
	for _, p := range projects {
		if p.AccountID == nil || *p.AccountID != id {
			continue
		}
		owned[p.ID] = true
		m.ProjectCount++
		if p.Status == ProjectActive {
			m.ActiveProjectCount++
		}
	}

	people := make(map[EmployeeID]bool)
	var percents []Percent
	for _, a := range ActiveOn(allocs, ref) {
		if !owned[a.ProjectID] {
			continue
		}
		people[a.EmployeeID] = true
		percents = append(percents, a.Percent)
	}
	m.UtilizedHeadcount = len(people)
	m.AverageAllocation = Average(percents)
	return m
}
