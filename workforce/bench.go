package workforce

// =============================================================================
// BENCH RISK - Advisory labels for under-used employees
// =============================================================================

type RiskLevel string

const (
	RiskCrisis        RiskLevel = "crisis"
	RiskLayoff        RiskLevel = "layoff_recommended"
	RiskAtRisk        RiskLevel = "at_risk"
	RiskUnderutilized RiskLevel = "underutilized"
	RiskOptimal       RiskLevel = "optimal"
)

// Severity mirrors the badge colour the dashboard uses.
type Severity string

const (
	SeverityDestructive Severity = "destructive"
	SeverityOrange      Severity = "orange"
	SeverityYellow      Severity = "yellow"
	SeverityInfo        Severity = "info"
	SeverityNone        Severity = "none"
)

const (
	// Bench days strictly above these move an idle employee up a level.
	LayoffBenchDays = 30
	CrisisBenchDays = 45
)

type BenchRisk struct {
	Level     RiskLevel `json:"level"`
	Label     string    `json:"label"`
	Severity  Severity  `json:"severity"`
	BenchDays int       `json:"bench_days"`
}

// AssessBenchRisk labels an employee from their utilization and the day they
// went idle. It never gates a write.
func AssessBenchRisk(u Percent, benchSince Date, ref Date) BenchRisk {
	if u.IsZero() {
		days := DaysBetween(benchSince, ref)
		if days < 0 {
			days = 0
		}
		switch {
		case days > CrisisBenchDays:
			return BenchRisk{Level: RiskCrisis, Label: "Crisis", Severity: SeverityDestructive, BenchDays: days}
		case days > LayoffBenchDays:
			return BenchRisk{Level: RiskLayoff, Label: "Layoff Recommended", Severity: SeverityOrange, BenchDays: days}
		default:
			return BenchRisk{Level: RiskAtRisk, Label: "At Risk", Severity: SeverityYellow, BenchDays: days}
		}
	}
	if OnBench(u) {
		return BenchRisk{Level: RiskUnderutilized, Label: "Underutilized", Severity: SeverityInfo}
	}
	return BenchRisk{Level: RiskOptimal, Label: "Optimal", Severity: SeverityNone}
}

// BenchSince returns the day the employee last stopped being utilized: the
// latest end date, on or before ref, among their allocations and transition
// history. Employees with no finished work fall back to their creation day.
func BenchSince(emp Employee, allocs []Allocation, history []Transition, ref Date) Date {
	since := DateOf(emp.CreatedAt)
	found := false
	consider := func(d Date) {
		if d.After(ref) {
			return
		}
		if !found || d.After(since) {
			since = d
			found = true
		}
	}
	for _, a := range allocs {
		if a.EndDate != nil {
			consider(*a.EndDate)
		}
	}
	for _, t := range history {
		consider(t.EndDate)
	}
	if found && since.Before(DateOf(emp.CreatedAt)) {
		return DateOf(emp.CreatedAt)
	}
	return since
}
