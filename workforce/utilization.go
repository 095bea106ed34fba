/*
utilization.go - Utilization derivation and classification bands

PURPOSE:
  An employee's utilization is the sum of their allocation percents that
  are in effect on a reference day. It is never stored; every view recomputes
  it from the allocation set.

RULES:
  An allocation counts on day d when
    - its status is Active or Planned, and
    - start_date <= d, and
    - end_date is absent or d <= end_date.
  There is no per-allocation cap and the sum is reported as-is, so 110 is a
  valid (flagged) answer.

CLASSIFICATION (one threshold set for every screen):
    u <  50          available      "Available"         bench-eligible
    50 <= u <  80    partial        "Partially Utilized"
    80 <= u <= 100   full           "Fully Utilized"
    u > 100          overallocated  "Overallocated"

SEE ALSO:
  - bench.go: Risk labels for bench-eligible employees
*/
package workforce

// =============================================================================
// THRESHOLDS
// =============================================================================

var (
	// BenchThreshold: strictly below this an employee is on the bench list.
	BenchThreshold = NewPercent(50)

	// PartialThreshold is the inclusive lower bound of "partial".
	PartialThreshold = NewPercent(50)

	// FullThreshold is the inclusive lower bound of "full".
	FullThreshold = NewPercent(80)
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Utilization returns the total percent of allocs in effect on ref.
func Utilization(allocs []Allocation, ref Date) Percent {
	total := ZeroPercent
	for _, a := range allocs {
		if !a.IsActive(ref) {
			continue
		}
		total = total.Add(a.EffectivePercent())
	}
	return total
}

// ActiveOn filters allocs to those whose window covers ref and whose status
// counts toward utilization.
func ActiveOn(allocs []Allocation, ref Date) []Allocation {
	var out []Allocation
	for _, a := range allocs {
		if a.IsActive(ref) && a.Status.Counts() {
			out = append(out, a)
		}
	}
	return out
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

type Classification string

const (
	ClassAvailable     Classification = "available"
	ClassPartial       Classification = "partial"
	ClassFull          Classification = "full"
	ClassOverallocated Classification = "overallocated"
)

func (c Classification) Valid() bool {
	switch c {
	case ClassAvailable, ClassPartial, ClassFull, ClassOverallocated:
		return true
	}
	return false
}

// Label is the human-readable band name shown in tables and cards.
func (c Classification) Label() string {
	switch c {
	case ClassPartial:
		return "Partially Utilized"
	case ClassFull:
		return "Fully Utilized"
	case ClassOverallocated:
		return "Overallocated"
	default:
		return "Available"
	}
}

// Classify places a utilization total in its band.
func Classify(u Percent) Classification {
	switch {
	case u.GreaterThan(FullCapacity):
		return ClassOverallocated
	case !u.LessThan(FullThreshold):
		return ClassFull
	case !u.LessThan(PartialThreshold):
		return ClassPartial
	default:
		return ClassAvailable
	}
}

// OnBench reports whether u is low enough for the bench list.
func OnBench(u Percent) bool {
	return u.LessThan(BenchThreshold)
}

// WouldOverallocate reports whether adding p to current exceeds full capacity.
func WouldOverallocate(current, p Percent) bool {
	return current.Add(p).GreaterThan(FullCapacity)
}

// RemainingCapacity is what is left before 100%, never negative.
func RemainingCapacity(current Percent) Percent {
	rest := FullCapacity.Sub(current)
	if rest.Value.IsNegative() {
		return ZeroPercent
	}
	return rest
}

// =============================================================================
// VIEW - The derived record every consumer renders
// =============================================================================

// UtilizationView is the per-employee output contract for tables, cards and
// the board.
type UtilizationView struct {
	EmployeeID         EmployeeID     `json:"employee_id"`
	UtilizationPercent Percent        `json:"utilization_percent"`
	Classification     Classification `json:"classification"`
	BenchRiskLabel     string         `json:"bench_risk_label,omitempty"`
}

// BuildView derives the view for one employee. history may be nil; it only
// refines the bench-start date (see BenchSince).
func BuildView(emp Employee, allocs []Allocation, history []Transition, ref Date) UtilizationView {
	u := Utilization(allocs, ref)
	view := UtilizationView{
		EmployeeID:         emp.ID,
		UtilizationPercent: u,
		Classification:     Classify(u),
	}
	if risk := AssessBenchRisk(u, BenchSince(emp, allocs, history, ref), ref); risk.Level != RiskOptimal {
		view.BenchRiskLabel = risk.Label
	}
	return view
}
