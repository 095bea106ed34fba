package workforce

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PERCENT - Share of an employee's capacity
// =============================================================================

// Percent is a capacity share. Single allocations live in [1, 100]; sums are
// allowed to exceed 100 (over-allocation is a state, not an error).
type Percent struct {
	Value decimal.Decimal
}

var (
	ZeroPercent   = Percent{Value: decimal.Zero}
	MinAllocation = NewPercent(1)
	MaxAllocation = NewPercent(100)
	FullCapacity  = MaxAllocation
)

func NewPercent(v int64) Percent            { return Percent{Value: decimal.NewFromInt(v)} }
func NewPercentFromFloat(v float64) Percent { return Percent{Value: decimal.NewFromFloat(v)} }

func ParsePercent(s string) (Percent, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percent{}, fmt.Errorf("invalid percent %q: %w", s, err)
	}
	return Percent{Value: d}, nil
}

func (p Percent) Add(o Percent) Percent      { return Percent{Value: p.Value.Add(o.Value)} }
func (p Percent) Sub(o Percent) Percent      { return Percent{Value: p.Value.Sub(o.Value)} }
func (p Percent) IsZero() bool               { return p.Value.IsZero() }
func (p Percent) IsPositive() bool           { return p.Value.IsPositive() }
func (p Percent) Equal(o Percent) bool       { return p.Value.Equal(o.Value) }
func (p Percent) GreaterThan(o Percent) bool { return p.Value.GreaterThan(o.Value) }
func (p Percent) LessThan(o Percent) bool    { return p.Value.LessThan(o.Value) }
func (p Percent) Float64() float64           { return p.Value.InexactFloat64() }
func (p Percent) String() string             { return p.Value.String() }

// Clamp bounds p to [lo, hi].
func (p Percent) Clamp(lo, hi Percent) Percent {
	if p.LessThan(lo) {
		return lo
	}
	if p.GreaterThan(hi) {
		return hi
	}
	return p
}

// InAllocationRange reports whether p is a legal single-allocation percent.
func (p Percent) InAllocationRange() bool {
	return !p.LessThan(MinAllocation) && !p.GreaterThan(MaxAllocation)
}

// Average returns the mean of ps rounded to two places, zero for no input.
func Average(ps []Percent) Percent {
	if len(ps) == 0 {
		return ZeroPercent
	}
	sum := decimal.Zero
	for _, p := range ps {
		sum = sum.Add(p.Value)
	}
	return Percent{Value: sum.Div(decimal.NewFromInt(int64(len(ps)))).Round(2)}
}

// =============================================================================
// ENCODING
// =============================================================================

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.Value.String()), nil
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	return p.Value.UnmarshalJSON(b)
}
