package workforce

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar day (the only granularity staffing needs)
// =============================================================================

const DateLayout = "2006-01-02"

// Date is a calendar day at UTC midnight.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.Time.Format(DateLayout) }

// DaysBetween returns the whole days from `from` to `to` (negative if to is earlier).
func DaysBetween(from, to Date) int {
	return int(to.Time.Sub(from.Time).Hours() / 24)
}

func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// ENCODING
// =============================================================================

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores dates as TEXT so that lexical order is chronological.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DateOf(v)
	case nil:
		*d = Date{}
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// =============================================================================
// PERIOD - Allocation window, open-ended when End is nil
// =============================================================================

type Period struct {
	Start Date
	End   *Date
}

// Contains returns true if the day is within [Start, End]; an open End never
// closes the window.
func (p Period) Contains(d Date) bool {
	if d.Before(p.Start) {
		return false
	}
	if p.End != nil && d.After(*p.End) {
		return false
	}
	return true
}

// Validate rejects windows that end before they start.
func (p Period) Validate() error {
	if p.End != nil && p.End.Before(p.Start) {
		return &PeriodError{Start: p.Start, End: *p.End}
	}
	return nil
}

func (p Period) String() string {
	end := "open"
	if p.End != nil {
		end = p.End.String()
	}
	return "[" + p.Start.String() + ", " + end + "]"
}
