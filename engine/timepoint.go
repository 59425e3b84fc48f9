/*
timepoint.go - Calendar arithmetic for simulation scheduling

PURPOSE:
  Every scheduled action lives on a day-granularity timeline. TimePoint
  wraps time.Time normalized to UTC midnight so that comparisons are a
  total order and two points built from the same calendar day are always
  equal, regardless of how they were constructed.

KEY OPERATIONS:
  - ParseDate:       MM/DD/YYYY wire format -> TimePoint
  - NextMonthStart:  first day of the following month (optionally skipping
                     whole months), used as the anchor for recurring
                     monthly actions
  - DaysBetween / DaysInMonth: integer day counts used to prorate partial
                     first-period amounts (first month's rent, first
                     month's loan interest)
  - Periodicity:     the step function for recurring actions

All functions here are pure; malformed input fails with *ParseError.

SEE ALSO:
  - action.go: uses Periodicity to advance NextExecution
  - sim.go:    orders the run loop by TimePoint
*/
package engine

import (
	"time"
)

// DateLayout is the wire format for all date-valued inputs and outputs.
const DateLayout = "01/02/2006"

// =============================================================================
// TIME POINT - Day-granularity point on the simulation timeline
// =============================================================================

type TimePoint struct {
	Time time.Time
}

// NewTimePoint builds a TimePoint at UTC midnight.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an MM/DD/YYYY date string.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, &ParseError{Input: s, Err: err}
	}
	return TimePoint{Time: t.UTC()}, nil
}

// MustParseDate is ParseDate for known-good literals (tests, canned demos).
func MustParseDate(s string) TimePoint {
	tp, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// DistantFuture is the end date of actions with no explicit end.
func DistantFuture() TimePoint {
	return NewTimePoint(9999, time.December, 31)
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool  { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool  { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) IsZero() bool { return tp.Time.IsZero() }

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }
func (tp TimePoint) AddWeeks(n int) TimePoint  { return tp.AddDays(7 * n) }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, n, 0)} }
func (tp TimePoint) AddYears(n int) TimePoint  { return TimePoint{Time: tp.normalize().AddDate(n, 0, 0)} }

// NextMonthStart returns the first day of the month 1+skip months ahead.
// NextMonthStart(0) from Jan 15 is Feb 1; NextMonthStart(1) is Mar 1.
func (tp TimePoint) NextMonthStart(skip int) TimePoint {
	t := tp.normalize()
	return TimePoint{Time: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1+skip, 0)}
}

// DaysBetween returns the whole-day count from 'from' to 'to'.
// Negative when 'to' precedes 'from'.
func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// DaysInMonth returns the number of calendar days in tp's month.
func (tp TimePoint) DaysInMonth() int {
	t := tp.normalize()
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return DaysBetween(TimePoint{Time: first}, TimePoint{Time: first.AddDate(0, 1, 0)})
}

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.normalize().Format(DateLayout)
}

// =============================================================================
// PERIODICITY - Step function for recurring actions
// =============================================================================

type Periodicity string

const (
	Once     Periodicity = "once"
	Daily    Periodicity = "daily"
	Weekly   Periodicity = "weekly"
	Biweekly Periodicity = "biweekly"
	Monthly  Periodicity = "monthly"
	Yearly   Periodicity = "yearly"
)

// ParsePeriodicity maps a config string to a Periodicity.
// The empty string means "once".
func ParsePeriodicity(s string) (Periodicity, error) {
	switch Periodicity(s) {
	case "", Once:
		return Once, nil
	case Daily, Weekly, Biweekly, Monthly, Yearly:
		return Periodicity(s), nil
	default:
		return "", &ParseError{Input: s, Reason: "unknown periodicity"}
	}
}

// IsRecurring reports whether the periodicity schedules more than one
// occurrence.
func (p Periodicity) IsRecurring() bool {
	return p != "" && p != Once
}

// Next advances a time point by one period. For Once it returns tp
// unchanged; one-shot actions never reschedule.
func (p Periodicity) Next(tp TimePoint) TimePoint {
	switch p {
	case Daily:
		return tp.AddDays(1)
	case Weekly:
		return tp.AddWeeks(1)
	case Biweekly:
		return tp.AddWeeks(2)
	case Monthly:
		return tp.AddMonths(1)
	case Yearly:
		return tp.AddYears(1)
	default:
		return tp
	}
}
