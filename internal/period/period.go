// Package period maps symbolic period selectors (1M, 3M, 6M, 1Y, all,
// custom) onto concrete date ranges.
package period

import (
	"errors"
	"fmt"
	"time"

	"registro/internal/core"
)

const (
	LastMonth    Selector = "1M"
	LastQuarter  Selector = "3M"
	LastSemester Selector = "6M"
	LastYear     Selector = "1Y"
	All          Selector = "all"
	Custom       Selector = "custom"
)

// Selector is the symbolic shorthand the UI offers for a date range.
type Selector string

var ErrUnknownSelector = errors.New("unknown period selector")

func (s Selector) IsValid() bool {
	switch s {
	case LastMonth, LastQuarter, LastSemester, LastYear, All, Custom:
		return true
	}
	return false
}

// Resolve turns a selector into a date range anchored at today. The end
// bound is always left open; today acts as the implicit upper bound.
// Custom is not resolvable here: the caller supplies both bounds directly
// and should use ResolveCustom.
func Resolve(s Selector, today core.Date) (core.DateRange, error) {
	switch s {
	case LastMonth:
		return core.DateRange{Start: subtractMonths(today, 1)}, nil
	case LastQuarter:
		return core.DateRange{Start: subtractMonths(today, 3)}, nil
	case LastSemester:
		return core.DateRange{Start: subtractMonths(today, 6)}, nil
	case LastYear:
		return core.DateRange{Start: subtractMonths(today, 12)}, nil
	case All:
		return core.DateRange{}, nil
	case Custom:
		return core.DateRange{}, fmt.Errorf("%w: custom requires explicit bounds", ErrUnknownSelector)
	default:
		return core.DateRange{}, fmt.Errorf("%w: %q", ErrUnknownSelector, s)
	}
}

// ResolveCustom builds a range from explicit bounds; either side may be
// empty, meaning unbounded on that side.
func ResolveCustom(start, end core.Date) core.DateRange {
	return core.DateRange{Start: start, End: end}
}

// subtractMonths walks back n calendar months keeping the day-of-month.
// When the target month is shorter the result clamps to its last valid
// day, so 2024-03-31 minus one month is 2024-02-29. time.AddDate would
// overflow into the next month instead, which is why the arithmetic is
// spelled out here.
func subtractMonths(d core.Date, n int) core.Date {
	year := d.Year()
	month := d.Month() - n
	for month < 1 {
		month += 12
		year--
	}
	day := d.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// daysIn returns the number of days in the given month.
func daysIn(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
