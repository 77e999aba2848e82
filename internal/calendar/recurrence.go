package calendar

import (
	"sort"
	"time"

	"github.com/custodycal/custody-engine/internal/domain"
)

// NthWeekdayOfMonth returns the n-th given weekday of a month (n starts at 1).
// It fails with ErrDateArithmetic when the month has fewer than n such days.
func NthWeekdayOfMonth(year int, month time.Month, wd time.Weekday, n int) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, domain.ErrDateArithmetic.Detail("month %d", int(month))
	}
	if n < 1 {
		return Date{}, domain.ErrDateArithmetic.Detail("occurrence %d of %s", n, wd)
	}
	first := Date{Year: year, Month: month, Day: 1}
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (n-1)*7
	if day > DaysIn(year, month) {
		return Date{}, domain.ErrDateArithmetic.Detail("no %s #%d in %s %d", wd, n, month, year)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// LastWeekdayOfMonth returns the final given weekday of a month.
func LastWeekdayOfMonth(year int, month time.Month, wd time.Weekday) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, domain.ErrDateArithmetic.Detail("month %d", int(month))
	}
	last := Date{Year: year, Month: month, Day: DaysIn(year, month)}
	back := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDays(-back), nil
}

// FixedDate returns month/day in year without normalizing, so Feb 29 in a
// common year is an error rather than Mar 1.
func FixedDate(year int, month time.Month, day int) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, domain.ErrDateArithmetic.Detail("month %d", int(month))
	}
	if day < 1 || day > DaysIn(year, month) {
		return Date{}, domain.ErrDateArithmetic.Detail("%s %d does not exist in %d", month, day, year)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// AnchorFunc resolves a named recurring date for a year.
type AnchorFunc func(year int) (Date, error)

// Anchors is a lookup table of named recurring dates.
type Anchors map[string]AnchorFunc

func nth(month time.Month, wd time.Weekday, n int) AnchorFunc {
	return func(year int) (Date, error) { return NthWeekdayOfMonth(year, month, wd, n) }
}

func last(month time.Month, wd time.Weekday) AnchorFunc {
	return func(year int) (Date, error) { return LastWeekdayOfMonth(year, month, wd) }
}

func fixed(month time.Month, day int) AnchorFunc {
	return func(year int) (Date, error) { return FixedDate(year, month, day) }
}

// DefaultAnchors returns the US holiday anchors used by the default court order.
// A fresh map is returned on every call.
func DefaultAnchors() Anchors {
	return Anchors{
		"new_years_day":    fixed(time.January, 1),
		"mlk_day":          nth(time.January, time.Monday, 3),
		"presidents_day":   nth(time.February, time.Monday, 3),
		"mothers_day":      nth(time.May, time.Sunday, 2),
		"memorial_day":     last(time.May, time.Monday),
		"fathers_day":      nth(time.June, time.Sunday, 3),
		"independence_day": fixed(time.July, 4),
		"labor_day":        nth(time.September, time.Monday, 1),
		"halloween":        fixed(time.October, 31),
		"thanksgiving":     nth(time.November, time.Thursday, 4),
		"christmas_eve":    fixed(time.December, 24),
		"christmas_day":    fixed(time.December, 25),
	}
}

// Names returns the anchor names in sorted order.
func (a Anchors) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the anchor date for year.
func (a Anchors) Resolve(name string, year int) (Date, error) {
	fn, ok := a[name]
	if !ok {
		return Date{}, domain.ErrUnknownAnchor.Detail("%q", name)
	}
	return fn(year)
}

// RelativeDate resolves the named anchor for year and shifts it by offsetDays.
func RelativeDate(anchors Anchors, name string, year, offsetDays int) (Date, error) {
	d, err := anchors.Resolve(name, year)
	if err != nil {
		return Date{}, err
	}
	return d.AddDays(offsetDays), nil
}

// WeekIndex returns the number of whole weeks from ref to d (floor division).
// Dates before ref yield negative indexes.
func WeekIndex(ref, d Date) int {
	days := ref.DaysUntil(d)
	if days >= 0 {
		return days / 7
	}
	return -((-days + 6) / 7)
}
