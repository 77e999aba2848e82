package school

import (
	"context"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// minBreakWeekdays is the number of consecutive non-school weekdays that
// makes a break rather than a long weekend.
const minBreakWeekdays = 3

// Break is a located school break.
type Break struct {
	Name          string
	LastSchoolDay calendar.Date
	Resume        calendar.Date
	// HasResume is false when school does not resume inside the search window.
	HasResume bool
}

// SearchWindow returns the dates scanned for a named break starting in year.
func SearchWindow(name string, year int) (from, to calendar.Date, ok bool) {
	switch name {
	case "thanksgiving":
		return calendar.D(year, time.November, 1), calendar.D(year, time.December, 15), true
	case "winter":
		return calendar.D(year, time.December, 1), calendar.D(year+1, time.January, 31), true
	case "spring":
		return calendar.D(year, time.March, 1), calendar.D(year, time.April, 30), true
	case "summer":
		return calendar.D(year, time.May, 1), calendar.D(year, time.September, 15), true
	}
	return calendar.Date{}, calendar.Date{}, false
}

// FindBreak locates a named break in year: the longest run of non-school
// days containing at least three weekdays that follows a school day inside
// the search window. Ties go to the earliest run.
func FindBreak(ctx context.Context, p Provider, name string, year int) (Break, error) {
	if p == nil {
		return Break{}, domain.ErrMissingSchoolData.Detail("no school calendar configured")
	}
	from, to, ok := SearchWindow(name, year)
	if !ok {
		return Break{}, domain.ErrBreakNotFound.Detail("unknown break %q", name)
	}

	var (
		best     Break
		bestLen  int
		found    bool
		lastDay  calendar.Date
		haveLast bool
		runLen   int
		weekdays int
	)
	// A run closed by a school day always beats one still open at the end
	// of the window.
	consider := func(resume calendar.Date, hasResume bool) {
		if !haveLast || weekdays < minBreakWeekdays {
			return
		}
		if found && best.HasResume && !hasResume {
			return
		}
		if found && best.HasResume == hasResume && runLen <= bestLen {
			return
		}
		best = Break{Name: name, LastSchoolDay: lastDay, Resume: resume, HasResume: hasResume}
		bestLen = runLen
		found = true
	}

	for d := from; !d.After(to); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return Break{}, err
		}
		ds, err := p.ScheduleForDate(ctx, d)
		if err != nil {
			return Break{}, domain.WrapEngineError(domain.ErrMissingSchoolData.Code, "school schedule lookup", err)
		}
		if ds.IsSchoolDay {
			if runLen > 0 {
				consider(d, true)
			}
			lastDay, haveLast = d, true
			runLen, weekdays = 0, 0
			continue
		}
		runLen++
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			weekdays++
		}
	}
	if runLen > 0 {
		consider(calendar.Date{}, false)
	}

	if !found {
		return Break{}, domain.ErrBreakNotFound.Detail("%s break %d", name, year)
	}
	return best, nil
}
