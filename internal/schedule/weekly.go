package schedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// lookback covers weekly periods that start before the window and run
// into it.
const lookback = 7

func (r *run) regular(data *catalog.RegularSchedule) {
	for d := r.ws.AddDays(-lookback); !d.After(r.we); d = d.AddDays(1) {
		if r.cancelled() {
			return
		}
		if !r.admits(d) {
			continue
		}
		for i, p := range data.WeekdayPeriods {
			if d.Weekday() != p.Weekday.Std() {
				continue
			}
			title := p.Title
			if title == "" {
				title = r.rule.Name
			}
			r.emit("wd"+strconv.Itoa(i)+"-"+d.String(), "whole", domain.CustodyEvent{
				Start:       r.instant(d, p.Start),
				End:         r.instant(d, p.End),
				Parent:      p.ParentOr(r.rule.Action.Parent),
				CustodyType: domain.CustodyRegular,
				Title:       title,
			})
		}
		for i, p := range data.WeekendPeriods {
			if d.Weekday() != p.StartDay.Std() {
				continue
			}
			parent := weekendParent(p, p.ParentOr(r.rule.Action.Parent), d)
			end := p.End
			if data.MondayHolidayExtension {
				end = r.extendOverMonday(d, end)
			}
			r.emit("we"+strconv.Itoa(i)+"-"+d.String(), "whole", domain.CustodyEvent{
				Start:       r.instant(d, p.Start),
				End:         r.instant(d, end),
				Parent:      parent,
				CustodyType: domain.CustodyWeekend,
				Title:       possessive(parent) + " Weekend",
			})
		}
	}
}

// weekendParent picks who has the weekend starting on d.
func weekendParent(p catalog.WeekendPeriod, parent domain.Parent, d calendar.Date) domain.Parent {
	switch p.Frequency {
	case catalog.FrequencyAlternating:
		if idx := calendar.WeekIndex(p.Reference, d); (idx%2+2)%2 != 0 {
			return parent.Other()
		}
	case catalog.FrequencyOrdinal:
		n := (d.Day-1)/7 + 1
		for _, o := range p.Ordinals {
			if o == n {
				return parent
			}
		}
		return parent.Other()
	}
	return parent
}

// extendOverMonday pushes a Monday end to Tuesday when Monday has no school.
func (r *run) extendOverMonday(start calendar.Date, end catalog.TimeSpec) catalog.TimeSpec {
	day := start.AddDays(end.DayOffset)
	if day.Weekday() != time.Monday {
		return end
	}
	ds, ok := r.schoolDay(day)
	if !ok || ds.IsSchoolDay {
		return end
	}
	end.DayOffset++
	return end
}

func possessive(p domain.Parent) string {
	switch p {
	case domain.Mother:
		return "Mother's"
	case domain.Father:
		return "Father's"
	}
	return string(p) + "'s"
}

func (r *run) summer(data *catalog.SummerRotation) {
	reach := 7*data.DurationWeeks + lookback
	for year := r.ws.Year - 1; year <= r.we.Year; year++ {
		if r.cancelled() {
			return
		}
		start, _, ok := r.span(data.Start, year, reach)
		if !ok {
			continue
		}
		if data.AlignWeekday != nil {
			for start.Weekday() != data.AlignWeekday.Std() {
				start = start.AddDays(1)
			}
		}
		for week := 1; week <= data.DurationWeeks; week++ {
			weekStart := start.AddDays(7 * (week - 1))
			if !r.admits(weekStart) {
				continue
			}
			parent, ok := data.ParentForWeek(week)
			if !ok {
				r.diag(domain.DiagStructural, domain.SeverityMedium, "summer week %d of %d is assigned to neither parent", week, year)
				continue
			}
			r.emit("summer-"+start.String()+"-w"+strconv.Itoa(week), "whole", domain.CustodyEvent{
				Start:       r.instant(weekStart, r.rule.Action.Start),
				End:         r.instant(weekStart.AddDays(7), r.rule.Action.Start),
				Parent:      parent,
				CustodyType: domain.CustodySummer,
				Title:       fmt.Sprintf("Summer Week %d", week),
			})
		}
	}
}
