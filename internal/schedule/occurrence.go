package schedule

import (
	"errors"
	"strconv"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/school"
)

// span resolves the first and last civil dates of an occurrence in year.
// reach is how many days past its start the occurrence can extend; breaks
// that cannot touch the window are not searched.
func (r *run) span(w catalog.When, year, reach int) (first, last calendar.Date, ok bool) {
	switch v := w.DateDetermination.(type) {
	case catalog.ExplicitRange:
		if v.Start.Year != year {
			return calendar.Date{}, calendar.Date{}, false
		}
		return v.Start, v.End, true

	case catalog.FloatingSchoolRange:
		from, to, known := school.SearchWindow(v.Break, year)
		if !known {
			r.diag(domain.DiagStructural, domain.SeverityHigh, "unknown school break %q", v.Break)
			return calendar.Date{}, calendar.Date{}, false
		}
		if from.After(r.we) || to.AddDays(reach).Before(r.ws) {
			return calendar.Date{}, calendar.Date{}, false
		}
		b, err := school.FindBreak(r.ctx, r.g.School, v.Break, year)
		if err != nil {
			if errors.Is(err, domain.ErrBreakNotFound) {
				r.diag(domain.DiagBreakNotFound, domain.SeverityWarning, "%s break %d not found in school calendar", v.Break, year)
			} else {
				r.diag(domain.DiagMissingSchool, domain.SeverityWarning, "%s break %d: %v", v.Break, year, err)
			}
			return calendar.Date{}, calendar.Date{}, false
		}
		switch v.Anchor {
		case catalog.BreakLastDayBefore:
			return b.LastSchoolDay, b.LastSchoolDay, true
		case catalog.BreakFirstDayAfter, catalog.BreakWhole:
			if !b.HasResume {
				r.diag(domain.DiagBreakNotFound, domain.SeverityWarning, "%s break %d has no resume date in school calendar", v.Break, year)
				return calendar.Date{}, calendar.Date{}, false
			}
			if v.Anchor == catalog.BreakFirstDayAfter {
				return b.Resume, b.Resume, true
			}
			return b.LastSchoolDay, b.Resume, true
		}
		r.diag(domain.DiagStructural, domain.SeverityHigh, "unknown break anchor %q", v.Anchor)
		return calendar.Date{}, calendar.Date{}, false

	default:
		d, err := catalog.ResolveDate(w.DateDetermination, r.anchors, year)
		if err != nil {
			code := domain.DiagStructural
			if errors.Is(err, domain.ErrDateArithmetic) || errors.Is(err, domain.ErrUnknownAnchor) {
				code = domain.DiagDateArithmetic
			}
			r.diag(code, domain.SeverityMedium, "%v", err)
			return calendar.Date{}, calendar.Date{}, false
		}
		return d, d, true
	}
}

func (r *run) holiday(data *catalog.Holiday) {
	if len(data.Segments) > 0 {
		r.segments(data)
		return
	}
	for year := r.ws.Year - 1; year <= r.we.Year; year++ {
		if r.cancelled() {
			return
		}
		first, last, ok := r.span(data.When, year, lookback)
		if !ok || !r.admits(first) {
			continue
		}
		start := r.instant(first, r.rule.Action.Start)
		end := r.instant(last, r.rule.Action.End)
		key := "holiday-" + first.String()
		if data.Split == nil {
			r.emit(key, "whole", domain.CustodyEvent{
				Start:       start,
				End:         end,
				Parent:      r.rule.Action.Parent,
				CustodyType: domain.CustodyHoliday,
				Title:       data.Name,
			})
			continue
		}
		r.split(data, first, key, start, end)
	}
}

// split emits the two touching halves of one occurrence.
func (r *run) split(data *catalog.Holiday, first calendar.Date, key string, start, end time.Time) {
	var boundary time.Time
	if data.Split.At != nil {
		boundary = r.instant(first, *data.Split.At)
	} else {
		mid := start.Add(end.Sub(start) / 2)
		boundary = calendar.DateOf(mid, r.zone).At(data.Split.MidpointClock, r.zone)
	}
	if !start.Before(boundary) || !boundary.Before(end) {
		r.diag(domain.DiagStructural, domain.SeverityHigh,
			"%s %d: split point %s is outside the occurrence", data.Name, first.Year, boundary.Format(time.RFC3339))
		return
	}
	firstParent := data.Split.FirstHalf(first.Year)
	r.emit(key, "first", domain.CustodyEvent{
		Start:       start,
		End:         boundary,
		Parent:      firstParent,
		CustodyType: domain.CustodyHoliday,
		Title:       data.Name + " (first half)",
		Half:        domain.HalfFirst,
	})
	r.emit(key, "second", domain.CustodyEvent{
		Start:       boundary,
		End:         end,
		Parent:      firstParent.Other(),
		CustodyType: domain.CustodyHoliday,
		Title:       data.Name + " (second half)",
		Half:        domain.HalfSecond,
	})
}

// segments emits a specific-year override spelled out interval by interval.
func (r *run) segments(data *catalog.Holiday) {
	key := "segments-" + data.Segments[0].StartDate.String()
	for i, s := range data.Segments {
		if !r.admits(s.StartDate) {
			continue
		}
		r.emit(key, "segment-"+strconv.Itoa(i+1), domain.CustodyEvent{
			Start:       r.instant(s.StartDate, s.Start),
			End:         r.instant(s.EndDate, s.End),
			Parent:      s.Parent,
			CustodyType: domain.CustodyHoliday,
			Title:       data.Name + " (" + possessive(s.Parent) + " time)",
		})
	}
}

func (r *run) special(data *catalog.SpecialDay) {
	for year := r.ws.Year - 1; year <= r.we.Year; year++ {
		if r.cancelled() {
			return
		}
		first, last, ok := r.span(data.When, year, lookback)
		if !ok || !r.admits(first) {
			continue
		}
		title := r.rule.Name
		if title == "" {
			title = data.Occasion
		}
		r.emit("special-"+first.String(), "whole", domain.CustodyEvent{
			Start:       r.instant(first, r.rule.Action.Start),
			End:         r.instant(last, r.rule.Action.End),
			Parent:      r.rule.Action.Parent,
			CustodyType: domain.CustodySpecial,
			Title:       title,
		})
	}
}
