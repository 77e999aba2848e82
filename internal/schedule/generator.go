// Package schedule expands custody rules into concrete custody intervals
// over a query window.
package schedule

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/school"
)

// Generator expands one rule at a time. It holds no mutable state and is
// safe for concurrent use.
type Generator struct {
	Zone    *time.Location
	School  school.Provider
	Anchors calendar.Anchors
	Log     logrus.FieldLogger
}

// New returns a Generator for zone with the default named anchors.
func New(zone *time.Location, provider school.Provider, log logrus.FieldLogger) *Generator {
	if log == nil {
		log = DiscardLogger()
	}
	return &Generator{
		Zone:    zone,
		School:  provider,
		Anchors: calendar.DefaultAnchors(),
		Log:     log,
	}
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (g *Generator) zone() *time.Location {
	if g.Zone != nil {
		return g.Zone
	}
	if loc, err := calendar.LoadZone(""); err == nil {
		return loc
	}
	return time.UTC
}

func (g *Generator) anchors() calendar.Anchors {
	if g.Anchors != nil {
		return g.Anchors
	}
	return calendar.DefaultAnchors()
}

// Generate returns the events of rule intersecting the inclusive civil
// window [ws, we], ordered by start. Problems with the rule's data are
// returned as diagnostics; they never abort generation of other rules.
func (g *Generator) Generate(ctx context.Context, rule catalog.CustodyRule, ws, we calendar.Date) ([]domain.CustodyEvent, []domain.Diagnostic) {
	zone := g.zone()
	r := &run{
		g:       g,
		ctx:     ctx,
		zone:    zone,
		anchors: g.anchors(),
		rule:    rule,
		ws:      ws,
		we:      we,
		from:    ws.At(calendar.Midnight, zone),
		to:      we.AddDays(1).At(calendar.Midnight, zone),
		seen:    map[string]bool{},
	}
	if ws.After(we) {
		return nil, nil
	}
	if err := structural(rule); err != nil {
		r.diag(domain.DiagStructural, domain.SeverityHigh, "%v", err)
		return nil, r.diags
	}

	switch data := rule.Data.(type) {
	case *catalog.RegularSchedule:
		r.regular(data)
	case *catalog.SummerRotation:
		r.summer(data)
	case *catalog.Holiday:
		r.holiday(data)
	case *catalog.SpecialDay:
		r.special(data)
	}

	sort.SliceStable(r.events, func(i, j int) bool {
		a, b := r.events[i], r.events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
	g.log().WithFields(logrus.Fields{
		"rule":        rule.ID,
		"window":      ws.String() + ".." + we.String(),
		"events":      len(r.events),
		"diagnostics": len(r.diags),
	}).Debug("rule expanded")
	return r.events, r.diags
}

func (g *Generator) log() logrus.FieldLogger {
	if g.Log != nil {
		return g.Log
	}
	return DiscardLogger()
}

// structural rejects rules whose shape cannot produce intervals at all.
func structural(rule catalog.CustodyRule) error {
	if rule.Data == nil {
		return domain.ErrStructural.Detail("rule %s has no data", rule.ID)
	}
	if rule.Data.Kind() != rule.Type {
		return domain.ErrRuleDataMismatch.Detail("rule %s is %s but carries %s data", rule.ID, rule.Type, rule.Data.Kind())
	}
	switch d := rule.Data.(type) {
	case *catalog.RegularSchedule:
		for _, p := range d.WeekdayPeriods {
			if !p.ParentOr(rule.Action.Parent).Valid() {
				return domain.ErrInvalidParent.Detail("rule %s %s period", rule.ID, p.Weekday)
			}
		}
		for _, p := range d.WeekendPeriods {
			if !p.ParentOr(rule.Action.Parent).Valid() {
				return domain.ErrInvalidParent.Detail("rule %s weekend period", rule.ID)
			}
			switch p.Frequency {
			case catalog.FrequencyEvery:
			case catalog.FrequencyAlternating:
				if p.Reference.IsZero() {
					return domain.ErrStructural.Detail("rule %s alternating weekend has no reference date", rule.ID)
				}
			case catalog.FrequencyOrdinal:
				if len(p.Ordinals) == 0 {
					return domain.ErrStructural.Detail("rule %s ordinal weekend lists no ordinals", rule.ID)
				}
			default:
				return domain.ErrStructural.Detail("rule %s unknown weekend frequency %q", rule.ID, p.Frequency)
			}
		}
	case *catalog.SummerRotation:
		if d.Start.IsZero() || d.DurationWeeks < 1 {
			return domain.ErrStructural.Detail("rule %s summer rotation needs a start and a duration", rule.ID)
		}
	case *catalog.Holiday:
		if len(d.Segments) > 0 {
			for _, s := range d.Segments {
				if !s.Parent.Valid() {
					return domain.ErrInvalidParent.Detail("rule %s segment starting %s", rule.ID, s.StartDate)
				}
			}
			return nil
		}
		if d.When.IsZero() {
			return domain.ErrStructural.Detail("rule %s holiday has no date determination", rule.ID)
		}
		if d.Split != nil {
			if !d.Split.FirstHalfEven.Valid() || !d.Split.FirstHalfOdd.Valid() {
				return domain.ErrInvalidParent.Detail("rule %s split halves", rule.ID)
			}
			if d.Split.At == nil && !d.Split.Midpoint {
				return domain.ErrStructural.Detail("rule %s split has no split point", rule.ID)
			}
			return nil
		}
		if !rule.Action.Parent.Valid() {
			return domain.ErrInvalidParent.Detail("rule %s action", rule.ID)
		}
	case *catalog.SpecialDay:
		if d.When.IsZero() {
			return domain.ErrStructural.Detail("rule %s special day has no date determination", rule.ID)
		}
		if !rule.Action.Parent.Valid() {
			return domain.ErrInvalidParent.Detail("rule %s action", rule.ID)
		}
	}
	return nil
}

// run is the per-call state of one Generate invocation.
type run struct {
	g       *Generator
	ctx     context.Context
	zone    *time.Location
	anchors calendar.Anchors
	rule    catalog.CustodyRule
	ws, we  calendar.Date
	from    time.Time
	to      time.Time

	events []domain.CustodyEvent
	diags  []domain.Diagnostic
	seen   map[string]bool
}

func (r *run) cancelled() bool {
	return r.ctx.Err() != nil
}

// diag records a diagnostic once per distinct code and message.
func (r *run) diag(code string, sev domain.Severity, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	key := code + "\x00" + msg
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.diags = append(r.diags, domain.Diagnostic{Code: code, Severity: sev, RuleID: r.rule.ID, Message: msg})
}

// admits reports whether an occurrence starting on d passes the rule's
// effective range and year parity.
func (r *run) admits(d calendar.Date) bool {
	return r.rule.AppliesIn(d.Year) && r.rule.Effective(d)
}

// emit finalizes ev and keeps it when it intersects the window. Year
// parity is checked again against the start instant, which a day offset
// can push into the neighbouring year.
func (r *run) emit(occKey, part string, ev domain.CustodyEvent) {
	if !ev.Start.Before(ev.End) {
		r.diag(domain.DiagEmptyInterval, domain.SeverityHigh,
			"%s: end %s is not after start %s", ev.Title, ev.End.Format(time.RFC3339), ev.Start.Format(time.RFC3339))
		return
	}
	if !ev.Start.Before(r.to) || !ev.End.After(r.from) {
		return
	}
	if y := calendar.DateOf(ev.Start, r.zone).Year; !r.rule.AppliesIn(y) {
		r.diag(domain.DiagParityShift, domain.SeverityLow,
			"%s: start %s falls in an %s year", ev.Title, ev.Start.Format(time.RFC3339), domain.ParityOf(y))
		return
	}
	ev.OccurrenceID = OccurrenceID(r.rule.ID, occKey)
	ev.ID = EventID(r.rule.ID, occKey, part)
	ev.Priority = r.rule.Priority
	ev.SourceRuleID = r.rule.ID
	if ev.Description == "" {
		ev.Description = describe(r.rule)
	}
	r.events = append(r.events, ev)
}

func describe(rule catalog.CustodyRule) string {
	desc := rule.Name
	if rule.Source.Section != "" {
		desc += " (order section " + rule.Source.Section + ")"
	}
	return desc
}

// instant resolves a TimeSpec against base in the engine zone.
func (r *run) instant(base calendar.Date, ts catalog.TimeSpec) time.Time {
	d := base.AddDays(ts.DayOffset)
	if ts.Marker == "" {
		return d.At(ts.At, r.zone)
	}
	if !ts.Marker.Known() {
		r.diag(domain.DiagStructural, domain.SeverityMedium, "unknown time marker %q, using %s", ts.Marker, ts.Fallback)
		return d.At(ts.Fallback, r.zone)
	}
	ds, ok := r.schoolDay(d)
	if !ok || !ds.IsSchoolDay {
		return d.At(ts.Fallback, r.zone)
	}
	if ts.Marker == catalog.MarkerSchoolPickup {
		return d.At(ds.DismissalTime, r.zone)
	}
	return d.At(ds.DropoffTime, r.zone)
}

// schoolDay asks the provider about d. ok is false when no answer is
// available; a diagnostic is recorded in that case.
func (r *run) schoolDay(d calendar.Date) (school.DaySchedule, bool) {
	if r.g.School == nil {
		r.diag(domain.DiagMissingSchool, domain.SeverityWarning, "no school calendar configured, using literal fallback times")
		return school.DaySchedule{}, false
	}
	ds, err := r.g.School.ScheduleForDate(r.ctx, d)
	if err != nil {
		r.diag(domain.DiagMissingSchool, domain.SeverityWarning, "school schedule unavailable (%v), using literal fallback times", err)
		return school.DaySchedule{}, false
	}
	return ds, true
}
