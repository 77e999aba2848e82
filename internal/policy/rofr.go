// Package policy evaluates the non-scheduling provisions of a custody
// order: right of first refusal, travel notice and childcare.
package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// Absence is a period in which a parent cannot care for the children.
type Absence struct {
	Parent domain.Parent `json:"parent" validate:"required,oneof=mother father"`
	Start  time.Time     `json:"start" validate:"required"`
	End    time.Time     `json:"end" validate:"required,gtfield=Start"`
}

// RefusalDecision says whether the other parent must be offered the time.
type RefusalDecision struct {
	Required bool `json:"required"`
	// Overnights and Hours measure the absence inside the absent parent's
	// own custodial time.
	Overnights int           `json:"overnights"`
	Hours      float64       `json:"hours"`
	OfferTo    domain.Parent `json:"offer_to,omitempty"`
	OfferBy    time.Time     `json:"offer_by,omitempty"`
	RespondBy  time.Time     `json:"respond_by,omitempty"`
	Reason     string        `json:"reason"`
}

// RightOfFirstRefusal checks an absence against the resolved schedule.
// Only the parts of the absence in the absent parent's custody count
// towards the threshold. Time no event covers belongs to defaultParent,
// matching GetCustodyForInstant; an empty defaultParent leaves it
// unassigned. An overnight is a local midnight inside such a part.
func RightOfFirstRefusal(rule *catalog.RightOfFirstRefusal, events []domain.CustodyEvent, a Absence, defaultParent domain.Parent, zone *time.Location) (RefusalDecision, error) {
	if rule == nil || rule.Threshold == nil {
		return RefusalDecision{}, domain.ErrStructural.Detail("right of first refusal has no threshold")
	}
	if !a.Parent.Valid() {
		return RefusalDecision{}, domain.ErrInvalidParent.Detail("absence parent %q", a.Parent)
	}
	if defaultParent != "" && !defaultParent.Valid() {
		return RefusalDecision{}, domain.ErrInvalidParent.Detail("default parent %q", defaultParent)
	}
	if !a.Start.Before(a.End) {
		return RefusalDecision{}, domain.ErrEmptyInterval.Detail("absence %s to %s", a.Start, a.End)
	}

	var (
		custodial  time.Duration
		overnights int
	)
	for _, sp := range custodialSpans(events, a.Start, a.End, a.Parent, defaultParent) {
		custodial += sp.to.Sub(sp.from)
		overnights += midnightsWithin(sp.from, sp.to, zone)
	}

	d := RefusalDecision{Overnights: overnights, Hours: custodial.Hours()}
	switch rule.Threshold.Unit {
	case catalog.UnitHours:
		d.Required = d.Hours > float64(rule.Threshold.Duration)
		d.Reason = fmt.Sprintf("%.1f custodial hours against a threshold of %d", d.Hours, rule.Threshold.Duration)
	default:
		d.Required = overnights > rule.Threshold.Duration
		d.Reason = fmt.Sprintf("%d custodial overnights against a threshold of %d", overnights, rule.Threshold.Duration)
	}
	if d.Required {
		d.OfferTo = a.Parent.Other()
		d.OfferBy = a.Start.Add(-time.Duration(rule.NotificationHours) * time.Hour)
		d.RespondBy = d.OfferBy.Add(time.Duration(rule.ResponseHours) * time.Hour)
	}
	return d, nil
}

type span struct{ from, to time.Time }

// custodialSpans returns the parts of [from, to) in parent's custody, in
// order. Gaps between events go to fallback. Touching parts are merged so
// a midnight exchange between two of them is still an overnight.
func custodialSpans(events []domain.CustodyEvent, from, to time.Time, parent, fallback domain.Parent) []span {
	sorted := make([]domain.CustodyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var out []span
	add := func(p domain.Parent, s, e time.Time) {
		if p == "" || p != parent || !s.Before(e) {
			return
		}
		if n := len(out); n > 0 && out[n-1].to.Equal(s) {
			out[n-1].to = e
			return
		}
		out = append(out, span{s, e})
	}

	cursor := from
	for _, ev := range sorted {
		if !ev.End.After(cursor) || !ev.Start.Before(to) {
			continue
		}
		s, e := maxTime(ev.Start, cursor), minTime(ev.End, to)
		add(fallback, cursor, s)
		add(ev.Parent, s, e)
		cursor = e
	}
	add(fallback, cursor, to)
	return out
}

// midnightsWithin counts local midnights m with from < m < to.
func midnightsWithin(from, to time.Time, zone *time.Location) int {
	n := 0
	for d := calendar.DateOf(from, zone).AddDays(1); ; d = d.AddDays(1) {
		m := d.At(calendar.Midnight, zone)
		if !m.Before(to) {
			return n
		}
		n++
	}
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
