// Package catalog holds the declarative representation of a custody order:
// rules, their date determinations, time specifications and actions.
package catalog

import (
	"sort"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// Marker is a symbolic time of day resolved through the school calendar.
type Marker string

const (
	MarkerSchoolPickup  Marker = "school_pickup"
	MarkerSchoolDropoff Marker = "school_dropoff"
)

// Known reports whether the marker is one the generator can resolve.
func (m Marker) Known() bool {
	return m == MarkerSchoolPickup || m == MarkerSchoolDropoff
}

// TimeSpec is a civil time of day on a base date shifted by DayOffset days.
// With a Marker set, At is ignored and Fallback is used when the school
// calendar has no bell time for that day.
type TimeSpec struct {
	DayOffset int            `yaml:"day_offset,omitempty" json:"day_offset,omitempty"`
	At        calendar.Clock `yaml:"at,omitempty" json:"at"`
	Marker    Marker         `yaml:"marker,omitempty" json:"marker,omitempty"`
	Fallback  calendar.Clock `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// At is a literal TimeSpec.
func At(dayOffset int, c calendar.Clock) TimeSpec {
	return TimeSpec{DayOffset: dayOffset, At: c}
}

// Pickup is a school_pickup TimeSpec with a literal fallback.
func Pickup(dayOffset int, fallback calendar.Clock) TimeSpec {
	return TimeSpec{DayOffset: dayOffset, Marker: MarkerSchoolPickup, Fallback: fallback}
}

// Dropoff is a school_dropoff TimeSpec with a literal fallback.
func Dropoff(dayOffset int, fallback calendar.Clock) TimeSpec {
	return TimeSpec{DayOffset: dayOffset, Marker: MarkerSchoolDropoff, Fallback: fallback}
}

// Action assigns custody for an occurrence.
type Action struct {
	Parent domain.Parent `yaml:"parent" json:"parent"`
	Start  TimeSpec      `yaml:"start" json:"start"`
	End    TimeSpec      `yaml:"end" json:"end"`
}

// SplitSpec divides an occurrence into two touching halves. The first-half
// parent depends on the parity of the occurrence's start year. The split
// point is either At (relative to the occurrence start date) or the break
// midpoint at MidpointClock.
type SplitSpec struct {
	FirstHalfEven domain.Parent  `yaml:"first_half_even" json:"first_half_even"`
	FirstHalfOdd  domain.Parent  `yaml:"first_half_odd" json:"first_half_odd"`
	At            *TimeSpec      `yaml:"at,omitempty" json:"at,omitempty"`
	Midpoint      bool           `yaml:"midpoint,omitempty" json:"midpoint,omitempty"`
	MidpointClock calendar.Clock `yaml:"midpoint_clock,omitempty" json:"midpoint_clock,omitempty"`
}

// FirstHalf returns the first-half parent for a start year.
func (s SplitSpec) FirstHalf(year int) domain.Parent {
	if year%2 == 0 {
		return s.FirstHalfEven
	}
	return s.FirstHalfOdd
}

// Segment is one explicit interval of a specific-year override.
type Segment struct {
	Parent    domain.Parent `yaml:"parent" json:"parent"`
	StartDate calendar.Date `yaml:"start_date" json:"start_date"`
	Start     TimeSpec      `yaml:"start" json:"start"`
	EndDate   calendar.Date `yaml:"end_date" json:"end_date"`
	End       TimeSpec      `yaml:"end" json:"end"`
}

// Source cites where in the court order a rule comes from.
type Source struct {
	Document string `yaml:"document,omitempty" json:"document,omitempty"`
	Page     int    `yaml:"page,omitempty" json:"page,omitempty"`
	Section  string `yaml:"section,omitempty" json:"section,omitempty"`
	Text     string `yaml:"text,omitempty" json:"text,omitempty"`
}

// CustodyRule is one immutable rule of a custody order.
type CustodyRule struct {
	ID             string              `yaml:"id" json:"id"`
	Name           string              `yaml:"name" json:"name"`
	Category       domain.RuleCategory `yaml:"category" json:"category"`
	Type           domain.RuleType     `yaml:"type" json:"type"`
	Priority       domain.Priority     `yaml:"priority" json:"priority"`
	YearParity     domain.YearParity   `yaml:"year_parity,omitempty" json:"year_parity,omitempty"`
	Data           RuleData            `yaml:"-" json:"data"`
	Action         Action              `yaml:"action" json:"action"`
	EffectiveFrom  calendar.Date       `yaml:"effective_from" json:"effective_from"`
	EffectiveUntil *calendar.Date      `yaml:"effective_until,omitempty" json:"effective_until,omitempty"`
	Source         Source              `yaml:"source,omitempty" json:"source,omitempty"`
}

// Effective reports whether d lies in the rule's effective range.
func (r CustodyRule) Effective(d calendar.Date) bool {
	return calendar.InRange(d, r.EffectiveFrom, r.EffectiveUntil)
}

// AppliesIn reports whether the rule's year parity admits year.
func (r CustodyRule) AppliesIn(year int) bool {
	return r.YearParity.Matches(year)
}

// Parents lists the parents a rule can assign, in a stable order.
func (r CustodyRule) Parents() []domain.Parent {
	seen := map[domain.Parent]bool{}
	add := func(p domain.Parent) {
		if p != "" {
			seen[p] = true
		}
	}
	add(r.Action.Parent)
	switch d := r.Data.(type) {
	case *RegularSchedule:
		for _, p := range d.WeekdayPeriods {
			add(p.ParentOr(r.Action.Parent))
		}
		for _, p := range d.WeekendPeriods {
			parent := p.ParentOr(r.Action.Parent)
			add(parent)
			if p.Frequency != FrequencyEvery {
				add(parent.Other())
			}
		}
	case *SummerRotation:
		if len(d.MotherWeeks) > 0 {
			add(domain.Mother)
		}
		if len(d.FatherWeeks) > 0 {
			add(domain.Father)
		}
	case *Holiday:
		if d.Split != nil {
			add(d.Split.FirstHalfEven)
			add(d.Split.FirstHalfOdd)
			add(d.Split.FirstHalfEven.Other())
		}
		for _, s := range d.Segments {
			add(s.Parent)
		}
	}
	out := make([]domain.Parent, 0, len(seen))
	for _, p := range []domain.Parent{domain.Father, domain.Mother} {
		if seen[p] {
			out = append(out, p)
		}
	}
	return out
}

// RuleSet is a versioned collection of rules.
type RuleSet struct {
	Version string        `yaml:"version" json:"version"`
	Rules   []CustodyRule `yaml:"rules" json:"rules"`
}

// ByID returns the rule with the given id.
func (s RuleSet) ByID(id string) (CustodyRule, bool) {
	for _, r := range s.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return CustodyRule{}, false
}

// Sorted returns the rules ordered by precedence: priority, then
// effective_from, then id.
func (s RuleSet) Sorted() []CustodyRule {
	out := make([]CustodyRule, len(s.Rules))
	copy(out, s.Rules)
	SortByPrecedence(out)
	return out
}

// SortByPrecedence orders rules by priority, effective_from and id.
func SortByPrecedence(rules []CustodyRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority.Precedes(b.Priority)
		}
		if c := a.EffectiveFrom.Compare(b.EffectiveFrom); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// CustodyRules returns the rules that generate custody intervals.
func (s RuleSet) CustodyRules() []CustodyRule {
	var out []CustodyRule
	for _, r := range s.Rules {
		if r.Type.AssignsCustody() {
			out = append(out, r)
		}
	}
	return out
}
