package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// DateDetermination says how a rule's occurrence date is found in a given
// year. The set of implementations is closed.
type DateDetermination interface {
	determination()
	Describe() string
}

// FixedDate is the same month/day every year.
type FixedDate struct {
	Month time.Month `yaml:"month" json:"month"`
	Day   int        `yaml:"day" json:"day"`
}

// RelativeDate is a named anchor shifted by a number of days.
type RelativeDate struct {
	Anchor     string `yaml:"anchor" json:"anchor"`
	OffsetDays int    `yaml:"offset_days,omitempty" json:"offset_days,omitempty"`
}

// NthWeekday is the n-th weekday of a month.
type NthWeekday struct {
	Month   time.Month       `yaml:"month" json:"month"`
	Weekday calendar.Weekday `yaml:"weekday" json:"weekday"`
	N       int              `yaml:"n" json:"n"`
}

// LastWeekday is the final weekday of a month.
type LastWeekday struct {
	Month   time.Month       `yaml:"month" json:"month"`
	Weekday calendar.Weekday `yaml:"weekday" json:"weekday"`
}

// ExplicitRange is a one-off civil date range.
type ExplicitRange struct {
	Start calendar.Date `yaml:"start" json:"start"`
	End   calendar.Date `yaml:"end" json:"end"`
}

// BreakAnchor selects which part of a school break a floating range uses.
type BreakAnchor string

const (
	BreakWhole         BreakAnchor = ""
	BreakLastDayBefore BreakAnchor = "last_day_before_break"
	BreakFirstDayAfter BreakAnchor = "first_day_after_break"
)

// FloatingSchoolRange is a school break located through the school calendar.
// With BreakWhole the occurrence runs from the last school day before the
// break to the day school resumes.
type FloatingSchoolRange struct {
	Break  string      `yaml:"break" json:"break"`
	Anchor BreakAnchor `yaml:"anchor,omitempty" json:"anchor,omitempty"`
}

func (FixedDate) determination()           {}
func (RelativeDate) determination()        {}
func (NthWeekday) determination()          {}
func (LastWeekday) determination()         {}
func (ExplicitRange) determination()       {}
func (FloatingSchoolRange) determination() {}

func (d FixedDate) Describe() string { return fmt.Sprintf("%s %d", d.Month, d.Day) }

func (d RelativeDate) Describe() string {
	if d.OffsetDays == 0 {
		return d.Anchor
	}
	return fmt.Sprintf("%s %+d days", d.Anchor, d.OffsetDays)
}

func (d NthWeekday) Describe() string {
	return fmt.Sprintf("%s #%d of %s", d.Weekday, d.N, d.Month)
}

func (d LastWeekday) Describe() string {
	return fmt.Sprintf("last %s of %s", d.Weekday, d.Month)
}

func (d ExplicitRange) Describe() string { return d.Start.String() + ".." + d.End.String() }

func (d FloatingSchoolRange) Describe() string {
	if d.Anchor == BreakWhole {
		return d.Break + " break"
	}
	return fmt.Sprintf("%s break (%s)", d.Break, d.Anchor)
}

// ResolveDate returns the single occurrence date of d in year. Ranges and
// school breaks are not single dates and return ErrStructural.
func ResolveDate(d DateDetermination, anchors calendar.Anchors, year int) (calendar.Date, error) {
	switch v := d.(type) {
	case FixedDate:
		return calendar.FixedDate(year, v.Month, v.Day)
	case RelativeDate:
		return calendar.RelativeDate(anchors, v.Anchor, year, v.OffsetDays)
	case NthWeekday:
		return calendar.NthWeekdayOfMonth(year, v.Month, v.Weekday.Std(), v.N)
	case LastWeekday:
		return calendar.LastWeekdayOfMonth(year, v.Month, v.Weekday.Std())
	case ExplicitRange, FloatingSchoolRange:
		return calendar.Date{}, domain.ErrStructural.Detail("%s is not a single date", d.Describe())
	case nil:
		return calendar.Date{}, domain.ErrStructural.Detail("missing date determination")
	default:
		return calendar.Date{}, domain.ErrStructural.Detail("unsupported date determination %T", d)
	}
}

// When holds one DateDetermination and gives it a tagged YAML/JSON form:
//
//	when:
//	  nth_weekday: {month: 5, weekday: sunday, n: 2}
type When struct {
	DateDetermination
}

// On wraps a determination.
func On(d DateDetermination) When { return When{DateDetermination: d} }

// IsZero reports whether no determination is set.
func (w When) IsZero() bool { return w.DateDetermination == nil }

type whenDoc struct {
	Fixed       *FixedDate           `yaml:"fixed,omitempty" json:"fixed,omitempty"`
	Relative    *RelativeDate        `yaml:"relative,omitempty" json:"relative,omitempty"`
	NthWeekday  *NthWeekday          `yaml:"nth_weekday,omitempty" json:"nth_weekday,omitempty"`
	LastWeekday *LastWeekday         `yaml:"last_weekday,omitempty" json:"last_weekday,omitempty"`
	Range       *ExplicitRange       `yaml:"range,omitempty" json:"range,omitempty"`
	SchoolBreak *FloatingSchoolRange `yaml:"school_break,omitempty" json:"school_break,omitempty"`
}

func (doc whenDoc) determination() (DateDetermination, error) {
	var found []DateDetermination
	if doc.Fixed != nil {
		found = append(found, *doc.Fixed)
	}
	if doc.Relative != nil {
		found = append(found, *doc.Relative)
	}
	if doc.NthWeekday != nil {
		found = append(found, *doc.NthWeekday)
	}
	if doc.LastWeekday != nil {
		found = append(found, *doc.LastWeekday)
	}
	if doc.Range != nil {
		found = append(found, *doc.Range)
	}
	if doc.SchoolBreak != nil {
		found = append(found, *doc.SchoolBreak)
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, domain.ErrStructural.Detail("date determination sets %d variants", len(found))
	}
}

func (w When) doc() whenDoc {
	var doc whenDoc
	switch v := w.DateDetermination.(type) {
	case FixedDate:
		doc.Fixed = &v
	case RelativeDate:
		doc.Relative = &v
	case NthWeekday:
		doc.NthWeekday = &v
	case LastWeekday:
		doc.LastWeekday = &v
	case ExplicitRange:
		doc.Range = &v
	case FloatingSchoolRange:
		doc.SchoolBreak = &v
	}
	return doc
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *When) UnmarshalYAML(node *yaml.Node) error {
	var doc whenDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	d, err := doc.determination()
	if err != nil {
		return err
	}
	w.DateDetermination = d
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (w When) MarshalYAML() (any, error) {
	return w.doc(), nil
}

// MarshalJSON implements json.Marshaler.
func (w When) MarshalJSON() ([]byte, error) {
	if w.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(w.doc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *When) UnmarshalJSON(b []byte) error {
	var doc whenDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	d, err := doc.determination()
	if err != nil {
		return err
	}
	w.DateDetermination = d
	return nil
}
