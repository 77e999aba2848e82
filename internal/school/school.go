// Package school answers bell-time and no-school questions for the custody
// engine. It is a read-only lookup; a day absent from the table is not a
// school day.
package school

import (
	"bytes"
	"context"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// DaySchedule is the provider's answer for one civil date.
type DaySchedule struct {
	Date          calendar.Date  `json:"date"`
	IsSchoolDay   bool           `json:"is_school_day"`
	IsMinimumDay  bool           `json:"is_minimum_day"`
	DismissalTime calendar.Clock `json:"dismissal_time"`
	DropoffTime   calendar.Clock `json:"dropoff_time"`
	Note          string         `json:"note,omitempty"`
}

// Provider looks up the school schedule of a date.
type Provider interface {
	ScheduleForDate(ctx context.Context, d calendar.Date) (DaySchedule, error)
}

// BellTimes are the dropoff and dismissal times of one kind of day.
type BellTimes struct {
	Dropoff   calendar.Clock `yaml:"dropoff"`
	Dismissal calendar.Clock `yaml:"dismissal"`
}

// Term is a span of the school year in which weekdays are school days
// unless listed as no-school days.
type Term struct {
	FirstDay calendar.Date `yaml:"first_day"`
	LastDay  calendar.Date `yaml:"last_day"`
}

// DatedNote is a date with an optional note.
type DatedNote struct {
	Date calendar.Date `yaml:"date"`
	Note string        `yaml:"note,omitempty"`
}

// Table is a static school calendar.
type Table struct {
	Name           string            `yaml:"name"`
	Address        string            `yaml:"address,omitempty"`
	Terms          []Term            `yaml:"terms"`
	NoSchool       []DatedNote       `yaml:"no_school"`
	MinimumDays    []calendar.Date   `yaml:"minimum_days"`
	MinimumWeekday *calendar.Weekday `yaml:"minimum_weekday,omitempty"`
	Regular        BellTimes         `yaml:"regular"`
	Minimum        BellTimes         `yaml:"minimum"`

	noSchool map[calendar.Date]string
	minimum  map[calendar.Date]bool
}

// index builds the lookup maps. It is called once by the constructors.
func (t *Table) index() {
	t.noSchool = make(map[calendar.Date]string, len(t.NoSchool))
	for _, n := range t.NoSchool {
		t.noSchool[n.Date] = n.Note
	}
	t.minimum = make(map[calendar.Date]bool, len(t.MinimumDays))
	for _, d := range t.MinimumDays {
		t.minimum[d] = true
	}
	sort.Slice(t.Terms, func(i, j int) bool { return t.Terms[i].FirstDay.Before(t.Terms[j].FirstDay) })
}

func (t *Table) inTerm(d calendar.Date) bool {
	for _, term := range t.Terms {
		last := term.LastDay
		if calendar.InRange(d, term.FirstDay, &last) {
			return true
		}
	}
	return false
}

// ScheduleForDate implements Provider. It never returns an error.
func (t *Table) ScheduleForDate(_ context.Context, d calendar.Date) (DaySchedule, error) {
	ds := DaySchedule{Date: d}
	if note, ok := t.noSchool[d]; ok {
		ds.Note = note
		return ds, nil
	}
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday || !t.inTerm(d) {
		return ds, nil
	}

	ds.IsSchoolDay = true
	ds.IsMinimumDay = t.minimum[d] || (t.MinimumWeekday != nil && t.MinimumWeekday.Std() == wd)
	bells := t.Regular
	if ds.IsMinimumDay {
		bells = t.Minimum
		ds.Note = "Minimum Day"
	}
	ds.DropoffTime = bells.Dropoff
	ds.DismissalTime = bells.Dismissal
	return ds, nil
}

// ParseTable reads a YAML school calendar.
func ParseTable(b []byte) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, domain.WrapEngineError(domain.ErrMissingSchoolData.Code, "parse school calendar", err)
	}
	if len(t.Terms) == 0 {
		return nil, domain.ErrMissingSchoolData.Detail("school calendar %q has no terms", t.Name)
	}
	t.index()
	return &t, nil
}

// LoadTable reads a YAML school calendar file.
func LoadTable(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapEngineError(domain.ErrMissingSchoolData.Code, "read school calendar", err)
	}
	return ParseTable(b)
}
