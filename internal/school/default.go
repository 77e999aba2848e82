package school

import (
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
)

func days(year int, month time.Month, first, last int, note string) []DatedNote {
	var out []DatedNote
	for d := first; d <= last; d++ {
		out = append(out, DatedNote{Date: calendar.D(year, month, d), Note: note})
	}
	return out
}

func one(year int, month time.Month, day int, note string) []DatedNote {
	return days(year, month, day, day, note)
}

// DefaultTable returns the 2025-26 OUSD calendar for Thornhill Elementary.
// Bell times use the later dismissal and earlier dropoff of the two grades.
func DefaultTable() *Table {
	var noSchool []DatedNote
	for _, group := range [][]DatedNote{
		one(2025, time.September, 1, "Labor Day"),
		one(2025, time.September, 19, "PD Day"),
		one(2025, time.October, 13, "Indigenous Peoples' Day"),
		one(2025, time.November, 11, "Veterans Day"),
		days(2025, time.November, 24, 28, "Thanksgiving Break"),
		days(2025, time.December, 22, 31, "Winter Break"),
		days(2026, time.January, 1, 2, "Winter Break"),
		one(2026, time.January, 5, "PD Day"),
		one(2026, time.January, 19, "MLK Day"),
		one(2026, time.February, 16, "Presidents' Day"),
		one(2026, time.April, 3, "Cesar Chavez Day"),
		days(2026, time.April, 6, 10, "Spring Break"),
		one(2026, time.May, 25, "Memorial Day"),
	} {
		noSchool = append(noSchool, group...)
	}

	wed := calendar.Weekday(time.Wednesday)
	t := &Table{
		Name:    "Thornhill Elementary School",
		Address: "5880 Thornhill Drive, Oakland CA 94611",
		Terms: []Term{{
			FirstDay: calendar.D(2025, time.August, 11),
			LastDay:  calendar.D(2026, time.May, 28),
		}},
		NoSchool: noSchool,
		MinimumDays: []calendar.Date{
			calendar.D(2025, time.November, 10), calendar.D(2025, time.November, 13), calendar.D(2025, time.November, 14),
			calendar.D(2025, time.December, 11), calendar.D(2025, time.December, 15), calendar.D(2025, time.December, 16),
			calendar.D(2025, time.December, 18), calendar.D(2025, time.December, 19),
			calendar.D(2026, time.March, 9), calendar.D(2026, time.March, 10), calendar.D(2026, time.March, 13),
			calendar.D(2026, time.May, 28),
		},
		MinimumWeekday: &wed,
		Regular:        BellTimes{Dropoff: calendar.Clock{Hour: 8, Minute: 20}, Dismissal: calendar.Clock{Hour: 14, Minute: 50}},
		Minimum:        BellTimes{Dropoff: calendar.Clock{Hour: 8, Minute: 20}, Dismissal: calendar.Clock{Hour: 13, Minute: 25}},
	}
	t.index()
	return t
}
