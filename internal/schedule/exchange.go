package schedule

import (
	"context"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// StampExchange sets each event's exchange location from protocol: the
// school when the event starts on a school day, the no-school location
// otherwise. Days the provider cannot answer for use the no-school location.
func (g *Generator) StampExchange(ctx context.Context, events []domain.CustodyEvent, protocol *catalog.ExchangeProtocol) {
	if protocol == nil {
		return
	}
	zone := g.zone()
	cache := map[calendar.Date]bool{}
	for i := range events {
		d := calendar.DateOf(events[i].Start, zone)
		isSchool, ok := cache[d]
		if !ok && g.School != nil {
			if ds, err := g.School.ScheduleForDate(ctx, d); err == nil {
				isSchool = ds.IsSchoolDay
			}
			cache[d] = isSchool
		}
		if isSchool && protocol.SchoolLocation != "" {
			events[i].ExchangeLocation = protocol.SchoolLocation
		} else {
			events[i].ExchangeLocation = protocol.NoSchoolLocation
		}
	}
}
