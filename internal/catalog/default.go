package catalog

import (
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

const (
	orderDocument = "Findings and Order After Hearing"
	orderVersion  = "2025-09-30"
)

var (
	orderDate      = calendar.D(2025, time.September, 30)
	pickupFallback = calendar.Clock{Hour: 15}
	dropFallback   = calendar.Clock{Hour: 9}
	eleven         = calendar.Clock{Hour: 11}

	// summerReturn is the Friday ending the eighth week of the 2026 summer
	// rotation. Weekends are assigned by count from then on.
	summerReturn = calendar.D(2026, time.July, 24)
)

func until(d calendar.Date) *calendar.Date { return &d }

func weekday(w time.Weekday) *calendar.Weekday {
	cw := calendar.Weekday(w)
	return &cw
}

func cite(page int, section, text string) Source {
	return Source{Document: orderDocument, Page: page, Section: section, Text: text}
}

// DefaultCourtOrder returns the built-in rule set. Each call returns a new
// value, so callers may not observe each other's modifications.
func DefaultCourtOrder() *RuleSet {
	rules := []CustodyRule{
		// Special days, priorities 1-9.
		{
			ID: "mother-birthday", Name: "Mother's Birthday",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleSpecialDay, Priority: 1,
			YearParity: domain.ParityAll,
			Data:       &SpecialDay{Occasion: "mother_birthday", When: On(FixedDate{Month: time.October, Day: 2})},
			Action: Action{Parent: domain.Mother,
				Start: At(0, calendar.Clock{Hour: 9}), End: Dropoff(1, dropFallback)},
			EffectiveFrom: orderDate,
			Source: cite(6, "17", "Each parent shall have custody of the children from 9am on their "+
				"respective birthday until morning school/camp drop-off the following morning."),
		},
		{
			ID: "father-birthday", Name: "Father's Birthday",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleSpecialDay, Priority: 2,
			YearParity: domain.ParityAll,
			Data:       &SpecialDay{Occasion: "father_birthday", When: On(FixedDate{Month: time.December, Day: 31})},
			Action: Action{Parent: domain.Father,
				Start: At(0, calendar.Clock{Hour: 9}), End: Dropoff(1, dropFallback)},
			EffectiveFrom: orderDate,
			Source: cite(6, "17", "Each parent shall have custody of the children from 9am on their "+
				"respective birthday until morning school/camp drop-off the following morning."),
		},
		{
			ID: "mothers-day", Name: "Mother's Day",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleSpecialDay, Priority: 3,
			YearParity: domain.ParityAll,
			Data:       &SpecialDay{Occasion: "mothers_day", When: On(RelativeDate{Anchor: "mothers_day"})},
			Action: Action{Parent: domain.Mother,
				Start: At(0, calendar.Clock{Hour: 9}), End: Dropoff(1, dropFallback)},
			EffectiveFrom: orderDate,
			Source:        cite(6, "18", "Mother's Day and Father's Day: from 9am until morning drop-off the following morning."),
		},
		{
			ID: "fathers-day", Name: "Father's Day",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleSpecialDay, Priority: 4,
			YearParity: domain.ParityAll,
			Data:       &SpecialDay{Occasion: "fathers_day", When: On(RelativeDate{Anchor: "fathers_day"})},
			Action: Action{Parent: domain.Father,
				Start: At(0, calendar.Clock{Hour: 9}), End: Dropoff(1, dropFallback)},
			EffectiveFrom: orderDate,
			Source:        cite(6, "18", "Mother's Day and Father's Day: from 9am until morning drop-off the following morning."),
		},

		// Holidays and school breaks, priorities 10-49.
		{
			ID: "winter-break-2025", Name: "Winter Break 2025",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleHoliday, Priority: 10,
			YearParity: domain.ParityAll,
			Data: &Holiday{
				Name: "Winter Break 2025",
				When: On(ExplicitRange{Start: calendar.D(2025, time.December, 18), End: calendar.D(2026, time.January, 5)}),
				Segments: []Segment{
					{Parent: domain.Mother, StartDate: calendar.D(2025, time.December, 18), Start: Pickup(0, pickupFallback),
						EndDate: calendar.D(2025, time.December, 22), End: At(0, eleven)},
					{Parent: domain.Father, StartDate: calendar.D(2025, time.December, 22), Start: At(0, eleven),
						EndDate: calendar.D(2025, time.December, 25), End: At(0, eleven)},
					{Parent: domain.Mother, StartDate: calendar.D(2025, time.December, 25), Start: At(0, eleven),
						EndDate: calendar.D(2025, time.December, 29), End: At(0, eleven)},
					{Parent: domain.Father, StartDate: calendar.D(2025, time.December, 29), Start: At(0, eleven),
						EndDate: calendar.D(2026, time.January, 2), End: At(0, eleven)},
					{Parent: domain.Mother, StartDate: calendar.D(2026, time.January, 2), Start: At(0, eleven),
						EndDate: calendar.D(2026, time.January, 5), End: Dropoff(0, dropFallback)},
				},
			},
			Action:         Action{Parent: domain.Mother, Start: Pickup(0, pickupFallback), End: Dropoff(0, dropFallback)},
			EffectiveFrom:  calendar.D(2025, time.December, 18),
			EffectiveUntil: until(calendar.D(2026, time.January, 5)),
			Source: cite(4, "16.c", "Winter break 2025: With Mother from school pick up 12/18 until 12/22 at 11am; "+
				"With Father from 12/22 at 11am until 12/25 at 11am; With Mother from 12/25 at 11am to 12/29 at 11am; "+
				"With Father from 12/29 at 11am to 1/2 at 11am; With Mother from 1/2 at 11am to Monday morning "+
				"school drop-off on 1/5/26"),
		},
		{
			ID: "thanksgiving", Name: "Thanksgiving Break",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleHoliday, Priority: 11,
			YearParity: domain.ParityAll,
			Data: &Holiday{
				Name: "Thanksgiving",
				When: On(RelativeDate{Anchor: "thanksgiving"}),
				Split: &SplitSpec{
					FirstHalfOdd:  domain.Father,
					FirstHalfEven: domain.Mother,
					At:            &TimeSpec{DayOffset: -1, At: calendar.Noon},
				},
			},
			Action:        Action{Parent: domain.Father, Start: Pickup(-6, pickupFallback), End: Dropoff(4, dropFallback)},
			EffectiveFrom: orderDate,
			Source: cite(4, "16.b", "Thanksgiving break: To be shared equally, with mid-break exchange at Noon on "+
				"Wednesday. In odd years, Father shall have the first half of the break and Mother shall have the second."),
		},
		{
			ID: "winter-break", Name: "Winter Break (2026+)",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleHoliday, Priority: 12,
			YearParity: domain.ParityAll,
			Data: &Holiday{
				Name: "Winter Break",
				When: On(FloatingSchoolRange{Break: "winter"}),
				Split: &SplitSpec{
					FirstHalfOdd:  domain.Father,
					FirstHalfEven: domain.Mother,
					Midpoint:      true,
					MidpointClock: eleven,
				},
			},
			Action:        Action{Parent: domain.Father, Start: Pickup(0, pickupFallback), End: Dropoff(0, dropFallback)},
			EffectiveFrom: calendar.D(2026, time.January, 1),
			Source: cite(5, "16.d", "Winter break 2026 and beyond: beginning at school pickup on the last day school "+
				"is in session before the break and ending at school drop off on the day that school resumes, "+
				"shared equally with the mid-break exchange at halfway point of break."),
		},
		{
			ID: "spring-break", Name: "Spring Break",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleHoliday, Priority: 13,
			YearParity: domain.ParityAll,
			Data: &Holiday{
				Name: "Spring Break",
				When: On(FloatingSchoolRange{Break: "spring"}),
				Split: &SplitSpec{
					FirstHalfOdd:  domain.Father,
					FirstHalfEven: domain.Mother,
					Midpoint:      true,
					MidpointClock: eleven,
				},
			},
			Action:        Action{Parent: domain.Father, Start: Pickup(0, pickupFallback), End: Dropoff(0, dropFallback)},
			EffectiveFrom: orderDate,
			Source: cite(5, "16.e", "Spring break: shared equally with the mid-break exchange at halfway point of break. "+
				"In odd years, Father shall have the first half of the break and Mother shall have the second."),
		},
		{
			ID: "halloween-odd", Name: "Halloween (odd years)",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleHoliday, Priority: 14,
			YearParity:    domain.ParityOdd,
			Data:          &Holiday{Name: "Halloween", When: On(FixedDate{Month: time.October, Day: 31})},
			Action:        Action{Parent: domain.Mother, Start: At(0, calendar.Midnight), End: At(1, calendar.Midnight)},
			EffectiveFrom: orderDate,
			Source:        cite(4, "16.a", "Halloween: with Mother in odd years and Father in even."),
		},
		{
			ID: "halloween-even", Name: "Halloween (even years)",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleHoliday, Priority: 15,
			YearParity:    domain.ParityEven,
			Data:          &Holiday{Name: "Halloween", When: On(FixedDate{Month: time.October, Day: 31})},
			Action:        Action{Parent: domain.Father, Start: At(0, calendar.Midnight), End: At(1, calendar.Midnight)},
			EffectiveFrom: orderDate,
			Source:        cite(4, "16.a", "Halloween: with Mother in odd years and Father in even."),
		},

		// Right of first refusal, 50-89.
		{
			ID: "right-of-first-refusal", Name: "Right of First Refusal",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleRightOfFirstRefusal, Priority: 50,
			YearParity: domain.ParityAll,
			Data: &RightOfFirstRefusal{
				Threshold:         &Threshold{Duration: 1, Unit: UnitOvernights},
				NotificationHours: 24,
				ResponseHours:     24,
			},
			EffectiveFrom: orderDate,
			Source: cite(6, "21", "If a parent will be unable to care for the children for a period of more than one "+
				"overnight during their scheduled custodial time, they shall ask the other parent. The other parent "+
				"shall have 24 hours to respond."),
		},

		// Summer, 90-99.
		{
			ID: "summer-rotation", Name: "Summer - 8 Week Rotation",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleSummerSchedule, Priority: 90,
			YearParity: domain.ParityAll,
			Data: &SummerRotation{
				Start:         On(FloatingSchoolRange{Break: "summer", Anchor: BreakLastDayBefore}),
				AlignWeekday:  weekday(time.Friday),
				DurationWeeks: 8,
				MotherWeeks:   []int{1, 3, 5, 7},
				FatherWeeks:   []int{2, 4, 6, 8},
			},
			Action:        Action{Parent: domain.Mother, Start: Pickup(0, calendar.Clock{Hour: 16})},
			EffectiveFrom: orderDate,
			Source: cite(3, "14.a-f", "For the first eight weeks of the children's summer vacation, the parents shall "+
				"share parenting time on a week on/week off schedule. Mother shall always have the 1st, 3rd, 5th, and "+
				"7th weeks of summer, and Father shall always have the 2nd, 4th, 6th, and 8th weeks of summer."),
		},

		// Regular school-year schedule, 100-149.
		{
			ID: "thursday-overnight", Name: "Mother - Thursday Overnight",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleRegularSchedule, Priority: 100,
			YearParity: domain.ParityAll,
			Data: &RegularSchedule{
				WeekdayPeriods: []WeekdayPeriod{{
					Weekday: calendar.Weekday(time.Thursday),
					Start:   Pickup(0, pickupFallback),
					End:     Dropoff(1, dropFallback),
					Title:   "Thursday Overnight",
				}},
			},
			Action:        Action{Parent: domain.Mother},
			EffectiveFrom: orderDate,
			Source: cite(3, "12.a", "With Mother every week from Thursday afternoon school pickup to Friday morning "+
				"school drop-off."),
		},
		{
			ID: "alternating-weekends", Name: "Alternating Weekends",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleRegularSchedule, Priority: 101,
			YearParity: domain.ParityAll,
			Data: &RegularSchedule{
				WeekendPeriods: []WeekendPeriod{{
					Frequency: FrequencyAlternating,
					StartDay:  calendar.Weekday(time.Friday),
					Start:     Pickup(0, pickupFallback),
					End:       Dropoff(3, dropFallback),
					Reference: calendar.D(2025, time.October, 3),
				}},
				MondayHolidayExtension: true,
			},
			Action:         Action{Parent: domain.Mother},
			EffectiveFrom:  orderDate,
			EffectiveUntil: until(summerReturn.AddDays(-1)),
			Source: cite(3, "12.b, 12.d", "With Mother every other (alternating) weekends from Friday afternoon school "+
				"pickup to Monday morning school drop-off. If a Monday is a school holiday, the custodial parent's time "+
				"shall extend until Tuesday morning school drop-off."),
		},
		{
			ID: "ordinal-weekends", Name: "Weekends by Count After Summer",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleRegularSchedule, Priority: 102,
			YearParity: domain.ParityAll,
			Data: &RegularSchedule{
				WeekendPeriods: []WeekendPeriod{{
					Frequency: FrequencyOrdinal,
					StartDay:  calendar.Weekday(time.Friday),
					Start:     Pickup(0, pickupFallback),
					End:       Dropoff(3, dropFallback),
					Ordinals:  []int{1, 3, 5},
				}},
				MondayHolidayExtension: true,
			},
			Action:        Action{Parent: domain.Mother},
			EffectiveFrom: summerReturn,
			Source: cite(3, "14.g", "On 4pm on the Friday at the conclusion of Father's 8th week, return to regular "+
				"school year schedule based on weekend count (1st, 3rd, 5th = Mother; 2nd, 4th = Father)."),
		},

		// Exchange protocol, 150-199.
		{
			ID: "exchange-protocol", Name: "Exchange Protocol",
			Category: domain.CategoryPhysicalCustody, Type: domain.RuleExchangeProtocol, Priority: 150,
			YearParity: domain.ParityAll,
			Data: &ExchangeProtocol{
				SchoolLocation:   "Thornhill Elementary School",
				NoSchoolLocation: "receiving parent's home, curbside",
				Interaction:      "brief and polite",
			},
			EffectiveFrom: orderDate,
			Source: cite(3, "12.c, 12.e-g", "If school is not in session exchanges shall occur at the receiving "+
				"parent's home, curbside. During exchanges the parents shall have only brief and polite interactions."),
		},

		// Travel and childcare, 200-249.
		{
			ID: "travel-domestic", Name: "Domestic Travel",
			Category: domain.CategoryTravel, Type: domain.RuleTravel, Priority: 200,
			YearParity: domain.ParityAll,
			Data: &Travel{
				TravelType: TravelDomestic,
				NoticeDays: 30,
				RequiredInformation: []string{
					"destination", "lodging_locations", "dates_of_travel",
					"flight_information_if_air", "emergency_contact_if_no_cell",
				},
			},
			EffectiveFrom: orderDate,
			Source: cite(6, "20.a", "Domestic travel does not require the consent of the other parent. The travelling "+
				"parent shall provide at least 30 days written notice."),
		},
		{
			ID: "travel-international", Name: "International Travel",
			Category: domain.CategoryTravel, Type: domain.RuleTravel, Priority: 201,
			YearParity: domain.ParityAll,
			Data: &Travel{
				TravelType:      TravelInternational,
				RequiresConsent: true,
				NoticeDays:      60,
				RequiredInformation: []string{
					"destination", "lodging_locations", "dates_of_travel",
					"flight_information_if_air", "emergency_contact_if_no_cell",
				},
				DocumentDeliveryDays:       10,
				CannotUnreasonablyWithhold: true,
			},
			EffectiveFrom: orderDate,
			Source: cite(6, "20.b", "For international travel, either written permission from the other parent or a "+
				"Court order is required, with at least 60 days written notice. Travel documents shall be provided no "+
				"less than 10 days before the planned travel."),
		},
		{
			ID: "childcare", Name: "Childcare Providers",
			Category: domain.CategoryOther, Type: domain.RuleChildcare, Priority: 210,
			YearParity: domain.ParityAll,
			Data: &Childcare{
				NotificationRequired: true,
				Providers: []ChildcareProvider{
					{Kind: ProviderSpecificPerson, Name: "Finn", MinAge: 15,
						MaxHoursPerSession: 3, MaxSessionsPerWeek: 2, Location: "fathers_home"},
					{Kind: ProviderThirdParty, MinAge: 18},
				},
			},
			EffectiveFrom: orderDate,
			Source: cite(7, "22", "Finn may care for the children for periods of 3 hours or less, no more than 2x "+
				"weekly, at Father's home. Any third party childcare providers must be over 18."),
		},
	}
	return &RuleSet{Version: orderVersion, Rules: rules}
}
