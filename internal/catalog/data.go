package catalog

import (
	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// RuleData is the type-specific payload of a rule. Each implementation
// reports the rule type it belongs to; the set is closed.
type RuleData interface {
	Kind() domain.RuleType
}

// Frequency controls how often a weekend period repeats.
type Frequency string

const (
	FrequencyEvery       Frequency = "every"
	FrequencyAlternating Frequency = "alternating"
	FrequencyOrdinal     Frequency = "ordinal"
)

// WeekdayPeriod is a weekly interval starting on Weekday. Start and End are
// relative to that day.
type WeekdayPeriod struct {
	Weekday calendar.Weekday `yaml:"weekday" json:"weekday"`
	Start   TimeSpec         `yaml:"start" json:"start"`
	End     TimeSpec         `yaml:"end" json:"end"`
	Parent  domain.Parent    `yaml:"parent,omitempty" json:"parent,omitempty"`
	Title   string           `yaml:"title,omitempty" json:"title,omitempty"`
}

// ParentOr returns the period parent, or fallback when unset.
func (p WeekdayPeriod) ParentOr(fallback domain.Parent) domain.Parent {
	if p.Parent != "" {
		return p.Parent
	}
	return fallback
}

// WeekendPeriod is a weekend interval starting on StartDay. Parent receives
// the weekend on even weeks counted from Reference (alternating) or on the
// listed Ordinals of StartDay within the month (ordinal); the other parent
// receives the remaining weekends.
type WeekendPeriod struct {
	Frequency Frequency        `yaml:"frequency" json:"frequency"`
	StartDay  calendar.Weekday `yaml:"start_day" json:"start_day"`
	Start     TimeSpec         `yaml:"start" json:"start"`
	End       TimeSpec         `yaml:"end" json:"end"`
	Parent    domain.Parent    `yaml:"parent,omitempty" json:"parent,omitempty"`
	Reference calendar.Date    `yaml:"reference,omitempty" json:"reference,omitempty"`
	Ordinals  []int            `yaml:"ordinals,omitempty" json:"ordinals,omitempty"`
}

// ParentOr returns the period parent, or fallback when unset.
func (p WeekendPeriod) ParentOr(fallback domain.Parent) domain.Parent {
	if p.Parent != "" {
		return p.Parent
	}
	return fallback
}

// RegularSchedule is the school-year weekly pattern.
type RegularSchedule struct {
	WeekdayPeriods []WeekdayPeriod `yaml:"weekday_periods,omitempty" json:"weekday_periods,omitempty"`
	WeekendPeriods []WeekendPeriod `yaml:"weekend_periods,omitempty" json:"weekend_periods,omitempty"`
	// MondayHolidayExtension moves a weekend's Monday end to Tuesday when
	// Monday is not a school day.
	MondayHolidayExtension bool `yaml:"monday_holiday_extension,omitempty" json:"monday_holiday_extension,omitempty"`
}

// SummerRotation alternates whole weeks between parents from a start date.
type SummerRotation struct {
	Start         When              `yaml:"start" json:"start"`
	AlignWeekday  *calendar.Weekday `yaml:"align_weekday,omitempty" json:"align_weekday,omitempty"`
	DurationWeeks int               `yaml:"duration_weeks" json:"duration_weeks"`
	MotherWeeks   []int             `yaml:"mother_weeks" json:"mother_weeks"`
	FatherWeeks   []int             `yaml:"father_weeks" json:"father_weeks"`
}

// ParentForWeek returns the parent of 1-based week n.
func (s SummerRotation) ParentForWeek(n int) (domain.Parent, bool) {
	for _, w := range s.MotherWeeks {
		if w == n {
			return domain.Mother, true
		}
	}
	for _, w := range s.FatherWeeks {
		if w == n {
			return domain.Father, true
		}
	}
	return "", false
}

// Holiday is a once-a-year occurrence, optionally split in two halves or
// spelled out as explicit segments.
type Holiday struct {
	Name     string     `yaml:"name" json:"name"`
	When     When       `yaml:"when" json:"when"`
	Split    *SplitSpec `yaml:"split,omitempty" json:"split,omitempty"`
	Segments []Segment  `yaml:"segments,omitempty" json:"segments,omitempty"`
}

// SpecialDay is a birthday or celebration day.
type SpecialDay struct {
	Occasion string `yaml:"occasion" json:"occasion"`
	When     When   `yaml:"when" json:"when"`
}

// TravelType distinguishes domestic from international travel.
type TravelType string

const (
	TravelDomestic      TravelType = "domestic"
	TravelInternational TravelType = "international"
)

// Travel describes notice and consent obligations for overnight travel.
type Travel struct {
	TravelType                 TravelType `yaml:"travel_type" json:"travel_type"`
	RequiresConsent            bool       `yaml:"requires_consent" json:"requires_consent"`
	NoticeDays                 int        `yaml:"notice_days" json:"notice_days"`
	RequiredInformation        []string   `yaml:"required_information,omitempty" json:"required_information,omitempty"`
	DocumentDeliveryDays       int        `yaml:"document_delivery_days,omitempty" json:"document_delivery_days,omitempty"`
	CannotUnreasonablyWithhold bool       `yaml:"cannot_unreasonably_withhold,omitempty" json:"cannot_unreasonably_withhold,omitempty"`
}

// ThresholdUnit is the unit of a right-of-first-refusal threshold.
type ThresholdUnit string

const (
	UnitOvernights ThresholdUnit = "overnights"
	UnitHours      ThresholdUnit = "hours"
)

// Threshold is the absence length above which the other parent must be asked.
type Threshold struct {
	Duration int           `yaml:"duration" json:"duration"`
	Unit     ThresholdUnit `yaml:"unit" json:"unit"`
}

// RightOfFirstRefusal obliges a parent to offer care time before using
// third-party childcare.
type RightOfFirstRefusal struct {
	Threshold         *Threshold `yaml:"threshold" json:"threshold"`
	NotificationHours int        `yaml:"notification_hours" json:"notification_hours"`
	ResponseHours     int        `yaml:"response_hours" json:"response_hours"`
}

// ExchangeProtocol governs where and how exchanges happen. SchoolLocation
// is used when the exchange day is a school day, NoSchoolLocation otherwise.
type ExchangeProtocol struct {
	SchoolLocation      string `yaml:"school_location,omitempty" json:"school_location,omitempty"`
	NoSchoolLocation    string `yaml:"no_school_location,omitempty" json:"no_school_location,omitempty"`
	Interaction         string `yaml:"interaction,omitempty" json:"interaction,omitempty"`
	ThirdPartiesAllowed bool   `yaml:"third_parties_allowed" json:"third_parties_allowed"`
}

// ProviderKind is the kind of childcare provider.
type ProviderKind string

const (
	ProviderSpecificPerson ProviderKind = "specific_person"
	ProviderThirdParty     ProviderKind = "third_party"
)

// ChildcareProvider lists the constraints on one allowed provider.
type ChildcareProvider struct {
	Kind               ProviderKind `yaml:"kind" json:"kind"`
	Name               string       `yaml:"name,omitempty" json:"name,omitempty"`
	MinAge             int          `yaml:"min_age" json:"min_age"`
	MaxHoursPerSession int          `yaml:"max_hours_per_session,omitempty" json:"max_hours_per_session,omitempty"`
	MaxSessionsPerWeek int          `yaml:"max_sessions_per_week,omitempty" json:"max_sessions_per_week,omitempty"`
	Location           string       `yaml:"location,omitempty" json:"location,omitempty"`
}

// Childcare governs who may care for the children.
type Childcare struct {
	NotificationRequired bool                `yaml:"notification_required" json:"notification_required"`
	Providers            []ChildcareProvider `yaml:"providers" json:"providers"`
}

func (*RegularSchedule) Kind() domain.RuleType     { return domain.RuleRegularSchedule }
func (*SummerRotation) Kind() domain.RuleType      { return domain.RuleSummerSchedule }
func (*Holiday) Kind() domain.RuleType             { return domain.RuleHoliday }
func (*SpecialDay) Kind() domain.RuleType          { return domain.RuleSpecialDay }
func (*Travel) Kind() domain.RuleType              { return domain.RuleTravel }
func (*RightOfFirstRefusal) Kind() domain.RuleType { return domain.RuleRightOfFirstRefusal }
func (*ExchangeProtocol) Kind() domain.RuleType    { return domain.RuleExchangeProtocol }
func (*Childcare) Kind() domain.RuleType           { return domain.RuleChildcare }

// NewData returns an empty payload for a rule type.
func NewData(t domain.RuleType) (RuleData, error) {
	switch t {
	case domain.RuleRegularSchedule:
		return &RegularSchedule{}, nil
	case domain.RuleSummerSchedule:
		return &SummerRotation{}, nil
	case domain.RuleHoliday:
		return &Holiday{}, nil
	case domain.RuleSpecialDay:
		return &SpecialDay{}, nil
	case domain.RuleTravel:
		return &Travel{}, nil
	case domain.RuleRightOfFirstRefusal:
		return &RightOfFirstRefusal{}, nil
	case domain.RuleExchangeProtocol:
		return &ExchangeProtocol{}, nil
	case domain.RuleChildcare:
		return &Childcare{}, nil
	}
	return nil, domain.ErrUnknownRuleType.Detail("%q", t)
}
