// Package validation checks custody rules, rule sets and generated events
// for completeness and consistency, and scores the result.
package validation

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// Issue codes.
const (
	CodeMissingRequiredField   = "MISSING_REQUIRED_FIELD"
	CodeInvalidRuleType        = "INVALID_RULE_TYPE"
	CodeRuleDataTypeMismatch   = "RULE_DATA_TYPE_MISMATCH"
	CodeInvalidDateRange       = "INVALID_DATE_RANGE"
	CodeInvalidPriority        = "INVALID_PRIORITY"
	CodePriorityOutOfRange     = "PRIORITY_OUT_OF_EXPECTED_RANGE"
	CodeMissingCustodialParent = "MISSING_CUSTODIAL_PARENT"
	CodeInvalidCustodialParent = "INVALID_CUSTODIAL_PARENT"
	CodeMissingSchedule        = "MISSING_SCHEDULE"
	CodeInvalidSchedule        = "INVALID_SCHEDULE"
	CodeMissingDuration        = "MISSING_DURATION"
	CodeMissingWeekAssignments = "MISSING_WEEK_ASSIGNMENTS"
	CodeInvalidWeekAssignment  = "INVALID_WEEK_ASSIGNMENT"
	CodeMissingHolidayName     = "MISSING_HOLIDAY_NAME"
	CodeMissingDetermination   = "MISSING_DATE_DETERMINATION"
	CodeInvalidSplit           = "INVALID_SPLIT"
	CodeInvalidSegment         = "INVALID_SEGMENT"
	CodeMissingOccasion        = "MISSING_OCCASION"
	CodeMissingTravelType      = "MISSING_TRAVEL_TYPE"
	CodeInvalidNotice          = "INVALID_NOTICE_PERIOD"
	CodeMissingThreshold       = "MISSING_THRESHOLD"
	CodeInvalidThreshold       = "INVALID_THRESHOLD"
	CodeMissingProviders       = "MISSING_CHILDCARE_PROVIDERS"
	CodeMissingExchangeSite    = "MISSING_EXCHANGE_LOCATION"
	CodeRuleValidationFailed   = "RULE_VALIDATION_FAILED"
	CodeRuleConflictDetected   = "RULE_CONFLICT_DETECTED"
	CodeDuplicateRuleID        = "DUPLICATE_RULE_ID"
	CodeEmptyRuleSet           = "EMPTY_RULE_SET"
)

var (
	penalties = map[domain.Severity]decimal.Decimal{
		domain.SeverityCritical: decimal.RequireFromString("0.5"),
		domain.SeverityHigh:     decimal.RequireFromString("0.2"),
		domain.SeverityMedium:   decimal.RequireFromString("0.1"),
		domain.SeverityLow:      decimal.RequireFromString("0.05"),
	}
	warningPenalty = decimal.RequireFromString("0.02")

	// DefaultMinConfidence is the score a result needs to pass.
	DefaultMinConfidence = decimal.RequireFromString("0.99")
)

// Engine validates rules and events. The zero value is not usable; call New.
type Engine struct {
	MinConfidence decimal.Decimal
	Log           logrus.FieldLogger
}

// New returns an Engine with the default pass threshold.
func New(log logrus.FieldLogger) *Engine {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Engine{MinConfidence: DefaultMinConfidence, Log: log}
}

// collector accumulates issues for one result.
type collector struct {
	ruleID   string
	errors   []domain.ValidationIssue
	warnings []domain.ValidationIssue
}

func (c *collector) fail(code string, sev domain.Severity, field, format string, args ...any) {
	c.errors = append(c.errors, domain.ValidationIssue{
		Code: code, Severity: sev, Field: field, RuleID: c.ruleID, Message: fmt.Sprintf(format, args...),
	})
}

func (c *collector) warn(code, field, format string, args ...any) {
	c.warnings = append(c.warnings, domain.ValidationIssue{
		Code: code, Severity: domain.SeverityWarning, Field: field, RuleID: c.ruleID, Message: fmt.Sprintf(format, args...),
	})
}

// Score is 1 minus the severity penalties of errors and warnings, clamped
// to [0, 1].
func Score(errors, warnings []domain.ValidationIssue) decimal.Decimal {
	score := decimal.NewFromInt(1)
	for _, e := range errors {
		score = score.Sub(penalties[e.Severity])
	}
	score = score.Sub(warningPenalty.Mul(decimal.NewFromInt(int64(len(warnings)))))
	if score.IsNegative() {
		return decimal.Zero
	}
	if score.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return score
}

func blocking(issues []domain.ValidationIssue) int {
	n := 0
	for _, e := range issues {
		if e.Severity.Blocking() {
			n++
		}
	}
	return n
}

func (e *Engine) result(c *collector, notes []string) domain.ValidationResult {
	score := Score(c.errors, c.warnings)
	f, _ := score.Float64()
	return domain.ValidationResult{
		Passed:          blocking(c.errors) == 0 && score.GreaterThanOrEqual(e.MinConfidence),
		ConfidenceScore: f,
		Errors:          c.errors,
		Warnings:        c.warnings,
		Notes:           notes,
	}
}

// ValidateRule checks a single rule for required fields, internal
// consistency and type-specific structure.
func (e *Engine) ValidateRule(rule catalog.CustodyRule) domain.ValidationResult {
	c := &collector{ruleID: rule.ID}
	requiredFields(c, rule)
	ruleData(c, rule)
	dateRange(c, rule)
	priority(c, rule)
	action(c, rule)
	typeSpecific(c, rule)
	return e.result(c, nil)
}

func requiredFields(c *collector, rule catalog.CustodyRule) {
	missing := func(field string) {
		c.fail(CodeMissingRequiredField, domain.SeverityCritical, field, "required field '%s' is missing", field)
	}
	if rule.ID == "" {
		missing("id")
	}
	if rule.Type == "" {
		missing("type")
	}
	if rule.Name == "" {
		missing("name")
	}
	if rule.Category == "" {
		missing("category")
	}
	if rule.Data == nil {
		missing("data")
	}
	if rule.EffectiveFrom.IsZero() {
		missing("effective_from")
	}
}

func ruleData(c *collector, rule catalog.CustodyRule) {
	if rule.Type == "" {
		return
	}
	if _, err := catalog.NewData(rule.Type); err != nil {
		c.fail(CodeInvalidRuleType, domain.SeverityHigh, "type", "unknown rule type '%s'", rule.Type)
		return
	}
	if rule.Data != nil && rule.Data.Kind() != rule.Type {
		c.fail(CodeRuleDataTypeMismatch, domain.SeverityHigh, "data",
			"data of type '%s' does not match rule type '%s'", rule.Data.Kind(), rule.Type)
	}
}

func dateRange(c *collector, rule catalog.CustodyRule) {
	if rule.EffectiveUntil == nil || rule.EffectiveFrom.IsZero() {
		return
	}
	if !rule.EffectiveUntil.After(rule.EffectiveFrom) {
		c.fail(CodeInvalidDateRange, domain.SeverityCritical, "effective_until",
			"effective_until %s must be after effective_from %s", rule.EffectiveUntil, rule.EffectiveFrom)
	}
}

func priority(c *collector, rule catalog.CustodyRule) {
	if rule.Priority < 0 || rule.Priority > 1000 {
		c.fail(CodeInvalidPriority, domain.SeverityHigh, "priority", "priority %d must be between 0 and 1000", rule.Priority)
	}
	if band, ok := domain.PriorityBands[rule.Type]; ok && (rule.Priority < band.Min || rule.Priority > band.Max) {
		c.warn(CodePriorityOutOfRange, "priority", "priority %d for %s is outside expected range %d-%d (%s)",
			rule.Priority, rule.Type, band.Min, band.Max, band.Name)
	}
}

// needsActionParent reports whether the rule relies on Action.Parent to
// assign custody.
func needsActionParent(rule catalog.CustodyRule) bool {
	switch d := rule.Data.(type) {
	case *catalog.RegularSchedule:
		for _, p := range d.WeekdayPeriods {
			if p.Parent == "" {
				return true
			}
		}
		for _, p := range d.WeekendPeriods {
			if p.Parent == "" {
				return true
			}
		}
	case *catalog.Holiday:
		return d.Split == nil && len(d.Segments) == 0
	case *catalog.SpecialDay:
		return true
	}
	return false
}

func action(c *collector, rule catalog.CustodyRule) {
	p := rule.Action.Parent
	if p == "" {
		if needsActionParent(rule) {
			c.fail(CodeMissingCustodialParent, domain.SeverityCritical, "action.parent", "action.parent is required")
		}
		return
	}
	if !p.Valid() {
		c.fail(CodeInvalidCustodialParent, domain.SeverityHigh, "action.parent", "action.parent '%s' must be 'mother' or 'father'", p)
	}
}

func typeSpecific(c *collector, rule catalog.CustodyRule) {
	switch d := rule.Data.(type) {
	case *catalog.RegularSchedule:
		regularSchedule(c, d)
	case *catalog.SummerRotation:
		summerRotation(c, d)
	case *catalog.Holiday:
		holiday(c, d)
	case *catalog.SpecialDay:
		if d.Occasion == "" {
			c.fail(CodeMissingOccasion, domain.SeverityCritical, "data.occasion", "special day requires occasion")
		}
		if d.When.IsZero() {
			c.fail(CodeMissingDetermination, domain.SeverityCritical, "data.when", "special day requires a date determination")
		}
	case *catalog.Travel:
		if d.TravelType == "" {
			c.fail(CodeMissingTravelType, domain.SeverityCritical, "data.travel_type", "travel requires travel_type")
		}
		if d.NoticeDays < 0 || d.DocumentDeliveryDays < 0 {
			c.fail(CodeInvalidNotice, domain.SeverityMedium, "data.notice_days", "notice periods cannot be negative")
		}
	case *catalog.RightOfFirstRefusal:
		if d.Threshold == nil {
			c.fail(CodeMissingThreshold, domain.SeverityCritical, "data.threshold", "right of first refusal requires threshold")
		} else if d.Threshold.Duration <= 0 || (d.Threshold.Unit != catalog.UnitOvernights && d.Threshold.Unit != catalog.UnitHours) {
			c.fail(CodeInvalidThreshold, domain.SeverityHigh, "data.threshold", "threshold needs a positive duration in overnights or hours")
		}
	case *catalog.Childcare:
		if len(d.Providers) == 0 {
			c.fail(CodeMissingProviders, domain.SeverityMedium, "data.providers", "childcare lists no approved providers")
		}
	case *catalog.ExchangeProtocol:
		if d.SchoolLocation == "" && d.NoSchoolLocation == "" {
			c.fail(CodeMissingExchangeSite, domain.SeverityMedium, "data", "exchange protocol names no exchange location")
		}
	}
}

func regularSchedule(c *collector, d *catalog.RegularSchedule) {
	if len(d.WeekdayPeriods) == 0 && len(d.WeekendPeriods) == 0 {
		c.fail(CodeMissingSchedule, domain.SeverityCritical, "data", "regular schedule requires weekday or weekend periods")
		return
	}
	for i, p := range d.WeekdayPeriods {
		if p.Parent != "" && !p.Parent.Valid() {
			c.fail(CodeInvalidCustodialParent, domain.SeverityHigh, fmt.Sprintf("data.weekday_periods[%d].parent", i),
				"period parent '%s' must be 'mother' or 'father'", p.Parent)
		}
	}
	for i, p := range d.WeekendPeriods {
		field := fmt.Sprintf("data.weekend_periods[%d]", i)
		if p.Parent != "" && !p.Parent.Valid() {
			c.fail(CodeInvalidCustodialParent, domain.SeverityHigh, field+".parent",
				"period parent '%s' must be 'mother' or 'father'", p.Parent)
		}
		switch p.Frequency {
		case catalog.FrequencyEvery:
		case catalog.FrequencyAlternating:
			if p.Reference.IsZero() {
				c.fail(CodeInvalidSchedule, domain.SeverityHigh, field+".reference", "alternating weekends need a reference date")
			} else if p.Reference.Weekday() != p.StartDay.Std() {
				c.fail(CodeInvalidSchedule, domain.SeverityHigh, field+".reference",
					"reference %s is not a %s", p.Reference, p.StartDay)
			}
		case catalog.FrequencyOrdinal:
			if len(p.Ordinals) == 0 {
				c.fail(CodeInvalidSchedule, domain.SeverityHigh, field+".ordinals", "ordinal weekends need ordinals")
			}
			for _, o := range p.Ordinals {
				if o < 1 || o > 5 {
					c.fail(CodeInvalidSchedule, domain.SeverityHigh, field+".ordinals", "ordinal %d is outside 1-5", o)
				}
			}
		default:
			c.fail(CodeInvalidSchedule, domain.SeverityHigh, field+".frequency", "unknown frequency '%s'", p.Frequency)
		}
	}
}

func summerRotation(c *collector, d *catalog.SummerRotation) {
	if d.DurationWeeks < 1 {
		c.fail(CodeMissingDuration, domain.SeverityCritical, "data.duration_weeks", "summer schedule requires duration_weeks")
	}
	if len(d.MotherWeeks) == 0 || len(d.FatherWeeks) == 0 {
		c.fail(CodeMissingWeekAssignments, domain.SeverityCritical, "data", "summer schedule requires mother_weeks and father_weeks")
	}
	if d.Start.IsZero() {
		c.fail(CodeMissingDetermination, domain.SeverityCritical, "data.start", "summer schedule requires a start date")
	}
	seen := map[int]bool{}
	for _, weeks := range [][]int{d.MotherWeeks, d.FatherWeeks} {
		for _, w := range weeks {
			if w < 1 || (d.DurationWeeks > 0 && w > d.DurationWeeks) {
				c.fail(CodeInvalidWeekAssignment, domain.SeverityMedium, "data", "week %d is outside 1-%d", w, d.DurationWeeks)
			}
			if seen[w] {
				c.fail(CodeInvalidWeekAssignment, domain.SeverityHigh, "data", "week %d is assigned to both parents", w)
			}
			seen[w] = true
		}
	}
}

func holiday(c *collector, d *catalog.Holiday) {
	if d.Name == "" {
		c.fail(CodeMissingHolidayName, domain.SeverityCritical, "data.name", "holiday requires name")
	}
	if d.When.IsZero() && len(d.Segments) == 0 {
		c.fail(CodeMissingDetermination, domain.SeverityCritical, "data.when", "holiday requires a date determination")
	}
	if s := d.Split; s != nil {
		if !s.FirstHalfEven.Valid() || !s.FirstHalfOdd.Valid() {
			c.fail(CodeInvalidSplit, domain.SeverityHigh, "data.split", "split needs a first-half parent for even and odd years")
		}
		if s.At == nil && !s.Midpoint {
			c.fail(CodeInvalidSplit, domain.SeverityHigh, "data.split", "split needs a split time or midpoint")
		}
	}
	for i, seg := range d.Segments {
		field := fmt.Sprintf("data.segments[%d]", i)
		if !seg.Parent.Valid() {
			c.fail(CodeInvalidSegment, domain.SeverityHigh, field+".parent", "segment parent '%s' must be 'mother' or 'father'", seg.Parent)
		}
		if seg.EndDate.Before(seg.StartDate) {
			c.fail(CodeInvalidSegment, domain.SeverityHigh, field, "segment ends %s before it starts %s", seg.EndDate, seg.StartDate)
		}
	}
}
