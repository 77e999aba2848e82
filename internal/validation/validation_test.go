package validation

import (
	"math"
	"testing"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func regularRule(id string, prio domain.Priority, parent domain.Parent) catalog.CustodyRule {
	return catalog.CustodyRule{
		ID: id, Name: "Test " + id, Category: domain.CategoryPhysicalCustody,
		Type: domain.RuleRegularSchedule, Priority: prio,
		Data: &catalog.RegularSchedule{WeekdayPeriods: []catalog.WeekdayPeriod{{
			Weekday: calendar.Weekday(time.Thursday),
			Start:   catalog.Pickup(0, calendar.MustParseClock("15:00")),
			End:     catalog.Dropoff(1, calendar.MustParseClock("09:00")),
		}}},
		Action:        catalog.Action{Parent: parent},
		EffectiveFrom: calendar.D(2025, time.September, 30),
	}
}

func hasCode(issues []domain.ValidationIssue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestValidateRule_Valid(t *testing.T) {
	res := New(nil).ValidateRule(regularRule("r1", 100, domain.Mother))
	if !res.Passed {
		t.Fatalf("expected pass, got errors %+v warnings %+v", res.Errors, res.Warnings)
	}
	if !almostEqual(res.ConfidenceScore, 1) {
		t.Errorf("expected score 1, got %f", res.ConfidenceScore)
	}
}

func TestValidateRule_MissingRequiredFields(t *testing.T) {
	res := New(nil).ValidateRule(catalog.CustodyRule{ID: "r2", Name: "Test", Priority: 100})
	if res.Passed {
		t.Fatal("expected failure")
	}
	if !res.HasErrorCode(CodeMissingRequiredField) {
		t.Errorf("expected %s, got %+v", CodeMissingRequiredField, res.Errors)
	}
	if res.ConfidenceScore != 0 {
		t.Errorf("expected score clamped to 0, got %f", res.ConfidenceScore)
	}
}

func TestValidateRule_InvalidDateRange(t *testing.T) {
	rule := regularRule("r3", 100, domain.Mother)
	until := rule.EffectiveFrom
	rule.EffectiveUntil = &until
	res := New(nil).ValidateRule(rule)
	if res.Passed || !res.HasErrorCode(CodeInvalidDateRange) {
		t.Fatalf("expected %s failure, got %+v", CodeInvalidDateRange, res)
	}
}

func TestValidateRule_PriorityBandWarning(t *testing.T) {
	res := New(nil).ValidateRule(regularRule("r4", 5, domain.Mother))
	if !hasCode(res.Warnings, CodePriorityOutOfRange) {
		t.Fatalf("expected band warning, got %+v", res.Warnings)
	}
	// A single warning costs 0.02 and drops the score below the threshold.
	if !almostEqual(res.ConfidenceScore, 0.98) || res.Passed {
		t.Errorf("expected score 0.98 and failure, got %f passed=%v", res.ConfidenceScore, res.Passed)
	}
}

func TestValidateRule_InvalidPriorityAndParent(t *testing.T) {
	res := New(nil).ValidateRule(regularRule("r5", 2000, domain.Parent("grandma")))
	if !res.HasErrorCode(CodeInvalidPriority) {
		t.Errorf("expected %s", CodeInvalidPriority)
	}
	if !res.HasErrorCode(CodeInvalidCustodialParent) {
		t.Errorf("expected %s", CodeInvalidCustodialParent)
	}
	if res.Passed {
		t.Error("expected failure")
	}
}

func TestValidateRule_DataMismatch(t *testing.T) {
	rule := regularRule("r6", 100, domain.Mother)
	rule.Type = domain.RuleHoliday
	res := New(nil).ValidateRule(rule)
	if !res.HasErrorCode(CodeRuleDataTypeMismatch) {
		t.Fatalf("expected %s, got %+v", CodeRuleDataTypeMismatch, res.Errors)
	}
}

func TestValidateRule_TypeSpecific(t *testing.T) {
	base := catalog.CustodyRule{
		ID: "x", Name: "x", Category: domain.CategoryOther, Priority: 100,
		EffectiveFrom: calendar.D(2025, time.January, 1),
	}
	cases := []struct {
		name string
		typ  domain.RuleType
		data catalog.RuleData
		code string
	}{
		{"summer", domain.RuleSummerSchedule, &catalog.SummerRotation{}, CodeMissingDuration},
		{"summer weeks", domain.RuleSummerSchedule, &catalog.SummerRotation{DurationWeeks: 2, MotherWeeks: []int{1}}, CodeMissingWeekAssignments},
		{"holiday", domain.RuleHoliday, &catalog.Holiday{}, CodeMissingHolidayName},
		{"holiday date", domain.RuleHoliday, &catalog.Holiday{Name: "x"}, CodeMissingDetermination},
		{"special", domain.RuleSpecialDay, &catalog.SpecialDay{}, CodeMissingOccasion},
		{"travel", domain.RuleTravel, &catalog.Travel{}, CodeMissingTravelType},
		{"rofr", domain.RuleRightOfFirstRefusal, &catalog.RightOfFirstRefusal{}, CodeMissingThreshold},
		{"regular", domain.RuleRegularSchedule, &catalog.RegularSchedule{}, CodeMissingSchedule},
		{"alternating", domain.RuleRegularSchedule, &catalog.RegularSchedule{WeekendPeriods: []catalog.WeekendPeriod{{
			Frequency: catalog.FrequencyAlternating, StartDay: calendar.Weekday(time.Friday), Parent: domain.Father,
		}}}, CodeInvalidSchedule},
	}
	for _, c := range cases {
		rule := base
		rule.Type, rule.Data = c.typ, c.data
		rule.Action.Parent = domain.Mother
		res := New(nil).ValidateRule(rule)
		if !res.HasErrorCode(c.code) {
			t.Errorf("%s: expected %s, got %+v", c.name, c.code, res.Errors)
		}
	}
}

func TestValidateRule_NonCustodyNeedsNoParent(t *testing.T) {
	rule := catalog.CustodyRule{
		ID: "travel", Name: "Travel", Category: domain.CategoryTravel, Type: domain.RuleTravel, Priority: 200,
		Data:          &catalog.Travel{TravelType: catalog.TravelDomestic, NoticeDays: 30},
		EffectiveFrom: calendar.D(2025, time.January, 1),
	}
	if res := New(nil).ValidateRule(rule); !res.Passed {
		t.Fatalf("expected pass, got %+v", res.Errors)
	}
}

func TestDetectConflicts(t *testing.T) {
	a := regularRule("a", 100, domain.Mother)
	b := regularRule("b", 100, domain.Father)
	c := regularRule("c", 101, domain.Father)
	d := regularRule("d", 100, domain.Mother)

	r := DetectConflicts(a, b)
	if r == nil || r.Type != domain.ConflictContradictoryCustody || r.Resolved || r.Severity != domain.SeverityHigh {
		t.Errorf("expected unresolved contradictory custody, got %+v", r)
	}
	r = DetectConflicts(a, c)
	if r == nil || r.Type != domain.ConflictOverlappingTime || !r.Resolved {
		t.Errorf("expected resolved overlap, got %+v", r)
	}
	r = DetectConflicts(a, d)
	if r == nil || r.Type != domain.ConflictPriorityUnclear || !r.Resolved || r.Severity != domain.SeverityLow {
		t.Errorf("expected priority unclear, got %+v", r)
	}

	until := calendar.D(2025, time.December, 31)
	b.EffectiveUntil = &until
	a.EffectiveFrom = calendar.D(2026, time.January, 1)
	if r := DetectConflicts(a, b); r != nil {
		t.Errorf("expected no conflict for disjoint ranges, got %+v", r)
	}
}

func TestDetectConflicts_ParityAndNonCustody(t *testing.T) {
	set := catalog.DefaultCourtOrder()
	odd, _ := set.ByID("halloween-odd")
	even, _ := set.ByID("halloween-even")
	even.Priority = odd.Priority
	if r := DetectConflicts(odd, even); r != nil {
		t.Errorf("odd and even year rules never meet, got %+v", r)
	}
	travel, _ := set.ByID("travel-domestic")
	thursday, _ := set.ByID("thursday-overnight")
	if r := DetectConflicts(travel, thursday); r != nil {
		t.Errorf("travel rules assign no custody, got %+v", r)
	}
}

func TestValidateRuleSet_UnresolvedConflict(t *testing.T) {
	rules := []catalog.CustodyRule{
		regularRule("mother-thursdays", 100, domain.Mother),
		regularRule("father-thursdays", 100, domain.Father),
	}
	res := New(nil).ValidateRuleSet(rules)
	if res.Passed {
		t.Fatal("expected failure")
	}
	if !res.HasErrorCode(CodeRuleConflictDetected) {
		t.Fatalf("expected %s, got %+v", CodeRuleConflictDetected, res.Errors)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Resolved {
		t.Errorf("expected one unresolved conflict, got %+v", res.Conflicts)
	}
}

func TestValidateRuleSet_DefaultOrderPasses(t *testing.T) {
	set := catalog.DefaultCourtOrder()
	res := New(nil).ValidateRuleSet(set.Rules)
	if !res.Passed {
		t.Fatalf("expected default order to pass, got errors %+v warnings %+v", res.Errors, res.Warnings)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", res.Warnings)
	}
	if !almostEqual(res.ConfidenceScore, 1) {
		t.Errorf("expected score 1, got %f", res.ConfidenceScore)
	}
	if len(res.Notes) < 2 || res.Notes[len(res.Notes)-2] != "Validated 19 rules" {
		t.Errorf("unexpected notes %v", res.Notes)
	}
}

func TestValidateRuleSet_DuplicateAndFailedRule(t *testing.T) {
	bad := regularRule("dup", 100, domain.Mother)
	bad.Name = ""
	res := New(nil).ValidateRuleSet([]catalog.CustodyRule{regularRule("dup", 100, domain.Mother), bad})
	if !res.HasErrorCode(CodeDuplicateRuleID) || !res.HasErrorCode(CodeRuleValidationFailed) {
		t.Fatalf("expected duplicate and rule failure, got %+v", res.Errors)
	}
	if !almostEqual(res.ConfidenceScore, 0.75) {
		t.Errorf("expected mean score 0.75, got %f", res.ConfidenceScore)
	}
}

func TestValidateEvents(t *testing.T) {
	start := time.Date(2025, time.October, 2, 15, 0, 0, 0, time.UTC)
	ev := func(title string, prio domain.Priority, from, to int, p domain.Parent) domain.CustodyEvent {
		return domain.CustodyEvent{
			Title: title, Priority: prio, Parent: p, CustodyType: domain.CustodyRegular, SourceRuleID: "r",
			Start: start.Add(time.Duration(from) * time.Hour), End: start.Add(time.Duration(to) * time.Hour),
		}
	}
	eng := New(nil)

	clean := eng.ValidateEvents([]domain.CustodyEvent{ev("a", 100, 0, 18, domain.Mother), ev("b", 100, 18, 24, domain.Father)})
	if !clean.Passed {
		t.Fatalf("expected pass, got %+v", clean.Errors)
	}
	if clean.Stats.TotalEvents != 2 || clean.Stats.ByParent[domain.Mother] != 1 || clean.Stats.HoursByParent[domain.Mother] != 18 {
		t.Errorf("unexpected stats %+v", clean.Stats)
	}

	clash := eng.ValidateEvents([]domain.CustodyEvent{ev("a", 100, 0, 18, domain.Mother), ev("b", 100, 10, 24, domain.Father)})
	if clash.Passed || !clash.HasErrorCode(CodeConflictingEvents) {
		t.Errorf("expected conflicting events, got %+v", clash.Errors)
	}

	overlap := eng.ValidateEvents([]domain.CustodyEvent{ev("a", 100, 0, 18, domain.Mother), ev("b", 10, 10, 24, domain.Father)})
	if !hasCode(overlap.Warnings, CodeOverlappingEvents) {
		t.Errorf("expected overlap warning, got %+v", overlap.Warnings)
	}
}

func TestValidateEvent(t *testing.T) {
	res := New(nil).ValidateEvent(domain.CustodyEvent{Parent: "nobody"})
	for _, code := range []string{CodeMissingTitle, CodeInvalidDateRange, CodeInvalidCustodialParent} {
		if !res.HasErrorCode(code) {
			t.Errorf("expected %s, got %+v", code, res.Errors)
		}
	}
}
