package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

func zone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := calendar.LoadZone("")
	if err != nil {
		t.Fatalf("LoadZone: %v", err)
	}
	return loc
}

func defaultRules() []catalog.CustodyRule {
	return catalog.DefaultCourtOrder().Rules
}

func fatherWeekend(loc *time.Location) []domain.CustodyEvent {
	return []domain.CustodyEvent{
		{
			ID: "we", Parent: domain.Father, CustodyType: domain.CustodyRegular,
			Start: time.Date(2025, time.October, 10, 15, 0, 0, 0, loc),
			End:   time.Date(2025, time.October, 13, 8, 20, 0, 0, loc),
		},
		{
			ID: "th", Parent: domain.Mother, CustodyType: domain.CustodyRegular,
			Start: time.Date(2025, time.October, 16, 15, 0, 0, 0, loc),
			End:   time.Date(2025, time.October, 17, 8, 20, 0, 0, loc),
		},
	}
}

func TestRightOfFirstRefusal_TwoOvernights(t *testing.T) {
	loc := zone(t)
	rule, ok := FindRefusalRule(defaultRules())
	if !ok {
		t.Fatal("default order has no refusal rule")
	}
	start := time.Date(2025, time.October, 10, 18, 0, 0, 0, loc)
	d, err := RightOfFirstRefusal(rule, fatherWeekend(loc), Absence{
		Parent: domain.Father,
		Start:  start,
		End:    time.Date(2025, time.October, 12, 10, 0, 0, 0, loc),
	}, domain.Mother, loc)
	if err != nil {
		t.Fatalf("RightOfFirstRefusal: %v", err)
	}
	if !d.Required {
		t.Fatalf("expected refusal offer, got %+v", d)
	}
	if d.Overnights != 2 {
		t.Errorf("overnights = %d, want 2", d.Overnights)
	}
	if d.OfferTo != domain.Mother {
		t.Errorf("offer to = %s, want mother", d.OfferTo)
	}
	if !d.OfferBy.Equal(start.Add(-24 * time.Hour)) {
		t.Errorf("offer by = %s", d.OfferBy)
	}
	if !d.RespondBy.Equal(start) {
		t.Errorf("respond by = %s, want %s", d.RespondBy, start)
	}
}

func TestRightOfFirstRefusal_SingleOvernight(t *testing.T) {
	loc := zone(t)
	rule, _ := FindRefusalRule(defaultRules())
	d, err := RightOfFirstRefusal(rule, fatherWeekend(loc), Absence{
		Parent: domain.Father,
		Start:  time.Date(2025, time.October, 11, 18, 0, 0, 0, loc),
		End:    time.Date(2025, time.October, 12, 10, 0, 0, 0, loc),
	}, domain.Mother, loc)
	if err != nil {
		t.Fatalf("RightOfFirstRefusal: %v", err)
	}
	if d.Required || d.Overnights != 1 {
		t.Errorf("got %+v, want one overnight and no offer", d)
	}
	if !d.OfferBy.IsZero() {
		t.Errorf("offer deadline set without an offer")
	}
}

func TestRightOfFirstRefusal_OutsideCustodialTime(t *testing.T) {
	loc := zone(t)
	rule, _ := FindRefusalRule(defaultRules())
	// Mother is away over father's weekend. With no default parent the
	// Friday morning gap is nobody's time either.
	d, err := RightOfFirstRefusal(rule, fatherWeekend(loc), Absence{
		Parent: domain.Mother,
		Start:  time.Date(2025, time.October, 10, 0, 0, 0, 0, loc),
		End:    time.Date(2025, time.October, 13, 0, 0, 0, 0, loc),
	}, "", loc)
	if err != nil {
		t.Fatalf("RightOfFirstRefusal: %v", err)
	}
	if d.Required || d.Overnights != 0 || d.Hours != 0 {
		t.Errorf("got %+v, want nothing counted", d)
	}
}

func TestRightOfFirstRefusal_DefaultParentTime(t *testing.T) {
	loc := zone(t)
	rule, _ := FindRefusalRule(defaultRules())

	tests := []struct {
		name       string
		a          Absence
		required   bool
		overnights int
		hours      float64
	}{
		{
			// Tuesday to Thursday falls between events; it is mother's by default.
			name:       "mother midweek",
			a:          Absence{Parent: domain.Mother, Start: time.Date(2025, time.October, 14, 8, 0, 0, 0, loc), End: time.Date(2025, time.October, 16, 10, 0, 0, 0, loc)},
			required:   true,
			overnights: 2,
			hours:      50,
		},
		{
			name: "father midweek",
			a:    Absence{Parent: domain.Father, Start: time.Date(2025, time.October, 14, 8, 0, 0, 0, loc), End: time.Date(2025, time.October, 16, 10, 0, 0, 0, loc)},
		},
		{
			// The gap runs into mother's Thursday event; the two parts join.
			name:       "gap then event",
			a:          Absence{Parent: domain.Mother, Start: time.Date(2025, time.October, 15, 12, 0, 0, 0, loc), End: time.Date(2025, time.October, 17, 6, 0, 0, 0, loc)},
			required:   true,
			overnights: 2,
			hours:      42,
		},
		{
			// Friday morning before father's weekend starts at 15:00.
			name:  "mother before handoff",
			a:     Absence{Parent: domain.Mother, Start: time.Date(2025, time.October, 10, 0, 0, 0, 0, loc), End: time.Date(2025, time.October, 13, 0, 0, 0, 0, loc)},
			hours: 15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := RightOfFirstRefusal(rule, fatherWeekend(loc), tt.a, domain.Mother, loc)
			if err != nil {
				t.Fatalf("RightOfFirstRefusal: %v", err)
			}
			if d.Required != tt.required || d.Overnights != tt.overnights || d.Hours != tt.hours {
				t.Errorf("got required=%v overnights=%d hours=%v, want %v %d %v",
					d.Required, d.Overnights, d.Hours, tt.required, tt.overnights, tt.hours)
			}
			if tt.required && d.OfferTo != tt.a.Parent.Other() {
				t.Errorf("offer to = %s", d.OfferTo)
			}
		})
	}
}

func TestRightOfFirstRefusal_HoursThreshold(t *testing.T) {
	loc := zone(t)
	rule := &catalog.RightOfFirstRefusal{
		Threshold:         &catalog.Threshold{Duration: 4, Unit: catalog.UnitHours},
		NotificationHours: 2,
		ResponseHours:     1,
	}
	d, err := RightOfFirstRefusal(rule, fatherWeekend(loc), Absence{
		Parent: domain.Father,
		Start:  time.Date(2025, time.October, 11, 9, 0, 0, 0, loc),
		End:    time.Date(2025, time.October, 11, 14, 0, 0, 0, loc),
	}, domain.Mother, loc)
	if err != nil {
		t.Fatalf("RightOfFirstRefusal: %v", err)
	}
	if !d.Required || d.Hours != 5 {
		t.Errorf("got %+v, want 5 hours and an offer", d)
	}
	want := time.Date(2025, time.October, 11, 8, 0, 0, 0, loc)
	if !d.RespondBy.Equal(want) {
		t.Errorf("respond by = %s, want %s", d.RespondBy, want)
	}
}

func TestRightOfFirstRefusal_Errors(t *testing.T) {
	loc := zone(t)
	rule, _ := FindRefusalRule(defaultRules())
	start := time.Date(2025, time.October, 11, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		rule     *catalog.RightOfFirstRefusal
		a        Absence
		fallback domain.Parent
		want     error
	}{
		{"no threshold", &catalog.RightOfFirstRefusal{}, Absence{Parent: domain.Father, Start: start, End: start.Add(time.Hour)}, domain.Mother, domain.ErrStructural},
		{"bad parent", rule, Absence{Parent: "grandma", Start: start, End: start.Add(time.Hour)}, domain.Mother, domain.ErrInvalidParent},
		{"bad default parent", rule, Absence{Parent: domain.Father, Start: start, End: start.Add(time.Hour)}, "grandma", domain.ErrInvalidParent},
		{"empty", rule, Absence{Parent: domain.Father, Start: start, End: start}, domain.Mother, domain.ErrEmptyInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RightOfFirstRefusal(tt.rule, nil, tt.a, tt.fallback, loc)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTravelNotice(t *testing.T) {
	rules := defaultRules()
	departure := calendar.D(2026, time.July, 1)

	dom, ok := FindTravelRule(rules, catalog.TravelDomestic)
	if !ok {
		t.Fatal("no domestic travel rule")
	}
	req, err := TravelNotice(dom, departure)
	if err != nil {
		t.Fatalf("TravelNotice: %v", err)
	}
	if req.RequiresConsent {
		t.Error("domestic travel should not need consent")
	}
	if req.NoticeDeadline != calendar.D(2026, time.June, 1) {
		t.Errorf("notice deadline = %s, want 2026-06-01", req.NoticeDeadline)
	}
	if req.DocumentsDeadline != nil {
		t.Errorf("unexpected documents deadline %s", req.DocumentsDeadline)
	}
	if !req.Timely(calendar.D(2026, time.June, 1)) || req.Timely(calendar.D(2026, time.June, 2)) {
		t.Error("Timely disagrees with the notice deadline")
	}

	intl, ok := FindTravelRule(rules, catalog.TravelInternational)
	if !ok {
		t.Fatal("no international travel rule")
	}
	req, err = TravelNotice(intl, departure)
	if err != nil {
		t.Fatalf("TravelNotice: %v", err)
	}
	if !req.RequiresConsent || !req.ConsentNotWithheld {
		t.Errorf("international travel consent flags wrong: %+v", req)
	}
	if req.NoticeDeadline != calendar.D(2026, time.May, 2) {
		t.Errorf("notice deadline = %s, want 2026-05-02", req.NoticeDeadline)
	}
	if req.DocumentsDeadline == nil || *req.DocumentsDeadline != calendar.D(2026, time.June, 21) {
		t.Errorf("documents deadline = %v, want 2026-06-21", req.DocumentsDeadline)
	}

	if _, err := TravelNotice(nil, departure); !errors.Is(err, domain.ErrStructural) {
		t.Errorf("nil rule: err = %v", err)
	}
}

func TestChildcareAllowed(t *testing.T) {
	loc := zone(t)
	rule, ok := FindChildcareRule(defaultRules())
	if !ok {
		t.Fatal("no childcare rule")
	}
	start := time.Date(2025, time.October, 11, 18, 0, 0, 0, loc)

	tests := []struct {
		name       string
		req        CareRequest
		allowed    bool
		violations int
	}{
		{"finn within limits", CareRequest{ProviderName: "Finn", ProviderAge: 16, Start: start, End: start.Add(3 * time.Hour), Location: "fathers_home", PriorSessionsThisWeek: 1}, true, 0},
		{"finn too long", CareRequest{ProviderName: "finn", ProviderAge: 16, Start: start, End: start.Add(4 * time.Hour), Location: "fathers_home"}, false, 1},
		{"finn third session elsewhere", CareRequest{ProviderName: "Finn", ProviderAge: 16, Start: start, End: start.Add(time.Hour), Location: "park", PriorSessionsThisWeek: 2}, false, 2},
		{"finn too young", CareRequest{ProviderName: "Finn", ProviderAge: 14, Start: start, End: start.Add(time.Hour), Location: "fathers_home"}, false, 1},
		{"adult sitter", CareRequest{ProviderName: "Sam", ProviderAge: 25, Start: start, End: start.Add(6 * time.Hour)}, true, 0},
		{"minor sitter", CareRequest{ProviderName: "Sam", ProviderAge: 17, Start: start, End: start.Add(time.Hour)}, false, 1},
		{"no name", CareRequest{ProviderAge: 30, Start: start, End: start.Add(time.Hour)}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ChildcareAllowed(rule, tt.req)
			if err != nil {
				t.Fatalf("ChildcareAllowed: %v", err)
			}
			if d.Allowed != tt.allowed {
				t.Errorf("allowed = %v, want %v (%v)", d.Allowed, tt.allowed, d.Violations)
			}
			if len(d.Violations) != tt.violations {
				t.Errorf("violations = %v, want %d", d.Violations, tt.violations)
			}
			if !d.NotifyOtherParent {
				t.Error("notification should be required")
			}
		})
	}

	if _, err := ChildcareAllowed(rule, CareRequest{ProviderName: "Finn", Start: start, End: start}); !errors.Is(err, domain.ErrEmptyInterval) {
		t.Errorf("empty session: err = %v", err)
	}
}
