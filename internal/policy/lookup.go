package policy

import "github.com/custodycal/custody-engine/internal/catalog"

// FindRefusalRule returns the first right-of-first-refusal payload in rules.
func FindRefusalRule(rules []catalog.CustodyRule) (*catalog.RightOfFirstRefusal, bool) {
	for _, r := range rules {
		if d, ok := r.Data.(*catalog.RightOfFirstRefusal); ok {
			return d, true
		}
	}
	return nil, false
}

// FindTravelRule returns the travel payload of the given type.
func FindTravelRule(rules []catalog.CustodyRule, t catalog.TravelType) (*catalog.Travel, bool) {
	for _, r := range rules {
		if d, ok := r.Data.(*catalog.Travel); ok && d.TravelType == t {
			return d, true
		}
	}
	return nil, false
}

// FindChildcareRule returns the first childcare payload in rules.
func FindChildcareRule(rules []catalog.CustodyRule) (*catalog.Childcare, bool) {
	for _, r := range rules {
		if d, ok := r.Data.(*catalog.Childcare); ok {
			return d, true
		}
	}
	return nil, false
}
