package validation

import (
	"fmt"
	"strings"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// DetectConflicts compares two custody-assigning rules over their effective
// ranges. It returns nil when the rules cannot both be in force on the
// same day.
func DetectConflicts(a, b catalog.CustodyRule) *domain.ConflictReport {
	if !a.Type.AssignsCustody() || !b.Type.AssignsCustody() {
		return nil
	}
	if disjointParity(a.YearParity, b.YearParity) || !rangesOverlap(a, b) {
		return nil
	}

	pa, pb := a.Parents(), b.Parents()
	report := &domain.ConflictReport{RuleIDA: a.ID, RuleIDB: b.ID}
	switch {
	case a.Priority != b.Priority:
		report.Type = domain.ConflictOverlappingTime
		report.Severity = overlapSeverity(a, b, pa, pb)
		report.Resolved = true
		winner := a
		if b.Priority.Precedes(a.Priority) {
			winner = b
		}
		report.Description = fmt.Sprintf("'%s' (priority %d) and '%s' (priority %d) overlap; '%s' takes precedence",
			a.Name, a.Priority, b.Name, b.Priority, winner.Name)
	case !sameParents(pa, pb):
		report.Type = domain.ConflictContradictoryCustody
		report.Severity = domain.SeverityHigh
		report.Description = fmt.Sprintf("'%s' assigns %s and '%s' assigns %s at the same priority %d",
			a.Name, joinParents(pa), b.Name, joinParents(pb), a.Priority)
	default:
		report.Type = domain.ConflictPriorityUnclear
		report.Severity = domain.SeverityLow
		report.Resolved = true
		report.Description = fmt.Sprintf("'%s' and '%s' share priority %d but assign the same parents",
			a.Name, b.Name, a.Priority)
	}
	return report
}

func disjointParity(a, b domain.YearParity) bool {
	return (a == domain.ParityEven && b == domain.ParityOdd) || (a == domain.ParityOdd && b == domain.ParityEven)
}

// rangesOverlap compares inclusive effective ranges; a missing end is open.
func rangesOverlap(a, b catalog.CustodyRule) bool {
	return !after(a.EffectiveFrom, b.EffectiveUntil) && !after(b.EffectiveFrom, a.EffectiveUntil)
}

func after(d calendar.Date, until *calendar.Date) bool {
	return until != nil && d.After(*until)
}

func overlapSeverity(a, b catalog.CustodyRule, pa, pb []domain.Parent) domain.Severity {
	switch {
	case a.Priority < 50 && b.Priority < 50:
		return domain.SeverityCritical
	case !sameParents(pa, pb):
		return domain.SeverityHigh
	}
	return domain.SeverityMedium
}

func sameParents(a, b []domain.Parent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinParents(ps []domain.Parent) string {
	if len(ps) == 0 {
		return "no parent"
	}
	s := make([]string, len(ps))
	for i, p := range ps {
		s[i] = string(p)
	}
	return strings.Join(s, "/")
}
