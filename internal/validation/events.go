package validation

import (
	"fmt"
	"sort"

	"github.com/custodycal/custody-engine/internal/domain"
)

// Event issue codes.
const (
	CodeMissingTitle       = "MISSING_TITLE"
	CodeMissingCustodyType = "MISSING_CUSTODY_TYPE"
	CodeMissingSourceRule  = "MISSING_SOURCE_RULE"
	CodeConflictingEvents  = "CONFLICTING_EVENTS"
	CodeOverlappingEvents  = "OVERLAPPING_EVENTS"
)

// EventStats summarizes a generated schedule.
type EventStats struct {
	TotalEvents   int                        `json:"total_events"`
	ByType        map[domain.CustodyType]int `json:"by_type"`
	ByParent      map[domain.Parent]int      `json:"by_parent"`
	HoursByParent map[domain.Parent]float64  `json:"hours_by_parent"`
}

// EventReport is the validation result of a whole schedule.
type EventReport struct {
	domain.ValidationResult
	Stats EventStats `json:"stats"`
}

// ValidateEvent checks a single generated event.
func (e *Engine) ValidateEvent(ev domain.CustodyEvent) domain.ValidationResult {
	c := &collector{ruleID: ev.SourceRuleID}
	eventIssues(c, ev)
	return e.result(c, nil)
}

func eventIssues(c *collector, ev domain.CustodyEvent) {
	if ev.Title == "" {
		c.fail(CodeMissingTitle, domain.SeverityCritical, "title", "title is required")
	}
	if ev.CustodyType == "" {
		c.fail(CodeMissingCustodyType, domain.SeverityCritical, "custody_type", "custody_type is required")
	}
	if ev.SourceRuleID == "" {
		c.fail(CodeMissingSourceRule, domain.SeverityMedium, "source_rule_id", "event has no source rule")
	}
	if !ev.Start.Before(ev.End) {
		c.fail(CodeInvalidDateRange, domain.SeverityCritical, "end", "end must be after start")
	}
	if !ev.Parent.Valid() {
		c.fail(CodeInvalidCustodialParent, domain.SeverityCritical, "parent", "parent must be mother or father")
	}
}

// ValidateEvents checks every event and the schedule as a whole. Two
// overlapping events are an error when they share a priority and a warning
// otherwise.
func (e *Engine) ValidateEvents(events []domain.CustodyEvent) EventReport {
	c := &collector{}
	stats := EventStats{
		TotalEvents:   len(events),
		ByType:        map[domain.CustodyType]int{},
		ByParent:      map[domain.Parent]int{},
		HoursByParent: map[domain.Parent]float64{},
	}
	for _, ev := range events {
		c.ruleID = ev.SourceRuleID
		eventIssues(c, ev)
		stats.ByType[ev.CustodyType]++
		stats.ByParent[ev.Parent]++
		stats.HoursByParent[ev.Parent] += ev.Duration().Hours()
	}
	c.ruleID = ""

	sorted := make([]domain.CustodyEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted) && sorted[j].Start.Before(sorted[i].End); j++ {
			a, b := sorted[i], sorted[j]
			if !a.End.After(b.Start) {
				continue
			}
			if a.Priority == b.Priority {
				c.fail(CodeConflictingEvents, domain.SeverityHigh, "events",
					"conflicting events with same priority: %q and %q", a.Title, b.Title)
			} else {
				c.warn(CodeOverlappingEvents, "events",
					"overlapping events: %q (priority %d) and %q (priority %d)", a.Title, a.Priority, b.Title, b.Priority)
			}
		}
	}

	notes := []string{fmt.Sprintf("Validated %d events", len(events))}
	return EventReport{ValidationResult: e.result(c, notes), Stats: stats}
}
