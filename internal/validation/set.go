package validation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// ValidateRuleSet validates every rule, then every pair of rules for
// conflicts. Conflicts resolved by precedence become notes; unresolved
// ones fail the set. The set score is the mean rule score.
func (e *Engine) ValidateRuleSet(rules []catalog.CustodyRule) domain.ValidationResult {
	c := &collector{}
	var notes []string

	if len(rules) == 0 {
		c.fail(CodeEmptyRuleSet, domain.SeverityHigh, "rules", "rule set contains no rules")
	}

	total := decimal.Zero
	ids := map[string]bool{}
	for _, rule := range rules {
		if rule.ID != "" && ids[rule.ID] {
			c.fail(CodeDuplicateRuleID, domain.SeverityHigh, "id", "rule id '%s' is used more than once", rule.ID)
		}
		ids[rule.ID] = true

		res := e.ValidateRule(rule)
		if blocking(res.Errors) > 0 {
			c.errors = append(c.errors, domain.ValidationIssue{
				Code:     CodeRuleValidationFailed,
				Severity: domain.SeverityHigh,
				RuleID:   rule.ID,
				Message:  fmt.Sprintf("rule '%s' failed validation", rule.Name),
			})
		}
		c.errors = append(c.errors, res.Errors...)
		c.warnings = append(c.warnings, res.Warnings...)
		total = total.Add(decimal.NewFromFloat(res.ConfidenceScore))
	}

	var conflicts []domain.ConflictReport
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			report := DetectConflicts(rules[i], rules[j])
			if report == nil {
				continue
			}
			conflicts = append(conflicts, *report)
			if report.Resolved {
				notes = append(notes, "Overlapping rules resolved by priority: "+report.Description)
				continue
			}
			c.errors = append(c.errors, domain.ValidationIssue{
				Code:     CodeRuleConflictDetected,
				Severity: domain.SeverityHigh,
				RuleID:   rules[i].ID,
				Message: fmt.Sprintf("unresolved conflict between '%s' and '%s': %s",
					rules[i].Name, rules[j].Name, report.Description),
			})
		}
	}

	avg := decimal.Zero
	if len(rules) > 0 {
		avg = total.Div(decimal.NewFromInt(int64(len(rules))))
	}
	notes = append(notes,
		fmt.Sprintf("Validated %d rules", len(rules)),
		"Average confidence score: "+avg.StringFixed(4))

	f, _ := avg.Float64()
	res := domain.ValidationResult{
		Passed:          blocking(c.errors) == 0 && avg.GreaterThanOrEqual(e.MinConfidence),
		ConfidenceScore: f,
		Errors:          c.errors,
		Warnings:        c.warnings,
		Notes:           notes,
		Conflicts:       conflicts,
	}
	e.Log.WithFields(logrus.Fields{
		"rules":     len(rules),
		"passed":    res.Passed,
		"errors":    len(res.Errors),
		"conflicts": len(conflicts),
	}).Debug("rule set validated")
	return res
}
