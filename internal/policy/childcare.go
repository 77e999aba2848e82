package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// CareRequest describes one planned childcare session.
type CareRequest struct {
	ProviderName string    `json:"provider_name"`
	ProviderAge  int       `json:"provider_age" validate:"gte=0"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required,gtfield=Start"`
	Location     string    `json:"location,omitempty"`
	// PriorSessionsThisWeek counts sessions with this provider earlier in
	// the same week.
	PriorSessionsThisWeek int `json:"prior_sessions_this_week" validate:"gte=0"`
}

// CareDecision is the outcome of a childcare check.
type CareDecision struct {
	Allowed           bool                       `json:"allowed"`
	Provider          *catalog.ChildcareProvider `json:"provider,omitempty"`
	Violations        []string                   `json:"violations,omitempty"`
	NotifyOtherParent bool                       `json:"notify_other_parent"`
}

// ChildcareAllowed checks a session against the approved providers. A
// named provider is matched by name; anyone else falls under the
// third-party provision.
func ChildcareAllowed(rule *catalog.Childcare, req CareRequest) (CareDecision, error) {
	if rule == nil {
		return CareDecision{}, domain.ErrStructural.Detail("no childcare rule")
	}
	if !req.Start.Before(req.End) {
		return CareDecision{}, domain.ErrEmptyInterval.Detail("childcare session %s to %s", req.Start, req.End)
	}

	d := CareDecision{NotifyOtherParent: rule.NotificationRequired}
	d.Provider = matchProvider(rule.Providers, req.ProviderName)
	if d.Provider == nil {
		d.Violations = append(d.Violations, fmt.Sprintf("%q is not an approved childcare provider", req.ProviderName))
		return d, nil
	}

	p := d.Provider
	if req.ProviderAge < p.MinAge {
		d.Violations = append(d.Violations, fmt.Sprintf("provider must be at least %d, is %d", p.MinAge, req.ProviderAge))
	}
	if p.MaxHoursPerSession > 0 {
		if hours := req.End.Sub(req.Start).Hours(); hours > float64(p.MaxHoursPerSession) {
			d.Violations = append(d.Violations, fmt.Sprintf("session of %.1f hours exceeds %d hours", hours, p.MaxHoursPerSession))
		}
	}
	if p.MaxSessionsPerWeek > 0 && req.PriorSessionsThisWeek+1 > p.MaxSessionsPerWeek {
		d.Violations = append(d.Violations, fmt.Sprintf("more than %d sessions this week", p.MaxSessionsPerWeek))
	}
	if p.Location != "" && req.Location != p.Location {
		d.Violations = append(d.Violations, fmt.Sprintf("care must take place at %s", p.Location))
	}
	d.Allowed = len(d.Violations) == 0
	return d, nil
}

func matchProvider(providers []catalog.ChildcareProvider, name string) *catalog.ChildcareProvider {
	var thirdParty *catalog.ChildcareProvider
	for i := range providers {
		p := &providers[i]
		switch p.Kind {
		case catalog.ProviderSpecificPerson:
			if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
				return p
			}
		case catalog.ProviderThirdParty:
			if thirdParty == nil {
				thirdParty = p
			}
		}
	}
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return thirdParty
}
