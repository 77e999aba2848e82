package policy

import (
	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
)

// TravelRequirements are the obligations attached to one planned trip.
type TravelRequirements struct {
	TravelType          catalog.TravelType `json:"travel_type"`
	Departure           calendar.Date      `json:"departure"`
	RequiresConsent     bool               `json:"requires_consent"`
	NoticeDeadline      calendar.Date      `json:"notice_deadline"`
	DocumentsDeadline   *calendar.Date     `json:"documents_deadline,omitempty"`
	RequiredInformation []string           `json:"required_information,omitempty"`
	// ConsentNotWithheld is true when consent may not be unreasonably withheld.
	ConsentNotWithheld bool `json:"consent_not_withheld,omitempty"`
}

// Timely reports whether notice given on the date meets the deadline.
func (r TravelRequirements) Timely(noticeGiven calendar.Date) bool {
	return !noticeGiven.After(r.NoticeDeadline)
}

// TravelNotice computes notice and document deadlines for a departure date.
func TravelNotice(rule *catalog.Travel, departure calendar.Date) (TravelRequirements, error) {
	if rule == nil || rule.TravelType == "" {
		return TravelRequirements{}, domain.ErrStructural.Detail("travel rule has no travel type")
	}
	req := TravelRequirements{
		TravelType:          rule.TravelType,
		Departure:           departure,
		RequiresConsent:     rule.RequiresConsent,
		NoticeDeadline:      departure.AddDays(-rule.NoticeDays),
		RequiredInformation: rule.RequiredInformation,
		ConsentNotWithheld:  rule.CannotUnreasonablyWithhold,
	}
	if rule.DocumentDeliveryDays > 0 {
		d := departure.AddDays(-rule.DocumentDeliveryDays)
		req.DocumentsDeadline = &d
	}
	return req, nil
}
