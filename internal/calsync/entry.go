// Package calsync pushes resolved custody schedules to an external
// calendar and keeps track of what has already been pushed.
package calsync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/custodycal/custody-engine/internal/domain"
)

// Calendar colour IDs per parent.
const (
	ColorMother = "9"
	ColorFather = "11"
)

// Reminder is a notification attached to a calendar entry.
type Reminder struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

// DefaultReminders fire one day and one hour before an event.
var DefaultReminders = []Reminder{
	{Method: "email", Minutes: 24 * 60},
	{Method: "popup", Minutes: 60},
}

// CalendarEntry is the external calendar representation of an event.
type CalendarEntry struct {
	EventID     string            `json:"event_id"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Location    string            `json:"location,omitempty"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	TimeZone    string            `json:"time_zone"`
	ColorID     string            `json:"color_id"`
	Reminders   []Reminder        `json:"reminders"`
	Properties  map[string]string `json:"properties"`
}

// EntryFor maps a custody event to a calendar entry.
func EntryFor(ev domain.CustodyEvent, zone *time.Location) CalendarEntry {
	color := ColorMother
	if ev.Parent == domain.Father {
		color = ColorFather
	}
	desc := ev.Description
	if desc == "" {
		desc = "Custody: " + string(ev.CustodyType)
	}
	return CalendarEntry{
		EventID:     ev.ID,
		Summary:     ev.Title,
		Description: desc,
		Location:    ev.ExchangeLocation,
		Start:       ev.Start.In(zone),
		End:         ev.End.In(zone),
		TimeZone:    zone.String(),
		ColorID:     color,
		Reminders:   DefaultReminders,
		Properties: map[string]string{
			"custodyEventId": ev.ID,
			"custodyType":    string(ev.CustodyType),
			"parent":         string(ev.Parent),
			"priority":       strconv.Itoa(int(ev.Priority)),
			"sourceRuleId":   ev.SourceRuleID,
		},
	}
}

// Hash is a content hash of the entry. Two entries with the same hash
// render identically in the external calendar.
func (e CalendarEntry) Hash() string {
	// encoding/json sorts map keys, so the encoding is stable.
	b, _ := json.Marshal(struct {
		CalendarEntry
		Start int64 `json:"start"`
		End   int64 `json:"end"`
	}{e, e.Start.Unix(), e.End.Unix()})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
