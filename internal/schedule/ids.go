package schedule

import "github.com/google/uuid"

var eventNamespace = uuid.MustParse("6f2b7d0e-3c1a-5e8b-9a47-1d2c3b4a5f60")

// OccurrenceID is the stable identifier shared by every event of one
// occurrence of a rule.
func OccurrenceID(ruleID, occKey string) string {
	return uuid.NewSHA1(eventNamespace, []byte(ruleID+"|"+occKey)).String()
}

// EventID is the stable identifier of one part of an occurrence. The same
// rule, occurrence and part always produce the same ID.
func EventID(ruleID, occKey, part string) string {
	return uuid.NewSHA1(eventNamespace, []byte(ruleID+"|"+occKey+"|"+part)).String()
}
