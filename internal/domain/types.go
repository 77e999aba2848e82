// Package domain defines the core types shared by the custody engine.
package domain

import "time"

// Parent identifies a custodial parent.
type Parent string

const (
	Mother Parent = "mother"
	Father Parent = "father"
)

// Valid reports whether p is one of the two known parents.
func (p Parent) Valid() bool {
	return p == Mother || p == Father
}

// Other returns the opposite parent. Unknown values are returned unchanged.
func (p Parent) Other() Parent {
	switch p {
	case Mother:
		return Father
	case Father:
		return Mother
	}
	return p
}

// Priority orders rules. Lower values take precedence over higher values.
type Priority int

// Precedes reports whether p wins over q.
func (p Priority) Precedes(q Priority) bool {
	return p < q
}

// YearParity selects the calendar years a rule applies to.
type YearParity string

const (
	ParityEven YearParity = "even"
	ParityOdd  YearParity = "odd"
	ParityAll  YearParity = "all"
)

// Matches reports whether year satisfies the parity. An empty parity means all years.
func (y YearParity) Matches(year int) bool {
	switch y {
	case ParityEven:
		return year%2 == 0
	case ParityOdd:
		return year%2 != 0
	}
	return true
}

// ParityOf classifies a calendar year.
func ParityOf(year int) YearParity {
	if year%2 == 0 {
		return ParityEven
	}
	return ParityOdd
}

// RuleType is the kind of custody rule.
type RuleType string

const (
	RuleRegularSchedule     RuleType = "regular_schedule"
	RuleSummerSchedule      RuleType = "summer_schedule"
	RuleHoliday             RuleType = "holiday"
	RuleSpecialDay          RuleType = "special_day"
	RuleTravel              RuleType = "travel"
	RuleRightOfFirstRefusal RuleType = "right_of_first_refusal"
	RuleExchangeProtocol    RuleType = "exchange_protocol"
	RuleChildcare           RuleType = "childcare"
)

// AssignsCustody reports whether rules of this type produce custody intervals.
func (t RuleType) AssignsCustody() bool {
	switch t {
	case RuleRegularSchedule, RuleSummerSchedule, RuleHoliday, RuleSpecialDay:
		return true
	}
	return false
}

// PriorityBand is the expected priority range for a rule type.
type PriorityBand struct {
	Min  Priority
	Max  Priority
	Name string
}

// PriorityBands lists the expected bands per rule type. They feed warnings only.
var PriorityBands = map[RuleType]PriorityBand{
	RuleSpecialDay:          {Min: 1, Max: 9, Name: "Special days"},
	RuleHoliday:             {Min: 10, Max: 49, Name: "Holidays"},
	RuleRightOfFirstRefusal: {Min: 50, Max: 89, Name: "ROFR"},
	RuleSummerSchedule:      {Min: 90, Max: 99, Name: "Summer schedule"},
	RuleRegularSchedule:     {Min: 100, Max: 149, Name: "Regular schedule"},
	RuleExchangeProtocol:    {Min: 150, Max: 199, Name: "Exchange protocol"},
	RuleTravel:              {Min: 200, Max: 249, Name: "Travel rules"},
	RuleChildcare:           {Min: 200, Max: 249, Name: "Childcare"},
}

// RuleCategory groups rules by the part of the order they implement.
type RuleCategory string

const (
	CategoryPhysicalCustody RuleCategory = "physical_custody"
	CategoryLegalCustody    RuleCategory = "legal_custody"
	CategoryTravel          RuleCategory = "travel"
	CategoryOther           RuleCategory = "other"
)

// CustodyType classifies a generated event.
type CustodyType string

const (
	CustodyRegular CustodyType = "regular"
	CustodyWeekend CustodyType = "weekend"
	CustodySummer  CustodyType = "summer"
	CustodyHoliday CustodyType = "holiday"
	CustodySpecial CustodyType = "special"
)

// Half marks which part of a split occurrence an event covers.
type Half int

const (
	HalfWhole Half = iota
	HalfFirst
	HalfSecond
)

// CustodyEvent is one generated custody interval.
type CustodyEvent struct {
	ID               string      `json:"id"`
	OccurrenceID     string      `json:"occurrence_id"`
	Start            time.Time   `json:"start"`
	End              time.Time   `json:"end"`
	Parent           Parent      `json:"parent"`
	CustodyType      CustodyType `json:"custody_type"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Priority         Priority    `json:"priority"`
	SourceRuleID     string      `json:"source_rule_id"`
	ExchangeLocation string      `json:"exchange_location,omitempty"`
	Half             Half        `json:"half,omitempty"`
}

// Contains reports whether t lies in [Start, End).
func (e CustodyEvent) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Duration returns the length of the interval.
func (e CustodyEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Severity grades validation issues, diagnostics and conflicts.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Blocking reports whether an issue of this severity fails validation.
func (s Severity) Blocking() bool {
	return s == SeverityCritical || s == SeverityHigh
}

// ConflictType classifies a conflict between two rules.
type ConflictType string

const (
	ConflictOverlappingTime      ConflictType = "OVERLAPPING_TIME"
	ConflictContradictoryCustody ConflictType = "CONTRADICTORY_CUSTODY"
	ConflictPriorityUnclear      ConflictType = "PRIORITY_UNCLEAR"
)

// ConflictReport describes how two rules interact over their effective ranges.
type ConflictReport struct {
	RuleIDA     string       `json:"rule_id_a"`
	RuleIDB     string       `json:"rule_id_b"`
	Type        ConflictType `json:"conflict_type"`
	Severity    Severity     `json:"severity"`
	Resolved    bool         `json:"resolved"`
	Description string       `json:"description"`
}

// Diagnostic codes emitted during generation.
const (
	DiagDateArithmetic = "DATE_ARITHMETIC_ERROR"
	DiagStructural     = "STRUCTURAL_ERROR"
	DiagMissingSchool  = "MISSING_COLLABORATOR_DATA"
	DiagBreakNotFound  = "SCHOOL_BREAK_NOT_FOUND"
	DiagEmptyInterval  = "EMPTY_INTERVAL"
	DiagDroppedOverlap = "DROPPED_BY_PRECEDENCE"
	DiagParityShift    = "PARITY_SHIFTED_START"
)

// Diagnostic is a non-fatal finding produced while generating events.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	RuleID   string   `json:"rule_id,omitempty"`
	Message  string   `json:"message"`
}

// ValidationIssue is a single error or warning from the validation engine.
type ValidationIssue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	RuleID   string   `json:"rule_id,omitempty"`
}

// ValidationResult is the outcome of validating a rule, rule set or event list.
type ValidationResult struct {
	Passed          bool              `json:"passed"`
	ConfidenceScore float64           `json:"confidence_score"`
	Errors          []ValidationIssue `json:"errors"`
	Warnings        []ValidationIssue `json:"warnings"`
	Notes           []string          `json:"notes"`
	Conflicts       []ConflictReport  `json:"conflicts,omitempty"`
}

// HasErrorCode reports whether any error carries the given code.
func (r ValidationResult) HasErrorCode(code string) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

// SyncResult reports the outcome of pushing a schedule to an external calendar.
type SyncResult struct {
	RunID       string   `json:"run_id"`
	WindowStart string   `json:"window_start"`
	WindowEnd   string   `json:"window_end"`
	TotalEvents int      `json:"total_events"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deleted     int      `json:"deleted"`
	Errors      []string `json:"errors,omitempty"`
	StartedAt   int64    `json:"started_at"`
	FinishedAt  int64    `json:"finished_at"`
}

// Success reports whether the run finished without errors.
func (r SyncResult) Success() bool {
	return len(r.Errors) == 0
}

// SyncedEvent is the last known state of an event in the external calendar.
type SyncedEvent struct {
	EventID    string
	ExternalID string
	Hash       string
	StartUnix  int64
	EndUnix    int64
	SyncedAt   int64
}

// ValidationCheck is a persisted validation run.
type ValidationCheck struct {
	ID              string
	TargetType      string
	TargetID        string
	Passed          bool
	ConfidenceScore float64
	ResultJSON      string
	CreatedAt       int64
}

// AuditRecord logs operational events such as sync runs.
type AuditRecord struct {
	ID         string
	Category   string
	Actor      string
	Action     string
	DetailJSON string
	Severity   string
	CreatedAt  int64
}
