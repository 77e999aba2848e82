package domain

import "fmt"

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// Is reports whether target is an EngineError with the same code, so that
// errors built with NewEngineError still match their sentinel.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// Detail returns a copy of the sentinel with extra context appended to the message.
func (e *EngineError) Detail(format string, args ...any) *EngineError {
	return &EngineError{Code: e.Code, Message: e.Message + ": " + fmt.Sprintf(format, args...)}
}

// ---- Rule structure errors (-32010 to -32019) ----

var (
	ErrStructural       = &EngineError{Code: -32010, Message: "rule is structurally invalid"}
	ErrRuleDataMismatch = &EngineError{Code: -32011, Message: "rule data does not match rule type"}
	ErrUnknownRuleType  = &EngineError{Code: -32012, Message: "unknown rule type"}
	ErrInvalidParent    = &EngineError{Code: -32013, Message: "invalid custodial parent"}
	ErrDuplicateRule    = &EngineError{Code: -32014, Message: "duplicate rule id"}
)

// ---- Date arithmetic errors (-32020 to -32029) ----

var (
	ErrDateArithmetic = &EngineError{Code: -32020, Message: "date does not exist"}
	ErrUnknownAnchor  = &EngineError{Code: -32021, Message: "unknown named date anchor"}
	ErrInvalidClock   = &EngineError{Code: -32022, Message: "invalid time of day"}
	ErrInvalidDate    = &EngineError{Code: -32023, Message: "invalid civil date"}
	ErrEmptyInterval  = &EngineError{Code: -32024, Message: "interval end is not after start"}
)

// ---- Query errors (-32030 to -32039) ----

var (
	ErrInvalidWindow = &EngineError{Code: -32030, Message: "query window start is after end"}
	ErrWindowTooWide = &EngineError{Code: -32031, Message: "query window exceeds maximum span"}
	ErrRuleNotFound  = &EngineError{Code: -32032, Message: "rule not found"}
)

// ---- Collaborator warnings (-32050 to -32059) ----

var (
	ErrMissingSchoolData = &EngineError{Code: -32050, Message: "school schedule data unavailable"}
	ErrBreakNotFound     = &EngineError{Code: -32051, Message: "school break could not be located"}
)

// ---- Guard errors (-32100 to -32109) ----

var (
	ErrRateLimitExceeded = &EngineError{Code: -32103, Message: "rate limit exceeded"}
)

// ---- Store / Sync / Config errors (-32130 to -32159) ----

var (
	ErrStoreInit      = &EngineError{Code: -32130, Message: "failed to initialize store"}
	ErrStoreQuery     = &EngineError{Code: -32131, Message: "store query failed"}
	ErrStoreWrite     = &EngineError{Code: -32132, Message: "store write failed"}
	ErrConfigInvalid  = &EngineError{Code: -32136, Message: "invalid configuration"}
	ErrSyncFailed     = &EngineError{Code: -32140, Message: "calendar sync failed"}
	ErrSyncInProgress = &EngineError{Code: -32141, Message: "a sync run is already in progress"}
	ErrCatalogInvalid = &EngineError{Code: -32150, Message: "rule catalog could not be loaded"}
)
