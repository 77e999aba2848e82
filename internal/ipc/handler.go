// Package ipc provides the HTTP API for the custody engine.
package ipc

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/calsync"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/custody"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/guard"
	"github.com/custodycal/custody-engine/internal/metrics"
	"github.com/custodycal/custody-engine/internal/store"
)

var validate = validator.New()

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Engine         *custody.Engine
	RuleSet        *catalog.RuleSet
	Guard          *guard.Guard
	Scheduler      *calsync.Scheduler
	DB             *sql.DB
	ValidationRepo *store.ValidationRepo
	Metrics        *metrics.Collector
	Log            logrus.FieldLogger
}

// WindowRequest selects an inclusive range of civil dates.
type WindowRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

// ValidateRequest is the body for POST /api/v1/validate. Omitting rules
// validates the loaded rule set.
type ValidateRequest struct {
	Rules []catalog.CustodyRule `json:"rules"`
}

// SyncRequest is the body for POST /api/v1/sync. Both dates are optional;
// the scheduler's window is used when they are absent.
type SyncRequest struct {
	Start string `json:"start" validate:"required_with=End,omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"required_with=Start,omitempty,datetime=2006-01-02"`
}

// TravelRequest is the body for POST /api/v1/policy/travel.
type TravelRequest struct {
	TravelType catalog.TravelType `json:"travel_type" validate:"required,oneof=domestic international"`
	Departure  string             `json:"departure" validate:"required,datetime=2006-01-02"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"`
	Rules       int    `json:"rules"`
	Version     string `json:"version,omitempty"`
	Zone        string `json:"zone"`
	SyncEnabled bool   `json:"sync_enabled"`
	SyncRunning bool   `json:"sync_running"`
}

// APIError is a structured error response.
type APIError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:      "ok",
		Rules:       len(h.RuleSet.Rules),
		Version:     h.RuleSet.Version,
		Zone:        h.Engine.Zone().String(),
		SyncEnabled: h.Scheduler != nil,
	}
	if h.Scheduler != nil {
		resp.SyncRunning = h.Scheduler.Syncer.Running()
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCalendar handles GET /api/v1/calendar?start=&end=.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	q := WindowRequest{Start: r.URL.Query().Get("start"), End: r.URL.Query().Get("end")}
	start, end, ok := h.window(w, r, q)
	if !ok {
		return
	}
	sched, err := h.Engine.GenerateEvents(r.Context(), h.RuleSet.Rules, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// GetCustody handles GET /api/v1/custody?at=RFC3339.
func (h *Handler) GetCustody(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.CheckRateLimit(clientID(r)); err != nil {
		writeError(w, err)
		return
	}
	raw := r.URL.Query().Get("at")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "at is required"})
		return
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "at must be an RFC 3339 timestamp"})
		return
	}
	ans, err := h.Engine.GetCustodyForInstant(r.Context(), h.RuleSet.Rules, at)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

// ListRules handles GET /api/v1/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.RuleSet{Version: h.RuleSet.Version, Rules: h.RuleSet.Sorted()})
}

// GetRule handles GET /api/v1/rules/{ruleID}.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("ruleID")
	rule, ok := h.RuleSet.ByID(id)
	if !ok {
		writeError(w, domain.ErrRuleNotFound.Detail("%q", id))
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// ValidateRules handles POST /api/v1/validate.
func (h *Handler) ValidateRules(w http.ResponseWriter, r *http.Request) {
	if err := h.Guard.CheckRateLimit(clientID(r)); err != nil {
		writeError(w, err)
		return
	}
	var req ValidateRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body: " + err.Error()})
		return
	}
	rules, target := req.Rules, "request"
	if rules == nil {
		rules, target = h.RuleSet.Rules, h.RuleSet.Version
	}
	res := h.Engine.ValidateRuleSet(rules)
	h.persist(r, "rule_set", target, res.Passed, res.ConfidenceScore, res)
	writeJSON(w, http.StatusOK, res)
}

// ValidateSchedule handles POST /api/v1/validate/schedule.
func (h *Handler) ValidateSchedule(w http.ResponseWriter, r *http.Request) {
	var req WindowRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	start, end, ok := h.window(w, r, req)
	if !ok {
		return
	}
	sched, err := h.Engine.GenerateEvents(r.Context(), h.RuleSet.Rules, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	report := h.Engine.ValidateSchedule(sched.Events)
	h.persist(r, "events", start.String()+"/"+end.String(), report.Passed, report.ConfidenceScore, report)
	writeJSON(w, http.StatusOK, report)
}

// TriggerSync handles POST /api/v1/sync.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeJSON(w, http.StatusServiceUnavailable, APIError{Code: 503, Message: "calendar sync is not enabled"})
		return
	}
	if err := h.Guard.CheckRateLimit(clientID(r)); err != nil {
		writeError(w, err)
		return
	}
	var req SyncRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	start, end := h.Scheduler.Window()
	if req.Start != "" {
		start, end = calendar.MustParseDate(req.Start), calendar.MustParseDate(req.End)
	}
	if err := h.Guard.CheckWindow(start, end); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Scheduler.RunOnce(r.Context(), start, end, "api")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListSyncRuns handles GET /api/v1/sync/runs?limit=.
func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeJSON(w, http.StatusServiceUnavailable, APIError{Code: 503, Message: "calendar sync is not enabled"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || validate.Var(n, "min=1,max=200") != nil {
			writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	runs, err := h.Scheduler.Syncer.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.SyncResult{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// window validates a date window query and applies the guard.
func (h *Handler) window(w http.ResponseWriter, r *http.Request, q WindowRequest) (calendar.Date, calendar.Date, bool) {
	if err := validate.Struct(q); err != nil {
		writeValidationError(w, err)
		return calendar.Date{}, calendar.Date{}, false
	}
	start, end := calendar.MustParseDate(q.Start), calendar.MustParseDate(q.End)
	if err := h.Guard.CheckAll(clientID(r), start, end); err != nil {
		writeError(w, err)
		return calendar.Date{}, calendar.Date{}, false
	}
	return start, end, true
}

func (h *Handler) persist(r *http.Request, targetType, targetID string, passed bool, score float64, result any) {
	if h.DB == nil || h.ValidationRepo == nil {
		return
	}
	body, _ := json.Marshal(result)
	check := domain.ValidationCheck{
		ID:              uuid.NewString(),
		TargetType:      targetType,
		TargetID:        targetID,
		Passed:          passed,
		ConfidenceScore: score,
		ResultJSON:      string(body),
		CreatedAt:       time.Now().Unix(),
	}
	if err := h.ValidationRepo.Save(r.Context(), h.DB, check); err != nil && h.Log != nil {
		h.Log.WithError(err).Warn("validation check not persisted")
	}
}

// decodeBody decodes a JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// clientID keys rate limits by remote host.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid input"})
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "validation failed", Fields: fields})
}

func writeError(w http.ResponseWriter, err error) {
	var engErr *domain.EngineError
	if errors.As(err, &engErr) {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrRuleNotFound.Code:
			status = http.StatusNotFound
		case domain.ErrSyncInProgress.Code:
			status = http.StatusConflict
		case domain.ErrRateLimitExceeded.Code:
			status = http.StatusTooManyRequests
		case domain.ErrInvalidWindow.Code, domain.ErrWindowTooWide.Code,
			domain.ErrInvalidParent.Code, domain.ErrEmptyInterval.Code, domain.ErrInvalidDate.Code:
			status = http.StatusBadRequest
		case domain.ErrStructural.Code, domain.ErrRuleDataMismatch.Code:
			status = http.StatusUnprocessableEntity
		case domain.ErrSyncFailed.Code:
			status = http.StatusBadGateway
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}
