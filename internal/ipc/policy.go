package ipc

import (
	"net/http"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/policy"
)

// CheckRefusal handles POST /api/v1/policy/rofr.
func (h *Handler) CheckRefusal(w http.ResponseWriter, r *http.Request) {
	var a policy.Absence
	if err := decodeBody(r, &a); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := validate.Struct(a); err != nil {
		writeValidationError(w, err)
		return
	}
	rule, ok := policy.FindRefusalRule(h.RuleSet.Rules)
	if !ok {
		writeError(w, domain.ErrRuleNotFound.Detail("no right of first refusal rule"))
		return
	}

	zone := h.Engine.Zone()
	start := calendar.DateOf(a.Start, zone).AddDays(-1)
	end := calendar.DateOf(a.End, zone).AddDays(1)
	if err := h.Guard.CheckAll(clientID(r), start, end); err != nil {
		writeError(w, err)
		return
	}
	sched, err := h.Engine.GenerateEvents(r.Context(), h.RuleSet.Rules, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := policy.RightOfFirstRefusal(rule, sched.Events, a, h.Engine.DefaultParent, zone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CheckTravel handles POST /api/v1/policy/travel.
func (h *Handler) CheckTravel(w http.ResponseWriter, r *http.Request) {
	var req TravelRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	rule, ok := policy.FindTravelRule(h.RuleSet.Rules, req.TravelType)
	if !ok {
		writeError(w, domain.ErrRuleNotFound.Detail("no %s travel rule", req.TravelType))
		return
	}
	res, err := policy.TravelNotice(rule, calendar.MustParseDate(req.Departure))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CheckChildcare handles POST /api/v1/policy/childcare.
func (h *Handler) CheckChildcare(w http.ResponseWriter, r *http.Request) {
	var req policy.CareRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	rule, ok := policy.FindChildcareRule(h.RuleSet.Rules)
	if !ok {
		writeError(w, domain.ErrRuleNotFound.Detail("no childcare rule"))
		return
	}
	d, err := policy.ChildcareAllowed(rule, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
