// Package custody is the entry point of the custody engine: it expands a
// rule set over a window, resolves overlaps by precedence and answers
// "who has the children" queries.
package custody

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/resolver"
	"github.com/custodycal/custody-engine/internal/schedule"
	"github.com/custodycal/custody-engine/internal/school"
	"github.com/custodycal/custody-engine/internal/validation"
)

// instantLookaround is how far either side of a queried instant rules are
// expanded.
const instantLookaround = 7

// Recorder receives engine measurements. The metrics package implements it.
type Recorder interface {
	ObserveGeneration(rules, events, dropped int, elapsed time.Duration)
	ObserveDiagnostics(diags []domain.Diagnostic)
	ObserveValidation(kind string, passed bool)
}

type noopRecorder struct{}

func (noopRecorder) ObserveGeneration(int, int, int, time.Duration) {}
func (noopRecorder) ObserveDiagnostics([]domain.Diagnostic)         {}
func (noopRecorder) ObserveValidation(string, bool)                 {}

// Options configure an Engine. Zero values select the defaults.
type Options struct {
	Zone          *time.Location
	School        school.Provider
	DefaultParent domain.Parent
	Log           logrus.FieldLogger
	Recorder      Recorder
}

// Engine evaluates custody rule sets. It keeps no state between calls and
// is safe for concurrent use.
type Engine struct {
	Generator     *schedule.Generator
	Validator     *validation.Engine
	DefaultParent domain.Parent
	Log           logrus.FieldLogger
	Recorder      Recorder
}

// New builds an Engine from opts.
func New(opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = schedule.DiscardLogger()
	}
	zone := opts.Zone
	if zone == nil {
		var err error
		if zone, err = calendar.LoadZone(""); err != nil {
			zone = time.UTC
		}
	}
	parent := opts.DefaultParent
	if !parent.Valid() {
		parent = domain.Mother
	}
	rec := opts.Recorder
	if rec == nil {
		rec = noopRecorder{}
	}
	return &Engine{
		Generator:     schedule.New(zone, opts.School, log),
		Validator:     validation.New(log),
		DefaultParent: parent,
		Log:           log,
		Recorder:      rec,
	}
}

// Zone is the civil zone rules are evaluated in.
func (e *Engine) Zone() *time.Location {
	return e.Generator.Zone
}

// Schedule is the resolved custody schedule for a window.
type Schedule struct {
	Start       calendar.Date         `json:"start"`
	End         calendar.Date         `json:"end"`
	Events      []domain.CustodyEvent `json:"events"`
	Diagnostics []domain.Diagnostic   `json:"diagnostics"`
	Dropped     []domain.CustodyEvent `json:"dropped,omitempty"`
}

// GenerateEvents expands rules over the inclusive window [start, end] and
// resolves overlaps. The result never contains two overlapping events.
// Problems with individual rules are reported as diagnostics; the only
// errors are an inverted window and context cancellation.
func (e *Engine) GenerateEvents(ctx context.Context, rules []catalog.CustodyRule, start, end calendar.Date) (*Schedule, error) {
	if start.After(end) {
		return nil, domain.ErrInvalidWindow.Detail("%s is after %s", start, end)
	}
	began := time.Now()

	ordered := make([]catalog.CustodyRule, len(rules))
	copy(ordered, rules)
	catalog.SortByPrecedence(ordered)

	var (
		candidates []domain.CustodyEvent
		diags      []domain.Diagnostic
		protocol   *catalog.ExchangeProtocol
	)
	for _, rule := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p, ok := rule.Data.(*catalog.ExchangeProtocol); ok && protocol == nil && rule.Type == domain.RuleExchangeProtocol {
			protocol = p
		}
		events, ds := e.Generator.Generate(ctx, rule, start, end)
		candidates = append(candidates, events...)
		diags = append(diags, ds...)
	}

	accepted := resolver.Resolve(candidates)
	dropped := resolver.Dropped(candidates, accepted)
	for _, d := range dropped {
		diags = append(diags, droppedDiagnostic(accepted, d, e.Zone()))
	}
	e.Generator.StampExchange(ctx, accepted, protocol)

	e.Recorder.ObserveGeneration(len(rules), len(accepted), len(dropped), time.Since(began))
	e.Recorder.ObserveDiagnostics(diags)
	e.Log.WithFields(logrus.Fields{
		"start":       start.String(),
		"end":         end.String(),
		"rules":       len(rules),
		"candidates":  len(candidates),
		"events":      len(accepted),
		"dropped":     len(dropped),
		"diagnostics": len(diags),
	}).Debug("schedule generated")

	return &Schedule{
		Start:       start,
		End:         end,
		Events:      accepted,
		Diagnostics: diags,
		Dropped:     dropped,
	}, nil
}

func droppedDiagnostic(accepted []domain.CustodyEvent, d domain.CustodyEvent, zone *time.Location) domain.Diagnostic {
	msg := d.Title + " starting " + d.Start.In(zone).Format("2006-01-02 15:04") + " overridden"
	if b, ok := resolver.Blocker(accepted, d); ok {
		msg += " by " + b.Title + " (" + b.SourceRuleID + ")"
	}
	return domain.Diagnostic{
		Code:     domain.DiagDroppedOverlap,
		Severity: domain.SeverityInfo,
		RuleID:   d.SourceRuleID,
		Message:  msg,
	}
}

// CustodyAnswer says who has custody at an instant.
type CustodyAnswer struct {
	At     time.Time            `json:"at"`
	Parent domain.Parent        `json:"parent"`
	Event  *domain.CustodyEvent `json:"event,omitempty"`
	// Default is true when no rule covers the instant and DefaultParent was
	// used.
	Default bool `json:"default"`
}

// GetCustodyForInstant returns the parent whose resolved event contains at,
// or the default parent when no event does.
func (e *Engine) GetCustodyForInstant(ctx context.Context, rules []catalog.CustodyRule, at time.Time) (CustodyAnswer, error) {
	d := calendar.DateOf(at, e.Zone())
	sched, err := e.GenerateEvents(ctx, rules, d.AddDays(-instantLookaround), d.AddDays(instantLookaround))
	if err != nil {
		return CustodyAnswer{}, err
	}
	for i := range sched.Events {
		if sched.Events[i].Contains(at) {
			ev := sched.Events[i]
			return CustodyAnswer{At: at, Parent: ev.Parent, Event: &ev}, nil
		}
	}
	return CustodyAnswer{At: at, Parent: e.DefaultParent, Default: true}, nil
}

// ValidateRuleSet validates rules and their pairwise conflicts.
func (e *Engine) ValidateRuleSet(rules []catalog.CustodyRule) domain.ValidationResult {
	res := e.Validator.ValidateRuleSet(rules)
	e.Recorder.ObserveValidation("rule_set", res.Passed)
	return res
}

// ValidateSchedule validates a generated event list.
func (e *Engine) ValidateSchedule(events []domain.CustodyEvent) validation.EventReport {
	res := e.Validator.ValidateEvents(events)
	e.Recorder.ObserveValidation("events", res.Passed)
	return res
}
