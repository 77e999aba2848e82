package custody

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/resolver"
	"github.com/custodycal/custody-engine/internal/school"
)

func newEngine() *Engine {
	return New(Options{School: school.DefaultTable()})
}

func at(y int, m time.Month, d, h, min int, e *Engine) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, e.Zone())
}

func TestGenerateEvents_NoOverlap(t *testing.T) {
	e := newEngine()
	rules := catalog.DefaultCourtOrder().Rules
	sched, err := e.GenerateEvents(context.Background(), rules,
		calendar.D(2025, time.October, 1), calendar.D(2026, time.September, 30))
	require.NoError(t, err)
	require.NotEmpty(t, sched.Events)

	for i := 1; i < len(sched.Events); i++ {
		prev, cur := sched.Events[i-1], sched.Events[i]
		assert.False(t, cur.Start.Before(prev.Start), "events out of order at %d", i)
		assert.False(t, resolver.Overlaps(prev, cur), "%s overlaps %s", prev.Title, cur.Title)
	}
}

func TestGenerateEvents_Deterministic(t *testing.T) {
	e := newEngine()
	rules := catalog.DefaultCourtOrder().Rules
	ws, we := calendar.D(2025, time.November, 1), calendar.D(2026, time.January, 31)
	a, err := e.GenerateEvents(context.Background(), rules, ws, we)
	require.NoError(t, err)

	// Rule order in the input must not matter.
	reversed := make([]catalog.CustodyRule, len(rules))
	for i, r := range rules {
		reversed[len(rules)-1-i] = r
	}
	b, err := e.GenerateEvents(context.Background(), reversed, ws, we)
	require.NoError(t, err)
	assert.Equal(t, a.Events, b.Events)
}

func TestGenerateEvents_PriorityDominance(t *testing.T) {
	e := newEngine()
	sched, err := e.GenerateEvents(context.Background(), catalog.DefaultCourtOrder().Rules,
		calendar.D(2025, time.November, 20), calendar.D(2025, time.November, 30))
	require.NoError(t, err)

	// Thanksgiving Day falls on a Thursday; the holiday wins the overnight.
	thanksgiving := at(2025, time.November, 27, 18, 0, e)
	var covering *domain.CustodyEvent
	for i := range sched.Events {
		if sched.Events[i].Contains(thanksgiving) {
			covering = &sched.Events[i]
		}
	}
	require.NotNil(t, covering)
	assert.Equal(t, "thanksgiving", covering.SourceRuleID)
	assert.Equal(t, domain.Mother, covering.Parent)

	var droppedThursday bool
	for _, d := range sched.Dropped {
		if d.SourceRuleID == "thursday-overnight" {
			droppedThursday = true
		}
	}
	assert.True(t, droppedThursday, "thursday overnight should be overridden")

	var diag bool
	for _, d := range sched.Diagnostics {
		if d.Code == domain.DiagDroppedOverlap && d.RuleID == "thursday-overnight" {
			diag = true
		}
	}
	assert.True(t, diag, "expected a precedence diagnostic")
}

func TestGenerateEvents_ExchangeLocation(t *testing.T) {
	e := newEngine()
	sched, err := e.GenerateEvents(context.Background(), catalog.DefaultCourtOrder().Rules,
		calendar.D(2025, time.October, 1), calendar.D(2025, time.October, 12))
	require.NoError(t, err)
	require.NotEmpty(t, sched.Events)
	for _, ev := range sched.Events {
		if ev.SourceRuleID == "thursday-overnight" && calendar.DateOf(ev.Start, e.Zone()) == calendar.D(2025, time.October, 9) {
			assert.Equal(t, "Thornhill Elementary School", ev.ExchangeLocation)
			return
		}
	}
	t.Fatal("thursday overnight of 2025-10-09 not generated")
}

func TestGenerateEvents_InvalidWindow(t *testing.T) {
	_, err := newEngine().GenerateEvents(context.Background(), nil,
		calendar.D(2025, time.February, 1), calendar.D(2025, time.January, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidWindow))
}

func TestGenerateEvents_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine().GenerateEvents(ctx, catalog.DefaultCourtOrder().Rules,
		calendar.D(2025, time.January, 1), calendar.D(2025, time.December, 31))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetCustodyForInstant(t *testing.T) {
	e := newEngine()
	rules := catalog.DefaultCourtOrder().Rules

	ans, err := e.GetCustodyForInstant(context.Background(), rules, at(2025, time.November, 24, 10, 0, e))
	require.NoError(t, err)
	require.NotNil(t, ans.Event)
	assert.Equal(t, domain.Father, ans.Parent)
	assert.Equal(t, "thanksgiving", ans.Event.SourceRuleID)
	assert.False(t, ans.Default)

	// Wednesday midday is covered by no rule.
	ans, err = e.GetCustodyForInstant(context.Background(), rules, at(2025, time.October, 8, 12, 0, e))
	require.NoError(t, err)
	assert.True(t, ans.Default)
	assert.Equal(t, domain.Mother, ans.Parent)

	fatherDefault := New(Options{School: school.DefaultTable(), DefaultParent: domain.Father})
	ans, err = fatherDefault.GetCustodyForInstant(context.Background(), rules, at(2025, time.October, 8, 12, 0, e))
	require.NoError(t, err)
	assert.Equal(t, domain.Father, ans.Parent)
}

func TestGenerateEvents_Concurrent(t *testing.T) {
	e := newEngine()
	rules := catalog.DefaultCourtOrder().Rules
	ws, we := calendar.D(2025, time.October, 1), calendar.D(2025, time.December, 31)
	want, err := e.GenerateEvents(context.Background(), rules, ws, we)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Schedule, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.GenerateEvents(context.Background(), rules, ws, we)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.NotNil(t, got)
		assert.Equal(t, want.Events, got.Events)
	}
}

type countingRecorder struct {
	mu          sync.Mutex
	generations int
	validations map[string]bool
}

func (r *countingRecorder) ObserveGeneration(int, int, int, time.Duration) {
	r.mu.Lock()
	r.generations++
	r.mu.Unlock()
}

func (r *countingRecorder) ObserveDiagnostics([]domain.Diagnostic) {}

func (r *countingRecorder) ObserveValidation(kind string, passed bool) {
	r.mu.Lock()
	r.validations[kind] = passed
	r.mu.Unlock()
}

func TestEngine_RecordsAndValidates(t *testing.T) {
	rec := &countingRecorder{validations: map[string]bool{}}
	e := New(Options{School: school.DefaultTable(), Recorder: rec})
	rules := catalog.DefaultCourtOrder().Rules

	res := e.ValidateRuleSet(rules)
	assert.True(t, res.Passed)

	sched, err := e.GenerateEvents(context.Background(), rules, calendar.D(2025, time.October, 1), calendar.D(2025, time.October, 31))
	require.NoError(t, err)
	report := e.ValidateSchedule(sched.Events)
	assert.True(t, report.Passed, "resolved schedule should validate: %+v", report.Errors)

	assert.Equal(t, 1, rec.generations)
	assert.True(t, rec.validations["rule_set"])
	assert.True(t, rec.validations["events"])
}

func TestGenerateEvents_WeekendsByCountAfterSummer(t *testing.T) {
	e := newEngine()
	sched, err := e.GenerateEvents(context.Background(), catalog.DefaultCourtOrder().Rules,
		calendar.D(2026, time.July, 20), calendar.D(2026, time.August, 31))
	require.NoError(t, err)

	// 1st, 3rd and 5th Fridays go to mother; 2nd and 4th to father.
	want := map[calendar.Date]domain.Parent{
		calendar.D(2026, time.July, 31):   domain.Mother,
		calendar.D(2026, time.August, 7):  domain.Mother,
		calendar.D(2026, time.August, 14): domain.Father,
		calendar.D(2026, time.August, 21): domain.Mother,
		calendar.D(2026, time.August, 28): domain.Father,
	}
	got := map[calendar.Date]domain.Parent{}
	for _, ev := range sched.Events {
		assert.NotEqual(t, "alternating-weekends", ev.SourceRuleID, "alternating weekend after summer: %s", ev.Title)
		if ev.SourceRuleID == "ordinal-weekends" {
			got[calendar.DateOf(ev.Start, e.Zone())] = ev.Parent
		}
	}
	for d, p := range want {
		assert.Equal(t, p, got[d], "weekend of %s", d)
	}
}
