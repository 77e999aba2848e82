package guard

import (
	"errors"
	"testing"
	"time"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

func TestCheckRateLimit_BurstThenReject(t *testing.T) {
	g := NewGuard(GuardConfig{RateLimitPerMinute: 5, Burst: 5})
	for i := 0; i < 5; i++ {
		if err := g.CheckRateLimit("client-1"); err != nil {
			t.Fatalf("call %d: unexpected error %v", i+1, err)
		}
	}
	if err := g.CheckRateLimit("client-1"); err != domain.ErrRateLimitExceeded {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
}

func TestCheckRateLimit_PerClient(t *testing.T) {
	g := NewGuard(GuardConfig{RateLimitPerMinute: 1, Burst: 1})
	if err := g.CheckRateLimit("a"); err != nil {
		t.Fatalf("a: %v", err)
	}
	if err := g.CheckRateLimit("b"); err != nil {
		t.Fatalf("b should have its own bucket: %v", err)
	}
	if err := g.CheckRateLimit("a"); err == nil {
		t.Fatal("a should be limited")
	}
}

func TestNewGuard_Defaults(t *testing.T) {
	g := NewGuard(GuardConfig{})
	if g.Config.RateLimitPerMinute != 120 || g.Config.Burst != 30 || g.Config.MaxWindowDays != 731 {
		t.Errorf("defaults = %+v", g.Config)
	}
	g = NewGuard(GuardConfig{RateLimitPerMinute: 2})
	if g.Config.Burst != 1 {
		t.Errorf("burst = %d, want 1", g.Config.Burst)
	}
}

func TestCheckWindow(t *testing.T) {
	g := NewGuard(GuardConfig{MaxWindowDays: 31})
	tests := []struct {
		name       string
		start, end calendar.Date
		want       error
	}{
		{"single day", calendar.D(2025, time.October, 1), calendar.D(2025, time.October, 1), nil},
		{"exactly max", calendar.D(2025, time.October, 1), calendar.D(2025, time.October, 31), nil},
		{"one over", calendar.D(2025, time.October, 1), calendar.D(2025, time.November, 1), domain.ErrWindowTooWide},
		{"inverted", calendar.D(2025, time.October, 2), calendar.D(2025, time.October, 1), domain.ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckWindow(tt.start, tt.end)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckAll_ShortCircuitsOnRate(t *testing.T) {
	g := NewGuard(GuardConfig{RateLimitPerMinute: 1, Burst: 1, MaxWindowDays: 1})
	ws, we := calendar.D(2025, time.October, 1), calendar.D(2025, time.October, 5)
	if err := g.CheckAll("c", ws, we); !errors.Is(err, domain.ErrWindowTooWide) {
		t.Fatalf("first call: %v", err)
	}
	if err := g.CheckAll("c", ws, ws); err != domain.ErrRateLimitExceeded {
		t.Fatalf("second call: %v", err)
	}
}
