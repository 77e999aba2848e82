// Package guard enforces request limits in front of the engine.
package guard

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
)

// maxClients bounds the limiter table; it is reset when exceeded.
const maxClients = 10000

// GuardConfig holds rate and query span limits.
type GuardConfig struct {
	RateLimitPerMinute int
	Burst              int
	// MaxWindowDays is the longest query window in days, counting both ends.
	MaxWindowDays int
}

// Guard coordinates rate and window checks.
type Guard struct {
	Config GuardConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewGuard creates a Guard with defaults for zero-value config fields.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 120
	}
	if cfg.Burst == 0 {
		cfg.Burst = cfg.RateLimitPerMinute / 4
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.MaxWindowDays == 0 {
		cfg.MaxWindowDays = 731
	}
	return &Guard{
		Config:   cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// CheckAll runs the rate limit and then the window check.
func (g *Guard) CheckAll(clientID string, start, end calendar.Date) error {
	if err := g.CheckRateLimit(clientID); err != nil {
		return err
	}
	return g.CheckWindow(start, end)
}

// CheckRateLimit enforces a per-client token bucket refilled at
// RateLimitPerMinute.
func (g *Guard) CheckRateLimit(clientID string) error {
	if !g.limiter(clientID).Allow() {
		return domain.ErrRateLimitExceeded
	}
	return nil
}

// CheckWindow rejects inverted windows and windows longer than MaxWindowDays.
func (g *Guard) CheckWindow(start, end calendar.Date) error {
	if start.After(end) {
		return domain.ErrInvalidWindow.Detail("%s is after %s", start, end)
	}
	if days := start.DaysUntil(end) + 1; days > g.Config.MaxWindowDays {
		return domain.ErrWindowTooWide.Detail("%d days, maximum %d", days, g.Config.MaxWindowDays)
	}
	return nil
}

func (g *Guard) limiter(clientID string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[clientID]
	if !ok {
		if len(g.limiters) >= maxClients {
			g.limiters = make(map[string]*rate.Limiter)
		}
		every := time.Minute / time.Duration(g.Config.RateLimitPerMinute)
		l = rate.NewLimiter(rate.Every(every), g.Config.Burst)
		g.limiters[clientID] = l
	}
	return l
}
