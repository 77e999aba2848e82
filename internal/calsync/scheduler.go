package calsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/custody"
	"github.com/custodycal/custody-engine/internal/domain"
)

// Generator produces a resolved schedule. *custody.Engine implements it.
type Generator interface {
	GenerateEvents(ctx context.Context, rules []catalog.CustodyRule, start, end calendar.Date) (*custody.Schedule, error)
}

// SchedulerConfig holds tunable parameters for periodic syncs.
type SchedulerConfig struct {
	// Spec is a standard five-field cron expression.
	Spec string
	// HorizonDays is how far ahead of today each run syncs.
	HorizonDays int
	// RunTimeout bounds a single run.
	RunTimeout time.Duration
}

// Scheduler runs syncs of the upcoming schedule on a cron spec.
type Scheduler struct {
	Syncer    *Syncer
	Generator Generator
	Rules     func() []catalog.CustodyRule
	Config    SchedulerConfig
	Log       logrus.FieldLogger

	cron     *cron.Cron
	stopOnce sync.Once
	stopped  context.Context
	now      func() time.Time
}

// NewScheduler creates a Scheduler with defaults for zero-value config fields.
func NewScheduler(s *Syncer, gen Generator, rules func() []catalog.CustodyRule, cfg SchedulerConfig, log logrus.FieldLogger) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "0 * * * *"
	}
	if cfg.HorizonDays == 0 {
		cfg.HorizonDays = 90
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	return &Scheduler{
		Syncer:    s,
		Generator: gen,
		Rules:     rules,
		Config:    cfg,
		Log:       log,
		now:       time.Now,
	}
}

// Window is the window the next run would sync: today through the horizon.
func (s *Scheduler) Window() (calendar.Date, calendar.Date) {
	today := calendar.DateOf(s.now(), s.Syncer.Zone)
	return today, today.AddDays(s.Config.HorizonDays)
}

// RunOnce generates the schedule for [start, end] and syncs it.
func (s *Scheduler) RunOnce(ctx context.Context, start, end calendar.Date, actor string) (domain.SyncResult, error) {
	sched, err := s.Generator.GenerateEvents(ctx, s.Rules(), start, end)
	if err != nil {
		return domain.SyncResult{}, err
	}
	return s.Syncer.Sync(ctx, sched.Events, start, end, actor)
}

// Start registers the periodic job and starts the cron runner. Overlapping
// runs are skipped.
func (s *Scheduler) Start() error {
	logger := cron.PrintfLogger(logrusPrintf{s.Log})
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(logger)), cron.WithLocation(s.Syncer.Zone))
	_, err := s.cron.AddFunc(s.Config.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.Config.RunTimeout)
		defer cancel()
		start, end := s.Window()
		if _, err := s.RunOnce(ctx, start, end, "scheduler"); err != nil {
			s.Log.WithError(err).Error("scheduled sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("add sync job %q: %w", s.Config.Spec, err)
	}
	s.Log.WithFields(logrus.Fields{"spec": s.Config.Spec, "horizon_days": s.Config.HorizonDays}).Info("sync scheduler started")
	s.cron.Start()
	return nil
}

// Stop stops the cron runner and returns a context that is done once any
// running job has finished. Every call returns the same context; it is
// already done when the scheduler was never started.
func (s *Scheduler) Stop() context.Context {
	s.stopOnce.Do(func() {
		if s.cron != nil {
			s.stopped = s.cron.Stop()
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s.stopped = ctx
	})
	return s.stopped
}

type logrusPrintf struct {
	log logrus.FieldLogger
}

func (l logrusPrintf) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
