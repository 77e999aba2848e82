// Package main is the entry point for the custody schedule engine.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calsync"
	"github.com/custodycal/custody-engine/internal/catalog"
	"github.com/custodycal/custody-engine/internal/config"
	"github.com/custodycal/custody-engine/internal/custody"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/guard"
	"github.com/custodycal/custody-engine/internal/ipc"
	"github.com/custodycal/custody-engine/internal/metrics"
	"github.com/custodycal/custody-engine/internal/school"
	"github.com/custodycal/custody-engine/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to configuration JSON file")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("custodycal %s (commit=%s, built=%s)\n", version, commit, date)
		os.Exit(0)
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fatal("load env file: %v", err)
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("CUSTODY_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal("load config: %v", err)
	}
	log := cfg.NewLogger()

	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		log.WithError(err).Fatal("load rules")
	}
	table, err := loadSchool(cfg.SchoolCalendarPath)
	if err != nil {
		log.WithError(err).Fatal("load school calendar")
	}

	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	collector := metrics.NewCollector("custody")
	engine := custody.New(custody.Options{
		Zone:          cfg.Location(),
		School:        table,
		DefaultParent: domain.Parent(cfg.DefaultParent),
		Log:           log,
		Recorder:      collector,
	})

	res := engine.ValidateRuleSet(rules.Rules)
	for _, w := range res.Warnings {
		log.WithField("rule_id", w.RuleID).Warn(w.Message)
	}
	if !res.Passed {
		for _, e := range res.Errors {
			log.WithField("rule_id", e.RuleID).Error(e.Message)
		}
		log.Fatal("rule set failed validation")
	}

	handler := &ipc.Handler{
		Engine:  engine,
		RuleSet: rules,
		Guard: guard.NewGuard(guard.GuardConfig{
			RateLimitPerMinute: cfg.RateLimitPerMinute,
			MaxWindowDays:      cfg.MaxWindowDays,
		}),
		DB:             db,
		ValidationRepo: &store.ValidationRepo{},
		Metrics:        collector,
		Log:            log,
	}

	var scheduler *calsync.Scheduler
	if cfg.SyncEnabled {
		syncer := calsync.NewSyncer(db, calsync.NewLogSink(log), cfg.Location(), log)
		syncer.Recorder = collector
		scheduler = calsync.NewScheduler(syncer, engine, func() []catalog.CustodyRule { return rules.Rules }, calsync.SchedulerConfig{
			Spec:        cfg.SyncCron,
			HorizonDays: cfg.SyncHorizonDays,
			RunTimeout:  cfg.SyncTimeout,
		}, log)
		if err := scheduler.Start(); err != nil {
			log.WithError(err).Fatal("start sync scheduler")
		}
		handler.Scheduler = scheduler
	}

	srv := ipc.NewServer(handler, cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if scheduler != nil {
			select {
			case <-scheduler.Stop().Done():
			case <-ctx.Done():
				log.Warn("sync run still in progress at shutdown")
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("server shutdown")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":    cfg.ListenAddr,
		"rules":   len(rules.Rules),
		"sync":    cfg.SyncEnabled,
		"version": version,
	}).Info("custody engine listening")

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server error")
	}
}

// loadRules reads the court order file, or falls back to the built-in order.
func loadRules(path string) (*catalog.RuleSet, error) {
	if path == "" {
		return catalog.DefaultCourtOrder(), nil
	}
	return catalog.LoadFile(path)
}

func loadSchool(path string) (*school.Table, error) {
	if path == "" {
		return school.DefaultTable(), nil
	}
	return school.LoadTable(path)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}
