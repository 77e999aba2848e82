package calsync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/custodycal/custody-engine/internal/calendar"
	"github.com/custodycal/custody-engine/internal/domain"
	"github.com/custodycal/custody-engine/internal/store"
)

// Recorder receives sync outcomes. The metrics package implements it.
type Recorder interface {
	ObserveSync(res domain.SyncResult, elapsed time.Duration)
}

// Syncer reconciles the external calendar with a resolved schedule. Only
// one run may be in flight at a time.
type Syncer struct {
	DB        *sql.DB
	SyncRepo  *store.SyncRepo
	AuditRepo *store.AuditRepo
	Sink      Sink
	Zone      *time.Location
	Log       logrus.FieldLogger
	Recorder  Recorder

	mu      sync.Mutex
	running bool
}

// NewSyncer creates a Syncer backed by db and sink.
func NewSyncer(db *sql.DB, sink Sink, zone *time.Location, log logrus.FieldLogger) *Syncer {
	return &Syncer{
		DB:        db,
		SyncRepo:  &store.SyncRepo{},
		AuditRepo: &store.AuditRepo{},
		Sink:      sink,
		Zone:      zone,
		Log:       log,
	}
}

// Sync pushes events for the inclusive window [start, end]. Entries already
// pushed with the same content hash are left alone; entries in the window
// that are no longer in events are deleted. Failures of individual sink
// calls are collected in the result; only store failures abort the run.
func (s *Syncer) Sync(ctx context.Context, events []domain.CustodyEvent, start, end calendar.Date, actor string) (domain.SyncResult, error) {
	if !s.begin() {
		return domain.SyncResult{}, domain.ErrSyncInProgress
	}
	defer s.finish()

	began := time.Now()
	res := domain.SyncResult{
		RunID:       uuid.NewString(),
		WindowStart: start.String(),
		WindowEnd:   end.String(),
		TotalEvents: len(events),
		StartedAt:   began.Unix(),
	}
	log := s.Log.WithFields(logrus.Fields{"run_id": res.RunID, "start": res.WindowStart, "end": res.WindowEnd})

	from, to := start.At(calendar.Midnight, s.Zone), end.AddDays(1).At(calendar.Midnight, s.Zone)
	existing, err := s.SyncRepo.ListSynced(ctx, s.DB, from.Unix(), to.Unix())
	if err != nil {
		return res, domain.WrapEngineError(domain.ErrSyncFailed.Code, "load synced state", err)
	}
	known := make(map[string]domain.SyncedEvent, len(existing))
	for _, e := range existing {
		known[e.EventID] = e
	}

	// Each sink change is recorded as soon as it succeeds, so a store
	// failure part way through never forgets an entry that already exists
	// remotely.
	current := make(map[string]bool, len(events))
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		current[ev.ID] = true
		entry := EntryFor(ev, s.Zone)
		hash := entry.Hash()
		prev, ok := known[ev.ID]

		var externalID string
		switch {
		case !ok:
			externalID, err = s.Sink.Create(ctx, entry)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("create %s: %v", ev.ID, err))
				continue
			}
		case prev.Hash != hash:
			externalID = prev.ExternalID
			if err := s.Sink.Update(ctx, externalID, entry); err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("update %s: %v", ev.ID, err))
				continue
			}
		default:
			continue
		}

		if err := s.SyncRepo.UpsertSynced(ctx, s.DB, domain.SyncedEvent{
			EventID:    ev.ID,
			ExternalID: externalID,
			Hash:       hash,
			StartUnix:  ev.Start.Unix(),
			EndUnix:    ev.End.Unix(),
			SyncedAt:   time.Now().Unix(),
		}); err != nil {
			if !ok {
				s.undoCreate(ctx, log, ev.ID, externalID)
			}
			return res, domain.WrapEngineError(domain.ErrStoreWrite.Code, "save synced event", err)
		}
		if ok {
			res.Updated++
		} else {
			res.Created++
		}
	}

	for _, prev := range existing {
		if current[prev.EventID] {
			continue
		}
		if err := s.Sink.Delete(ctx, prev.ExternalID); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("delete %s: %v", prev.EventID, err))
			continue
		}
		if err := s.SyncRepo.DeleteSynced(ctx, s.DB, prev.EventID); err != nil {
			return res, domain.WrapEngineError(domain.ErrStoreWrite.Code, "forget synced event", err)
		}
		res.Deleted++
	}

	res.FinishedAt = time.Now().Unix()
	if err := s.SyncRepo.RecordRun(ctx, s.DB, res); err != nil {
		log.WithError(err).Warn("sync run not recorded")
	}
	s.audit(ctx, res, actor)
	if s.Recorder != nil {
		s.Recorder.ObserveSync(res, time.Since(began))
	}

	entry := log.WithFields(logrus.Fields{
		"total":   res.TotalEvents,
		"created": res.Created,
		"updated": res.Updated,
		"deleted": res.Deleted,
		"errors":  len(res.Errors),
	})
	if res.Success() {
		entry.Info("sync completed")
	} else {
		entry.Warn("sync completed with errors")
	}
	return res, nil
}

// undoCreate removes an entry whose creation could not be recorded. If
// that fails too the entry is orphaned and only the log knows about it.
func (s *Syncer) undoCreate(ctx context.Context, log logrus.FieldLogger, eventID, externalID string) {
	if err := s.Sink.Delete(ctx, externalID); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event_id":    eventID,
			"external_id": externalID,
		}).Error("orphaned calendar entry")
	}
}

// Running reports whether a sync run is in flight.
func (s *Syncer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs lists recent sync runs, newest first.
func (s *Syncer) Runs(ctx context.Context, limit int) ([]domain.SyncResult, error) {
	return s.SyncRepo.ListRuns(ctx, s.DB, limit)
}

func (s *Syncer) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Syncer) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Syncer) audit(ctx context.Context, res domain.SyncResult, actor string) {
	detail, _ := json.Marshal(res)
	severity := "info"
	if !res.Success() {
		severity = "warning"
	}
	now := time.Now()
	if err := s.AuditRepo.Record(ctx, s.DB, domain.AuditRecord{
		ID:         fmt.Sprintf("aud-%d", now.UnixNano()),
		Category:   "sync",
		Actor:      actor,
		Action:     "sync_run",
		DetailJSON: string(detail),
		Severity:   severity,
		CreatedAt:  now.Unix(),
	}); err != nil {
		s.Log.WithError(err).Warn("sync audit not recorded")
	}
}
