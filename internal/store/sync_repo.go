package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodycal/custody-engine/internal/domain"
)

// SyncRepo persists sync runs and the last pushed state of each event.
type SyncRepo struct{}

// ListSynced returns synced events whose interval intersects
// [startUnix, endUnix), ordered by start.
func (r *SyncRepo) ListSynced(ctx context.Context, db *sql.DB, startUnix, endUnix int64) ([]domain.SyncedEvent, error) {
	const q = `SELECT event_id, external_id, hash, start_unix, end_unix, synced_at
FROM synced_events
WHERE start_unix < ? AND end_unix > ?
ORDER BY start_unix ASC, event_id ASC`

	rows, err := db.QueryContext(ctx, q, endUnix, startUnix)
	if err != nil {
		return nil, fmt.Errorf("list synced events: %w", err)
	}
	defer rows.Close()

	var out []domain.SyncedEvent
	for rows.Next() {
		var e domain.SyncedEvent
		if err := rows.Scan(&e.EventID, &e.ExternalID, &e.Hash, &e.StartUnix, &e.EndUnix, &e.SyncedAt); err != nil {
			return nil, fmt.Errorf("scan synced event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpsertSynced inserts or replaces the synced state of an event.
func (r *SyncRepo) UpsertSynced(ctx context.Context, db *sql.DB, e domain.SyncedEvent) error {
	const q = `INSERT INTO synced_events (event_id, external_id, hash, start_unix, end_unix, synced_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(event_id) DO UPDATE SET
	external_id = excluded.external_id,
	hash        = excluded.hash,
	start_unix  = excluded.start_unix,
	end_unix    = excluded.end_unix,
	synced_at   = excluded.synced_at`
	_, err := db.ExecContext(ctx, q, e.EventID, e.ExternalID, e.Hash, e.StartUnix, e.EndUnix, e.SyncedAt)
	if err != nil {
		return fmt.Errorf("upsert synced event: %w", err)
	}
	return nil
}

// DeleteSynced forgets an event that was removed from the calendar.
func (r *SyncRepo) DeleteSynced(ctx context.Context, db *sql.DB, eventID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM synced_events WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("delete synced event: %w", err)
	}
	return nil
}

// RecordRun stores the outcome of a sync run.
func (r *SyncRepo) RecordRun(ctx context.Context, db *sql.DB, run domain.SyncResult) error {
	const q = `INSERT INTO sync_runs (run_id, window_start, window_end, total_events, created, updated, deleted, errors_json, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errJSON, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("marshal sync errors: %w", err)
	}
	_, err = db.ExecContext(ctx, q,
		run.RunID,
		run.WindowStart,
		run.WindowEnd,
		run.TotalEvents,
		run.Created,
		run.Updated,
		run.Deleted,
		string(errJSON),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record sync run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent sync runs, newest first.
func (r *SyncRepo) ListRuns(ctx context.Context, db *sql.DB, limit int) ([]domain.SyncResult, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `SELECT run_id, window_start, window_end, total_events, created, updated, deleted, errors_json, started_at, finished_at
FROM sync_runs
ORDER BY started_at DESC, run_id ASC
LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.SyncResult
	for rows.Next() {
		var (
			run     domain.SyncResult
			errJSON string
		)
		if err := rows.Scan(&run.RunID, &run.WindowStart, &run.WindowEnd, &run.TotalEvents,
			&run.Created, &run.Updated, &run.Deleted, &errJSON, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		if err := json.Unmarshal([]byte(errJSON), &run.Errors); err != nil {
			return nil, fmt.Errorf("decode sync errors: %w", err)
		}
		if len(run.Errors) == 0 {
			run.Errors = nil
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
