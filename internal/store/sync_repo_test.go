package store

import (
	"context"
	"testing"

	"github.com/custodycal/custody-engine/internal/domain"
)

func TestSyncRepo_UpsertListDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SyncRepo{}

	events := []domain.SyncedEvent{
		{EventID: "e1", ExternalID: "x1", Hash: "h1", StartUnix: 100, EndUnix: 200, SyncedAt: 1},
		{EventID: "e2", ExternalID: "x2", Hash: "h2", StartUnix: 300, EndUnix: 400, SyncedAt: 1},
		{EventID: "e3", ExternalID: "x3", Hash: "h3", StartUnix: 500, EndUnix: 600, SyncedAt: 1},
	}
	for _, e := range events {
		if err := repo.UpsertSynced(ctx, db, e); err != nil {
			t.Fatalf("UpsertSynced %s: %v", e.EventID, err)
		}
	}

	got, err := repo.ListSynced(ctx, db, 150, 450)
	if err != nil {
		t.Fatalf("ListSynced: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "e1" || got[1].EventID != "e2" {
		t.Fatalf("ListSynced(150, 450) = %+v", got)
	}

	// Touching intervals do not intersect.
	got, err = repo.ListSynced(ctx, db, 200, 300)
	if err != nil {
		t.Fatalf("ListSynced: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("touching window returned %+v", got)
	}

	if err := repo.UpsertSynced(ctx, db, domain.SyncedEvent{EventID: "e2", ExternalID: "x2", Hash: "h2b", StartUnix: 300, EndUnix: 450, SyncedAt: 2}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.DeleteSynced(ctx, db, "e1"); err != nil {
		t.Fatalf("DeleteSynced: %v", err)
	}

	got, err = repo.ListSynced(ctx, db, 0, 1000)
	if err != nil {
		t.Fatalf("ListSynced: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events after delete, got %d", len(got))
	}
	if got[0].EventID != "e2" || got[0].Hash != "h2b" || got[0].EndUnix != 450 {
		t.Errorf("e2 not updated: %+v", got[0])
	}
}

func TestSyncRepo_Runs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SyncRepo{}

	runs := []domain.SyncResult{
		{RunID: "r1", WindowStart: "2025-10-01", WindowEnd: "2025-12-31", TotalEvents: 10, Created: 10, StartedAt: 100, FinishedAt: 101},
		{RunID: "r2", WindowStart: "2025-10-01", WindowEnd: "2025-12-31", TotalEvents: 10, Updated: 1, Errors: []string{"sink down"}, StartedAt: 200, FinishedAt: 201},
	}
	for _, r := range runs {
		if err := repo.RecordRun(ctx, db, r); err != nil {
			t.Fatalf("RecordRun %s: %v", r.RunID, err)
		}
	}

	got, err := repo.ListRuns(ctx, db, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].RunID != "r2" || len(got[0].Errors) != 1 || got[0].Success() {
		t.Errorf("newest run = %+v", got[0])
	}
	if got[1].RunID != "r1" || got[1].Errors != nil || got[1].Created != 10 {
		t.Errorf("oldest run = %+v", got[1])
	}

	got, err = repo.ListRuns(ctx, db, 1)
	if err != nil {
		t.Fatalf("ListRuns limit: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit ignored: %d runs", len(got))
	}
}
