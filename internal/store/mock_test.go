package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/custodycal/custody-engine/internal/domain"
)

func TestMigrate_ExecutesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sync_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSyncRepo_RecordRunFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO sync_runs").
		WithArgs("r1", "2025-10-01", "2025-10-31", 0, 0, 0, 0, "[]", int64(1), int64(2)).
		WillReturnError(errors.New("disk full"))

	err = (&SyncRepo{}).RecordRun(context.Background(), db, domain.SyncResult{
		RunID: "r1", WindowStart: "2025-10-01", WindowEnd: "2025-10-31", StartedAt: 1, FinishedAt: 2,
	})
	if err == nil || !strings.Contains(err.Error(), "record sync run") {
		t.Fatalf("err = %v, want wrapped record error", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSyncRepo_ListSyncedScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"event_id", "external_id", "hash", "start_unix", "end_unix", "synced_at"}).
		AddRow("e1", "x1", "h1", "not-a-number", 2, 3)
	mock.ExpectQuery("SELECT event_id, external_id").WithArgs(int64(10), int64(0)).WillReturnRows(rows)

	if _, err := (&SyncRepo{}).ListSynced(context.Background(), db, 0, 10); err == nil {
		t.Fatal("expected scan error")
	}
}

func TestValidationRepo_LatestQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, target_type").WillReturnError(errors.New("locked"))
	if _, err := (&ValidationRepo{}).Latest(context.Background(), db, "rule_set"); err == nil {
		t.Fatal("expected query error")
	}
}
