package store

import (
	"context"
	"testing"

	"github.com/custodycal/custody-engine/internal/domain"
)

func TestValidationRepo_SaveAndLatest(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &ValidationRepo{}

	got, err := repo.Latest(ctx, db, "rule_set")
	if err != nil {
		t.Fatalf("Latest on empty table: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}

	checks := []domain.ValidationCheck{
		{ID: "v1", TargetType: "rule_set", TargetID: "default", Passed: false, ConfidenceScore: 0.8, ResultJSON: "{}", CreatedAt: 10},
		{ID: "v2", TargetType: "rule_set", TargetID: "default", Passed: true, ConfidenceScore: 1, ResultJSON: `{"passed":true}`, CreatedAt: 20},
		{ID: "v3", TargetType: "events", Passed: true, ConfidenceScore: 1, ResultJSON: "{}", CreatedAt: 30},
	}
	for _, c := range checks {
		if err := repo.Save(ctx, db, c); err != nil {
			t.Fatalf("Save %s: %v", c.ID, err)
		}
	}

	got, err = repo.Latest(ctx, db, "rule_set")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got == nil || got.ID != "v2" || !got.Passed || got.ConfidenceScore != 1 {
		t.Errorf("Latest = %+v, want v2 passed", got)
	}
}
