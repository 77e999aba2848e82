package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodycal/custody-engine/internal/domain"
)

// ValidationRepo persists validation runs.
type ValidationRepo struct{}

// Save inserts a validation check.
func (r *ValidationRepo) Save(ctx context.Context, db *sql.DB, c domain.ValidationCheck) error {
	const q = `INSERT INTO validation_checks (id, target_type, target_id, passed, confidence_score, result_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q,
		c.ID,
		c.TargetType,
		c.TargetID,
		boolToInt(c.Passed),
		c.ConfidenceScore,
		c.ResultJSON,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save validation check: %w", err)
	}
	return nil
}

// Latest returns the newest check of a target type, or nil if none exists.
func (r *ValidationRepo) Latest(ctx context.Context, db *sql.DB, targetType string) (*domain.ValidationCheck, error) {
	const q = `SELECT id, target_type, target_id, passed, confidence_score, result_json, created_at
FROM validation_checks
WHERE target_type = ?
ORDER BY created_at DESC, id DESC
LIMIT 1`

	var (
		c      domain.ValidationCheck
		passed int
	)
	err := db.QueryRowContext(ctx, q, targetType).Scan(
		&c.ID, &c.TargetType, &c.TargetID, &passed, &c.ConfidenceScore, &c.ResultJSON, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest validation check: %w", err)
	}
	c.Passed = passed != 0
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
