package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/custodycal/custody-engine/internal/domain"
)

// AuditRepo handles persistence for AuditRecord entries.
type AuditRepo struct{}

// Record inserts an audit record.
func (r *AuditRepo) Record(ctx context.Context, db *sql.DB, rec domain.AuditRecord) error {
	const q = `INSERT INTO audit_records (id, category, actor, action, detail_json, severity, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if rec.DetailJSON == "" {
		rec.DetailJSON = "{}"
	}
	if rec.Severity == "" {
		rec.Severity = "info"
	}
	_, err := db.ExecContext(ctx, q,
		rec.ID,
		rec.Category,
		rec.Actor,
		rec.Action,
		rec.DetailJSON,
		rec.Severity,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

// ListByCategory returns audit records of a category created at or after
// since, oldest first.
func (r *AuditRepo) ListByCategory(ctx context.Context, db *sql.DB, category string, since int64) ([]domain.AuditRecord, error) {
	const q = `SELECT id, category, actor, action, detail_json, severity, created_at
FROM audit_records
WHERE category = ? AND created_at >= ?
ORDER BY created_at ASC, id ASC`

	rows, err := db.QueryContext(ctx, q, category, since)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var a domain.AuditRecord
		if err := rows.Scan(&a.ID, &a.Category, &a.Actor, &a.Action,
			&a.DetailJSON, &a.Severity, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
