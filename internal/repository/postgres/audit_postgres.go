package postgres

import (
	"context"
	"database/sql"

	"sitedocs/internal/model"
	"sitedocs/internal/repository"
)

// AuditPostgres is the PostgreSQL implementation of repository.AuditRepository.
// The audit_logs table is insert-only; no update or delete statements exist
// anywhere in this package.
type AuditPostgres struct {
	db querier
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

// WithTx returns a copy bound to the given transaction.
func (r *AuditPostgres) WithTx(tx *sql.Tx) repository.AuditRepository {
	return &AuditPostgres{db: tx}
}

// Append inserts one audit entry and returns the stored record.
// Device fields are normalized so absent values land as "unknown".
func (r *AuditPostgres) Append(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error) {
	const q = `
		INSERT INTO audit_logs (id, actor_user_id, action, affected_table, affected_record_id, device_model, os_version, sdk_version, ip_address, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, actor_user_id, action, affected_table, affected_record_id, device_model, os_version, sdk_version, ip_address, details, created_at
	`
	dev := e.Device.Normalized()
	row := r.db.QueryRowContext(ctx, q,
		e.ID,
		e.ActorUserID,
		e.Action,
		e.AffectedTable,
		e.AffectedRecordID,
		dev.DeviceModel,
		dev.OSVersion,
		dev.SDKVersion,
		dev.IPAddress,
		e.Details,
		e.CreatedAt,
	)
	var out model.AuditEntry
	if err := row.Scan(
		&out.ID,
		&out.ActorUserID,
		&out.Action,
		&out.AffectedTable,
		&out.AffectedRecordID,
		&out.Device.DeviceModel,
		&out.Device.OSVersion,
		&out.Device.SDKVersion,
		&out.Device.IPAddress,
		&out.Details,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}
