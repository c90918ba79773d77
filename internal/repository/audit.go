package repository

import (
	"context"
	"database/sql"

	"sitedocs/internal/model"
)

// AuditRepository is the persistence contract for audit entries.
//
// It is append-only: the contract has no Update or Delete methods.
// Append is expected to run inside the same transaction as the state change
// it records (via WithTx), so a failed audit write rolls the mutation back.
type AuditRepository interface {
	// Append inserts one audit entry and returns the stored record.
	Append(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error)

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *sql.Tx) AuditRepository
}
