package repository

import (
	"context"
	"database/sql"
	"time"

	"sitedocs/internal/model"
)

// DocumentListQuery filters document listings by lifecycle state and,
// optionally, by owning project.
type DocumentListQuery struct {
	PageQuery
	State     model.DocumentState
	ProjectID string
}

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here — strictly persistence operations.
//
// WithTx binds a repository to an open transaction so the service layer can
// compose a document mutation and its audit entry into one atomic unit.
type DocumentRepository interface {
	// Create inserts a new document row and returns the stored record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindByIDForUpdate returns a document by ID with a row-level lock.
	// Must be called inside a transaction; serializes concurrent lifecycle
	// operations on the same document.
	FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error)

	// UpdateMetadata persists the mutable descriptor fields of an existing row.
	UpdateMetadata(ctx context.Context, doc *model.Document) (*model.Document, error)

	// SetState writes the lifecycle state and its paired trashed timestamp.
	// trashedAt must be non-nil iff state is Trashed.
	SetState(ctx context.Context, id string, state model.DocumentState, trashedAt *time.Time) error

	// Delete removes a document row. Returns false if no row was deleted.
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteIfExpired removes a row only if it is still trashed and its
	// trashed timestamp is at or before cutoff. Returns false when the row is
	// gone or no longer matches (e.g., restored since selection).
	DeleteIfExpired(ctx context.Context, id string, cutoff time.Time) (bool, error)

	// ListExpired returns trashed documents whose trashed timestamp is at or
	// before cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]model.Document, error)

	// List returns a paginated list of documents and total rows count for the
	// given filter.
	List(ctx context.Context, q DocumentListQuery) (*PageResult[model.Document], error)

	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *sql.Tx) DocumentRepository
}
