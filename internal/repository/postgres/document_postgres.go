package postgres

import (
	"context"
	"database/sql"
	"time"

	"sitedocs/internal/model"
	"sitedocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db querier
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// WithTx returns a copy bound to the given transaction.
func (r *DocumentPostgres) WithTx(tx *sql.Tx) repository.DocumentRepository {
	return &DocumentPostgres{db: tx}
}

const documentColumns = `id, project_id, name, description, doc_type, storage_path, external_link, size, content_type, uploaded_by, uploaded_at, state, trashed_at`

func scanDocument(row interface{ Scan(dest ...any) error }) (*model.Document, error) {
	var (
		d            model.Document
		storagePath  sql.NullString
		externalLink sql.NullString
		trashedAt    sql.NullTime
	)
	if err := row.Scan(
		&d.ID,
		&d.ProjectID,
		&d.Name,
		&d.Description,
		&d.Type,
		&storagePath,
		&externalLink,
		&d.Size,
		&d.ContentType,
		&d.UploadedBy,
		&d.UploadedAt,
		&d.State,
		&trashedAt,
	); err != nil {
		return nil, err
	}
	d.StoragePath = storagePath.String
	d.ExternalLink = externalLink.String
	if trashedAt.Valid {
		t := trashedAt.Time
		d.TrashedAt = &t
	}
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, project_id, name, description, doc_type, storage_path, external_link, size, content_type, uploaded_by, uploaded_at, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ProjectID,
		doc.Name,
		doc.Description,
		doc.Type,
		nullString(doc.StoragePath),
		nullString(doc.ExternalLink),
		doc.Size,
		doc.ContentType,
		doc.UploadedBy,
		doc.UploadedAt,
		doc.State,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// FindByIDForUpdate fetches a document with a row-level lock.
// Only meaningful inside a transaction.
func (r *DocumentPostgres) FindByIDForUpdate(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// UpdateMetadata writes the mutable descriptor fields of an existing row.
func (r *DocumentPostgres) UpdateMetadata(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET project_id = $2, name = $3, description = $4, doc_type = $5, external_link = $6
		WHERE id = $1
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.ProjectID,
		doc.Name,
		doc.Description,
		doc.Type,
		nullString(doc.ExternalLink),
	)
	return scanDocument(row)
}

// SetState writes the lifecycle state and its paired trashed timestamp.
func (r *DocumentPostgres) SetState(ctx context.Context, id string, state model.DocumentState, trashedAt *time.Time) error {
	const q = `UPDATE documents SET state = $2, trashed_at = $3 WHERE id = $1`
	var at sql.NullTime
	if trashedAt != nil {
		at = sql.NullTime{Time: *trashedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, q, id, state, at)
	return err
}

// Delete removes a document row. Returns false when no row existed.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteIfExpired removes a row only while it is still trashed and past the
// cutoff. The condition re-checks state at delete time so a concurrent
// restore wins over a sweep that selected the row earlier.
func (r *DocumentPostgres) DeleteIfExpired(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	const q = `DELETE FROM documents WHERE id = $1 AND state = 'trashed' AND trashed_at <= $2`
	res, err := r.db.ExecContext(ctx, q, id, cutoff)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListExpired returns trashed documents whose trashed timestamp is at or
// before cutoff, oldest first.
func (r *DocumentPostgres) ListExpired(ctx context.Context, cutoff time.Time) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE state = 'trashed' AND trashed_at <= $1
		ORDER BY trashed_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// List returns documents for one lifecycle state using LIMIT/OFFSET
// pagination and a total count. An empty ProjectID matches all projects.
func (r *DocumentPostgres) List(ctx context.Context, q repository.DocumentListQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `
		SELECT COUNT(*) FROM documents
		WHERE state = $1 AND ($2 = '' OR project_id = $2)
	`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, q.State, q.ProjectID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE state = $1 AND ($2 = '' OR project_id = $2)
		ORDER BY uploaded_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, qList, q.State, q.ProjectID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}
