package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"sitedocs/internal/model"
	"sitedocs/internal/repository"
)

// NotificationPostgres is the PostgreSQL implementation of
// repository.NotificationRepository.
type NotificationPostgres struct {
	db querier
}

// NewNotificationPostgres creates a new NotificationPostgres repository.
func NewNotificationPostgres(db *sql.DB) *NotificationPostgres {
	return &NotificationPostgres{db: db}
}

var _ repository.NotificationRepository = (*NotificationPostgres)(nil)

// BulkInsert stores one notification row per element in a single statement.
func (r *NotificationPostgres) BulkInsert(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	var (
		b    strings.Builder
		args = make([]any, 0, len(ns)*8)
	)
	b.WriteString(`INSERT INTO notifications (id, recipient_user_id, subject, message, category, deep_link, read, created_at) VALUES `)
	for i, n := range ns {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 8
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args, n.ID, n.RecipientID, n.Subject, n.Message, n.Category, nullString(n.DeepLink), n.Read, n.CreatedAt)
	}

	_, err := r.db.ExecContext(ctx, b.String(), args...)
	return err
}

// MembershipPostgres reads project membership rows maintained by the
// project-management side of the system.
type MembershipPostgres struct {
	db querier
}

// NewMembershipPostgres creates a new MembershipPostgres repository.
func NewMembershipPostgres(db *sql.DB) *MembershipPostgres {
	return &MembershipPostgres{db: db}
}

var _ repository.MembershipRepository = (*MembershipPostgres)(nil)

// ListMemberIDs returns the distinct member user ids of a project.
func (r *MembershipPostgres) ListMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	const q = `SELECT DISTINCT user_id FROM project_members WHERE project_id = $1`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// DownloadPostgres records document download facts.
type DownloadPostgres struct {
	db querier
}

// NewDownloadPostgres creates a new DownloadPostgres repository.
func NewDownloadPostgres(db *sql.DB) *DownloadPostgres {
	return &DownloadPostgres{db: db}
}

var _ repository.DownloadRepository = (*DownloadPostgres)(nil)

// Record inserts one download fact row.
func (r *DownloadPostgres) Record(ctx context.Context, d model.DownloadRecord) error {
	const q = `
		INSERT INTO document_downloads (id, document_id, user_id, downloaded_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, q, d.ID, d.DocumentID, d.UserID, d.DownloadedAt)
	return err
}
