package repository

import (
	"context"

	"sitedocs/internal/model"
)

// NotificationRepository inserts per-recipient notification records.
// Fan-out runs outside the document transaction (best-effort side channel),
// so no WithTx variant exists.
type NotificationRepository interface {
	// BulkInsert stores one notification row per element. A nil or empty
	// slice is a no-op.
	BulkInsert(ctx context.Context, ns []model.Notification) error
}

// MembershipRepository resolves the current member set of a project.
// Project membership itself is owned by an out-of-scope collaborator; this
// service only reads it to address notifications.
type MembershipRepository interface {
	// ListMemberIDs returns the distinct user ids belonging to the project.
	// The list may be empty.
	ListMemberIDs(ctx context.Context, projectID string) ([]string, error)
}

// DownloadRepository records download facts. Best-effort telemetry only.
type DownloadRepository interface {
	Record(ctx context.Context, d model.DownloadRecord) error
}
