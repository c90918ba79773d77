package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sitedocs/internal/model"
	"sitedocs/internal/repository"
)

// Notice is one fan-out message template; the fan-out turns it into one
// notification record per project member.
type Notice struct {
	Subject  string
	Message  string
	DeepLink string
}

// Notifier broadcasts a notice to every current member of a project.
//
// Callers must treat delivery as best-effort: an error means some or all
// recipients were not stored, never that the triggering operation failed.
type Notifier interface {
	NotifyProjectMembers(ctx context.Context, projectID string, n Notice) error
}

// projectNotifier resolves project membership and bulk-inserts unread
// notification records.
type projectNotifier struct {
	members repository.MembershipRepository
	notes   repository.NotificationRepository
	now     func() time.Time
}

// NewProjectNotifier constructs the membership-backed Notifier.
func NewProjectNotifier(members repository.MembershipRepository, notes repository.NotificationRepository) Notifier {
	return &projectNotifier{members: members, notes: notes, now: time.Now}
}

func (p *projectNotifier) NotifyProjectMembers(ctx context.Context, projectID string, n Notice) error {
	if projectID == "" {
		return fmt.Errorf("project id is required")
	}

	ids, err := p.members.ListMemberIDs(ctx, projectID)
	if err != nil {
		return fmt.Errorf("resolve project members: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	now := p.now().UTC()
	ns := make([]model.Notification, 0, len(ids))
	for _, id := range ids {
		ns = append(ns, model.Notification{
			ID:          uuid.NewString(),
			RecipientID: id,
			Subject:     n.Subject,
			Message:     n.Message,
			Category:    model.NotificationCategoryDocument,
			DeepLink:    n.DeepLink,
			Read:        false,
			CreatedAt:   now,
		})
	}

	if err := p.notes.BulkInsert(ctx, ns); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}
