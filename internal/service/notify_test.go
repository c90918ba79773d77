package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitedocs/internal/model"
	repoMocks "sitedocs/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectNotifier_NotifyProjectMembers(t *testing.T) {
	ctx := context.Background()
	notice := Notice{
		Subject:  "New document",
		Message:  `Document "site-plan" was added to the project.`,
		DeepLink: "documents/doc-1",
	}

	t.Run("one unread record per project member", func(t *testing.T) {
		members := new(repoMocks.MockMembershipRepository)
		notes := new(repoMocks.MockNotificationRepository)
		p := NewProjectNotifier(members, notes).(*projectNotifier)
		p.now = func() time.Time { return fixedNow }

		members.On("ListMemberIDs", ctx, "proj-1").Return([]string{"u1", "u2"}, nil)
		notes.On("BulkInsert", ctx, mock.MatchedBy(func(ns []model.Notification) bool {
			if len(ns) != 2 {
				return false
			}
			for _, n := range ns {
				if n.Read || n.Category != model.NotificationCategoryDocument ||
					n.Subject != notice.Subject || n.ID == "" {
					return false
				}
			}
			return ns[0].RecipientID == "u1" && ns[1].RecipientID == "u2"
		})).Return(nil)

		err := p.NotifyProjectMembers(ctx, "proj-1", notice)

		require.NoError(t, err)
		members.AssertExpectations(t)
		notes.AssertExpectations(t)
	})

	t.Run("project with no members writes nothing", func(t *testing.T) {
		members := new(repoMocks.MockMembershipRepository)
		notes := new(repoMocks.MockNotificationRepository)
		p := NewProjectNotifier(members, notes)

		members.On("ListMemberIDs", ctx, "proj-1").Return([]string{}, nil)

		err := p.NotifyProjectMembers(ctx, "proj-1", notice)

		require.NoError(t, err)
		notes.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything)
	})

	t.Run("membership lookup failure is surfaced to the caller", func(t *testing.T) {
		members := new(repoMocks.MockMembershipRepository)
		notes := new(repoMocks.MockNotificationRepository)
		p := NewProjectNotifier(members, notes)

		members.On("ListMemberIDs", ctx, "proj-1").Return(nil, errors.New("db down"))

		err := p.NotifyProjectMembers(ctx, "proj-1", notice)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "resolve project members")
	})

	t.Run("insert failure is surfaced to the caller", func(t *testing.T) {
		members := new(repoMocks.MockMembershipRepository)
		notes := new(repoMocks.MockNotificationRepository)
		p := NewProjectNotifier(members, notes)

		members.On("ListMemberIDs", ctx, "proj-1").Return([]string{"u1"}, nil)
		notes.On("BulkInsert", ctx, mock.Anything).Return(errors.New("insert fail"))

		err := p.NotifyProjectMembers(ctx, "proj-1", notice)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "insert notifications")
	})

	t.Run("empty project id", func(t *testing.T) {
		p := NewProjectNotifier(new(repoMocks.MockMembershipRepository), new(repoMocks.MockNotificationRepository))
		err := p.NotifyProjectMembers(ctx, "", notice)
		assert.Error(t, err)
	})
}
