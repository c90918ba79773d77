package mocks

import (
	"context"

	"sitedocs/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) BulkInsert(ctx context.Context, ns []model.Notification) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) ListMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockDownloadRepository struct {
	mock.Mock
}

func (m *MockDownloadRepository) Record(ctx context.Context, d model.DownloadRecord) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
