package mocks

import (
	"context"
	"database/sql"

	"sitedocs/internal/model"
	"sitedocs/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) WithTx(tx *sql.Tx) repository.AuditRepository {
	return m
}

func (m *MockAuditRepository) Append(ctx context.Context, e *model.AuditEntry) (*model.AuditEntry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditEntry), args.Error(1)
}
