package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitedocs/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func expiredDoc(id string) model.Document {
	at := fixedNow.Add(-31 * 24 * time.Hour)
	return model.Document{
		ID:          id,
		ProjectID:   "proj-1",
		Name:        "old-" + id,
		Type:        model.DocumentTypePDF,
		StoragePath: "documents/" + id + ".pdf",
		State:       model.DocumentStateTrashed,
		TrashedAt:   &at,
	}
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	cutoff := fixedNow.Add(-RetentionWindow)
	cutoffMatch := mock.MatchedBy(func(at time.Time) bool { return at.Equal(cutoff) })

	t.Run("purges documents past the retention window with one aggregate audit entry", func(t *testing.T) {
		f := newFixture(t)
		linkDoc := expiredDoc("d2")
		linkDoc.Type = model.DocumentTypeExternalLink
		linkDoc.StoragePath = ""

		f.docs.On("ListExpired", ctx, cutoffMatch).
			Return([]model.Document{expiredDoc("d1"), linkDoc}, nil)
		f.docs.On("DeleteIfExpired", ctx, "d1", cutoffMatch).Return(true, nil)
		f.docs.On("DeleteIfExpired", ctx, "d2", cutoffMatch).Return(true, nil)
		f.store.On("Delete", ctx, "documents/d1.pdf").Return(nil)

		f.dbMock.ExpectBegin()
		f.audits.On("Append", ctx, mock.MatchedBy(func(e *model.AuditEntry) bool {
			return e.Action == "purged expired documents" &&
				e.Details == "purged 2 documents trashed more than 30 days ago (0 skipped, 0 failed)"
		})).Return(&model.AuditEntry{}, nil)
		f.dbMock.ExpectCommit()

		res, err := f.svc.PurgeExpired(ctx, meta)

		require.NoError(t, err)
		assert.Equal(t, 2, res.Purged)
		assert.Equal(t, 0, res.Skipped)
		assert.Empty(t, res.Failures)
		f.assertExpectations(t)
	})

	t.Run("empty selection leaves no audit trace", func(t *testing.T) {
		f := newFixture(t)
		f.docs.On("ListExpired", ctx, cutoffMatch).Return([]model.Document{}, nil)

		res, err := f.svc.PurgeExpired(ctx, meta)

		require.NoError(t, err)
		assert.Equal(t, 0, res.Purged)
		f.audits.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})

	t.Run("a concurrent restore wins over the sweep", func(t *testing.T) {
		f := newFixture(t)
		f.docs.On("ListExpired", ctx, cutoffMatch).
			Return([]model.Document{expiredDoc("d1"), expiredDoc("d2")}, nil)
		// d1 was restored between selection and delete.
		f.docs.On("DeleteIfExpired", ctx, "d1", cutoffMatch).Return(false, nil)
		f.docs.On("DeleteIfExpired", ctx, "d2", cutoffMatch).Return(true, nil)
		f.store.On("Delete", ctx, "documents/d2.pdf").Return(nil)

		f.dbMock.ExpectBegin()
		f.audits.On("Append", ctx, mock.MatchedBy(func(e *model.AuditEntry) bool {
			return e.Details == "purged 1 documents trashed more than 30 days ago (1 skipped, 0 failed)"
		})).Return(&model.AuditEntry{}, nil)
		f.dbMock.ExpectCommit()

		res, err := f.svc.PurgeExpired(ctx, meta)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Purged)
		assert.Equal(t, 1, res.Skipped)
		f.store.AssertNotCalled(t, "Delete", mock.Anything, "documents/d1.pdf")
		f.assertExpectations(t)
	})

	t.Run("one document's failure does not abort the sweep", func(t *testing.T) {
		f := newFixture(t)
		f.docs.On("ListExpired", ctx, cutoffMatch).
			Return([]model.Document{expiredDoc("d1"), expiredDoc("d2")}, nil)
		f.docs.On("DeleteIfExpired", ctx, "d1", cutoffMatch).Return(false, errors.New("deadlock detected"))
		f.docs.On("DeleteIfExpired", ctx, "d2", cutoffMatch).Return(true, nil)
		f.store.On("Delete", ctx, "documents/d2.pdf").Return(nil)

		f.dbMock.ExpectBegin()
		f.audits.On("Append", ctx, mock.Anything).Return(&model.AuditEntry{}, nil)
		f.dbMock.ExpectCommit()

		res, err := f.svc.PurgeExpired(ctx, meta)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Purged)
		require.Len(t, res.Failures, 1)
		assert.Equal(t, "d1", res.Failures[0].DocumentID)
		assert.Equal(t, "deadlock detected", res.Failures[0].Reason)
		f.assertExpectations(t)
	})

	t.Run("missing physical file still counts the purge", func(t *testing.T) {
		f := newFixture(t)
		f.docs.On("ListExpired", ctx, cutoffMatch).Return([]model.Document{expiredDoc("d1")}, nil)
		f.docs.On("DeleteIfExpired", ctx, "d1", cutoffMatch).Return(true, nil)
		f.store.On("Delete", ctx, "documents/d1.pdf").Return(errors.New("object not found"))

		f.dbMock.ExpectBegin()
		f.audits.On("Append", ctx, mock.Anything).Return(&model.AuditEntry{}, nil)
		f.dbMock.ExpectCommit()

		res, err := f.svc.PurgeExpired(ctx, meta)

		require.NoError(t, err)
		assert.Equal(t, 1, res.Purged)
		assert.Empty(t, res.Failures)
		f.assertExpectations(t)
	})

	t.Run("selection error aborts before any delete", func(t *testing.T) {
		f := newFixture(t)
		f.docs.On("ListExpired", ctx, cutoffMatch).Return(nil, errors.New("db down"))

		res, err := f.svc.PurgeExpired(ctx, meta)

		assert.Error(t, err)
		assert.Nil(t, res)
		f.docs.AssertNotCalled(t, "DeleteIfExpired", mock.Anything, mock.Anything, mock.Anything)
		f.assertExpectations(t)
	})
}

// A second sweep immediately after a successful one finds nothing and stays
// silent.
func TestPurgeExpired_SecondRunIsQuiet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cutoffMatch := mock.MatchedBy(func(at time.Time) bool { return at.Equal(fixedNow.Add(-RetentionWindow)) })

	f.docs.On("ListExpired", ctx, cutoffMatch).Return([]model.Document{expiredDoc("d1")}, nil).Once()
	f.docs.On("DeleteIfExpired", ctx, "d1", cutoffMatch).Return(true, nil).Once()
	f.store.On("Delete", ctx, "documents/d1.pdf").Return(nil).Once()
	f.dbMock.ExpectBegin()
	f.audits.On("Append", ctx, mock.Anything).Return(&model.AuditEntry{}, nil).Once()
	f.dbMock.ExpectCommit()

	first, err := f.svc.PurgeExpired(ctx, meta)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Purged)

	f.docs.On("ListExpired", ctx, cutoffMatch).Return([]model.Document{}, nil).Once()

	second, err := f.svc.PurgeExpired(ctx, meta)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Purged)

	f.audits.AssertNumberOfCalls(t, "Append", 1)
	f.assertExpectations(t)
}
