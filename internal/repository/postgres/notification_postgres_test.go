package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"sitedocs/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestNotificationPostgres_BulkInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewNotificationPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("one row per recipient in a single statement", func(t *testing.T) {
		ns := []model.Notification{
			{ID: "n1", RecipientID: "u1", Subject: "New document", Message: "m", Category: model.NotificationCategoryDocument, DeepLink: "documents/d1", CreatedAt: now},
			{ID: "n2", RecipientID: "u2", Subject: "New document", Message: "m", Category: model.NotificationCategoryDocument, DeepLink: "documents/d1", CreatedAt: now},
		}

		mock.ExpectExec("INSERT INTO notifications").
			WithArgs(
				"n1", "u1", "New document", "m", model.NotificationCategoryDocument, sql.NullString{String: "documents/d1", Valid: true}, false, now,
				"n2", "u2", "New document", "m", model.NotificationCategoryDocument, sql.NullString{String: "documents/d1", Valid: true}, false, now,
			).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.BulkInsert(ctx, ns)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch touches nothing", func(t *testing.T) {
		err := repo.BulkInsert(ctx, nil)
		assert.NoError(t, err)
	})
}

func TestMembershipPostgres_ListMemberIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewMembershipPostgres(db)
	ctx := context.Background()

	t.Run("members found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"user_id"}).AddRow("u1").AddRow("u2")
		mock.ExpectQuery("SELECT DISTINCT user_id FROM project_members").
			WithArgs("proj-1").
			WillReturnRows(rows)

		ids, err := repo.ListMemberIDs(ctx, "proj-1")

		assert.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, ids)
	})

	t.Run("no members", func(t *testing.T) {
		mock.ExpectQuery("SELECT DISTINCT user_id FROM project_members").
			WithArgs("proj-2").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

		ids, err := repo.ListMemberIDs(ctx, "proj-2")

		assert.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestDownloadPostgres_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDownloadPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO document_downloads").
		WithArgs("dl-1", "doc-1", "u1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Record(ctx, model.DownloadRecord{
		ID:           "dl-1",
		DocumentID:   "doc-1",
		UserID:       "u1",
		DownloadedAt: now,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
