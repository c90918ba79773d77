package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitedocs/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestAuditPostgres_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewAuditPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	auditCols := []string{
		"id", "actor_user_id", "action", "affected_table", "affected_record_id",
		"device_model", "os_version", "sdk_version", "ip_address", "details", "created_at",
	}

	t.Run("device fields are normalized on insert", func(t *testing.T) {
		entry := &model.AuditEntry{
			ID:               "audit-1",
			ActorUserID:      "u1",
			Action:           "moved document to trash",
			AffectedTable:    "documents",
			AffectedRecordID: "doc-1",
			Device:           model.DeviceContext{DeviceModel: "Pixel 8"},
			Details:          `moved document "site-plan" to trash`,
			CreatedAt:        now,
		}

		rows := sqlmock.NewRows(auditCols).
			AddRow(entry.ID, entry.ActorUserID, entry.Action, entry.AffectedTable,
				entry.AffectedRecordID, "Pixel 8", "unknown", "unknown", "unknown",
				entry.Details, entry.CreatedAt)

		// Absent device fields land as "unknown", never as empty strings.
		mock.ExpectQuery("INSERT INTO audit_logs").
			WithArgs(entry.ID, entry.ActorUserID, entry.Action, entry.AffectedTable,
				entry.AffectedRecordID, "Pixel 8", "unknown", "unknown", "unknown",
				entry.Details, entry.CreatedAt).
			WillReturnRows(rows)

		stored, err := repo.Append(ctx, entry)

		assert.NoError(t, err)
		assert.NotNil(t, stored)
		assert.Equal(t, "audit-1", stored.ID)
		assert.Equal(t, "unknown", stored.Device.IPAddress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure is returned", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO audit_logs").
			WillReturnError(errors.New("insert fail"))

		stored, err := repo.Append(ctx, &model.AuditEntry{ID: "audit-2", CreatedAt: now})

		assert.Error(t, err)
		assert.Nil(t, stored)
	})
}
