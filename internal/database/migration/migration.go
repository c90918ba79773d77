package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  project_id    UUID        NOT NULL,
  name          TEXT        NOT NULL,
  description   TEXT        NOT NULL DEFAULT '',
  doc_type      TEXT        NOT NULL CHECK (doc_type IN ('pdf', 'spreadsheet', 'word_doc', 'external_link')),
  storage_path  TEXT        UNIQUE,
  external_link TEXT,
  size          BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  content_type  TEXT        NOT NULL DEFAULT '',
  uploaded_by   UUID        NOT NULL,
  uploaded_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  state         TEXT        NOT NULL DEFAULT 'active' CHECK (state IN ('active', 'trashed')),
  trashed_at    TIMESTAMPTZ,
  CHECK ((state = 'trashed') = (trashed_at IS NOT NULL)),
  CHECK ((doc_type = 'external_link') = (external_link IS NOT NULL)),
  CHECK ((doc_type = 'external_link') = (storage_path IS NULL))
);`,
	},
	{
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
  id                 UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  actor_user_id      UUID        NOT NULL,
  action             TEXT        NOT NULL,
  affected_table     TEXT        NOT NULL,
  affected_record_id TEXT        NOT NULL DEFAULT '',
  device_model       TEXT        NOT NULL DEFAULT 'unknown',
  os_version         TEXT        NOT NULL DEFAULT 'unknown',
  sdk_version        TEXT        NOT NULL DEFAULT 'unknown',
  ip_address         TEXT        NOT NULL DEFAULT 'unknown',
  details            TEXT        NOT NULL DEFAULT '',
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  recipient_user_id UUID        NOT NULL,
  subject           TEXT        NOT NULL,
  message           TEXT        NOT NULL,
  category          TEXT        NOT NULL,
  deep_link         TEXT,
  read              BOOLEAN     NOT NULL DEFAULT false,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_project_members",
		SQL: `CREATE TABLE IF NOT EXISTS project_members (
  project_id UUID NOT NULL,
  user_id    UUID NOT NULL,
  PRIMARY KEY (project_id, user_id)
);`,
	},
	{
		Name: "create_table_document_downloads",
		SQL: `CREATE TABLE IF NOT EXISTS document_downloads (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id   UUID        NOT NULL,
  user_id       UUID        NOT NULL,
  downloaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_project_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents (project_id);`,
	},
	{
		Name: "create_index_documents_state_trashed_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_state_trashed_at ON documents (state, trashed_at);`,
	},
	{
		Name: "create_index_audit_logs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at);`,
	},
	{
		Name: "create_index_notifications_recipient_read",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_recipient_read ON notifications (recipient_user_id, read);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
