package service

import (
	"context"
	"fmt"
	"time"

	"sitedocs/internal/repository"
)

// RetentionWindow is how long a trashed document may still be restored.
// Documents trashed at least this long ago are eligible for the purge sweep.
const RetentionWindow = 30 * 24 * time.Hour

// SweepFailure describes one document the sweep could not purge.
type SweepFailure struct {
	DocumentID string `json:"document_id"`
	Reason     string `json:"reason"`
}

// SweepResult summarizes one PurgeExpired run.
// Skipped counts documents that were selected but no longer matched at delete
// time (restored or purged concurrently).
type SweepResult struct {
	Purged   int            `json:"purged"`
	Skipped  int            `json:"skipped"`
	Failures []SweepFailure `json:"failures,omitempty"`
}

// PurgeExpired permanently deletes every trashed document past the retention
// window. One document's failure does not abort the sweep for the others, and
// each deletion re-checks the row's state so a concurrent restore wins over
// the sweep. A single aggregate audit entry covers the whole run.
func (s *documentService) PurgeExpired(ctx context.Context, meta RequestMeta) (*SweepResult, error) {
	cutoff := s.now().UTC().Add(-RetentionWindow)

	expired, err := s.docs.ListExpired(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired documents: %w", err)
	}

	result := &SweepResult{}
	for _, d := range expired {
		// Conditional delete: the row must still be trashed and past the
		// cutoff at delete time, not just when the sweep selected it.
		ok, err := s.docs.DeleteIfExpired(ctx, d.ID, cutoff)
		if err != nil {
			result.Failures = append(result.Failures, SweepFailure{DocumentID: d.ID, Reason: err.Error()})
			continue
		}
		if !ok {
			result.Skipped++
			continue
		}

		if d.Type.HasFile() && d.StoragePath != "" {
			if err := s.store.Delete(ctx, d.StoragePath); err != nil {
				// Row deletion already succeeded; the orphaned object is a
				// warning, not a sweep failure.
				logWarn("physical_file_delete_failed", map[string]any{
					"document_id":  d.ID,
					"storage_path": d.StoragePath,
					"error":        err.Error(),
				})
			}
		}
		result.Purged++
	}

	// One aggregate entry per sweep that had work to consider; a sweep over
	// an empty selection leaves no audit trace, keeping repeated runs quiet.
	if len(expired) > 0 {
		err := s.inTx(ctx, func(_ repository.DocumentRepository, audits repository.AuditRepository) error {
			details := fmt.Sprintf("purged %d documents trashed more than %d days ago (%d skipped, %d failed)",
				result.Purged, int(RetentionWindow.Hours())/24, result.Skipped, len(result.Failures))
			return s.audit(ctx, audits, meta, "purged expired documents", "", details)
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}
