package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitedocs/internal/model"
	"sitedocs/internal/repository"
	"sitedocs/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrProjectRequired = errors.New("project id is required")
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidType     = errors.New("invalid document type")
	ErrInvalidLink     = errors.New("external link must be a valid URL")
	ErrFileRequired    = errors.New("file payload is required")
	ErrNoFields        = errors.New("at least one field must be supplied")
	ErrTypeMismatch    = errors.New("document type does not match its content source")
	ErrAlreadyTrashed  = errors.New("document is already in trash")
	ErrNotTrashed      = errors.New("document is not in trash")
)

const (
	auditTableDocuments = "documents"
	downloadURLTTL      = 15 * time.Minute
)

// RequestMeta carries the verified actor and the device context captured from
// the request. It is passed explicitly so the core never reads request
// globals and stays testable without a simulated request environment.
type RequestMeta struct {
	ActorID string
	Device  model.DeviceContext
}

// CreateDocumentInput is the payload for Create.
// For file-backed types File/FileName/ContentType/Size describe the upload;
// for EXTERNAL_LINK only ExternalLink is used and no object is stored.
type CreateDocumentInput struct {
	ProjectID    string
	Name         string
	Description  string
	Type         model.DocumentType
	ExternalLink string
	File         io.Reader
	FileName     string
	ContentType  string
	Size         int64
}

// UpdateMetadataInput holds partial-update fields for UpdateMetadata.
// Nil pointers mean "leave untouched".
type UpdateMetadataInput struct {
	Name         *string
	Description  *string
	ProjectID    *string
	Type         *model.DocumentType
	ExternalLink *string
}

func (in UpdateMetadataInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.ProjectID == nil && in.Type == nil && in.ExternalLink == nil
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService owns the document lifecycle state machine.
//
// Every single-document mutation runs as one atomic unit: the documents row
// and its audit entry commit or roll back together; notification fan-out
// happens after commit and is best-effort.
type DocumentService interface {
	// Create stores a new Active document. File content is uploaded under a
	// server-generated unique name; originalFilename contributes only its
	// extension.
	Create(ctx context.Context, in CreateDocumentInput, meta RequestMeta) (*model.Document, error)

	// UpdateMetadata mutates only the supplied fields of an existing
	// document, Active or Trashed. At least one field must be supplied.
	UpdateMetadata(ctx context.Context, id string, in UpdateMetadataInput, meta RequestMeta) (*model.Document, error)

	// Trash moves an Active document to Trashed. Trashing an already-trashed
	// document is a conflict, not a no-op, so stale clients can detect it.
	Trash(ctx context.Context, id string, meta RequestMeta) (*model.Document, error)

	// Restore moves a Trashed document back to Active.
	Restore(ctx context.Context, id string, meta RequestMeta) (*model.Document, error)

	// PermanentlyDelete purges a document and its physical file. Deleting an
	// absent id succeeds without writing a second audit entry, which makes
	// the operation safe to retry after an unknown outcome.
	PermanentlyDelete(ctx context.Context, id string, meta RequestMeta) error

	// PurgeExpired sweeps trashed documents past the retention window.
	PurgeExpired(ctx context.Context, meta RequestMeta) (*SweepResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// ListActive and ListTrashed page through documents in one lifecycle
	// state, optionally scoped to a project.
	ListActive(ctx context.Context, projectID string, limit, offset int) (*DocumentListResult, error)
	ListTrashed(ctx context.Context, projectID string, limit, offset int) (*DocumentListResult, error)

	// DownloadURL resolves a retrieval URL for an Active document and records
	// the download fact. Recording is best-effort and never blocks the
	// download.
	DownloadURL(ctx context.Context, id, userID string) (string, error)
}

// TxBeginner abstracts transaction creation; satisfied by *sql.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// documentService is the concrete implementation of DocumentService.
type documentService struct {
	db        TxBeginner
	store     storage.Storage
	docs      repository.DocumentRepository
	audits    repository.AuditRepository
	downloads repository.DownloadRepository
	notifier  Notifier
	now       func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	db TxBeginner,
	store storage.Storage,
	docs repository.DocumentRepository,
	audits repository.AuditRepository,
	downloads repository.DownloadRepository,
	notifier Notifier,
) DocumentService {
	return &documentService{
		db:        db,
		store:     store,
		docs:      docs,
		audits:    audits,
		downloads: downloads,
		notifier:  notifier,
		now:       time.Now,
	}
}

// inTx runs fn with transaction-bound repositories and commits on success.
func (s *documentService) inTx(ctx context.Context, fn func(docs repository.DocumentRepository, audits repository.AuditRepository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(s.docs.WithTx(tx), s.audits.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *documentService) audit(ctx context.Context, audits repository.AuditRepository, meta RequestMeta, action, recordID, details string) error {
	_, err := audits.Append(ctx, &model.AuditEntry{
		ID:               uuid.NewString(),
		ActorUserID:      meta.ActorID,
		Action:           action,
		AffectedTable:    auditTableDocuments,
		AffectedRecordID: recordID,
		Device:           meta.Device,
		Details:          details,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// notify fans out to project members after commit. Failures are logged and
// never surfaced: delivery is a side channel, not a correctness path.
func (s *documentService) notify(ctx context.Context, projectID string, n Notice) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyProjectMembers(ctx, projectID, n); err != nil {
		logWarn("notify_failed", map[string]any{
			"project_id": projectID,
			"subject":    n.Subject,
			"error":      err.Error(),
		})
	}
}

func validateExternalLink(link string) error {
	if strings.TrimSpace(link) == "" {
		return ErrInvalidLink
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidLink
	}
	return nil
}

func (s *documentService) Create(ctx context.Context, in CreateDocumentInput, meta RequestMeta) (*model.Document, error) {
	if in.ProjectID == "" {
		return nil, ErrProjectRequired
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrNameRequired
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}

	doc := &model.Document{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		UploadedBy:  meta.ActorID,
		UploadedAt:  s.now().UTC(),
		State:       model.DocumentStateActive,
	}

	var objKey string
	if in.Type == model.DocumentTypeExternalLink {
		if err := validateExternalLink(in.ExternalLink); err != nil {
			return nil, err
		}
		doc.ExternalLink = in.ExternalLink
	} else {
		if in.File == nil {
			return nil, ErrFileRequired
		}
		// Generated object name avoids collisions regardless of the
		// caller-supplied display name.
		ext := filepath.Ext(in.FileName)
		objKey = filepath.ToSlash(filepath.Join("documents", uuid.NewString()+ext))

		objInfo, err := s.store.Put(ctx, objKey, in.File, storage.PutObjectOptions{
			Size:        in.Size,
			ContentType: in.ContentType,
			Metadata: map[string]string{
				"original-filename": in.FileName,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
		doc.StoragePath = objInfo.Key
		doc.Size = objInfo.Size
		doc.ContentType = in.ContentType
	}

	var stored *model.Document
	err := s.inTx(ctx, func(docs repository.DocumentRepository, audits repository.AuditRepository) error {
		var err error
		stored, err = docs.Create(ctx, doc)
		if err != nil {
			return fmt.Errorf("db save failed: %w", err)
		}
		details := fmt.Sprintf("uploaded document %q to project %s", doc.Name, doc.ProjectID)
		return s.audit(ctx, audits, meta, "uploaded document", stored.ID, details)
	})
	if err != nil {
		// Rollback: remove the orphaned object from storage.
		if objKey != "" {
			if delErr := s.store.Delete(ctx, objKey); delErr != nil {
				return nil, fmt.Errorf("%v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, err
	}

	s.notify(ctx, stored.ProjectID, Notice{
		Subject:  "New document",
		Message:  fmt.Sprintf("Document %q was added to the project.", stored.Name),
		DeepLink: "documents/" + stored.ID,
	})
	return stored, nil
}

func (s *documentService) UpdateMetadata(ctx context.Context, id string, in UpdateMetadataInput, meta RequestMeta) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if in.empty() {
		return nil, ErrNoFields
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, ErrNameRequired
	}
	if in.ProjectID != nil && *in.ProjectID == "" {
		return nil, ErrProjectRequired
	}

	var updated *model.Document
	err := s.inTx(ctx, func(docs repository.DocumentRepository, audits repository.AuditRepository) error {
		cur, err := docs.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		next := *cur
		var changes []string
		if in.Name != nil {
			if trimmed := strings.TrimSpace(*in.Name); trimmed != cur.Name {
				next.Name = trimmed
				changes = append(changes, fmt.Sprintf("name: %q -> %q", cur.Name, next.Name))
			}
		}
		if in.Description != nil && *in.Description != cur.Description {
			next.Description = *in.Description
			changes = append(changes, "description updated")
		}
		if in.ProjectID != nil && *in.ProjectID != cur.ProjectID {
			next.ProjectID = *in.ProjectID
			changes = append(changes, fmt.Sprintf("project: %s -> %s", cur.ProjectID, next.ProjectID))
		}
		if in.Type != nil && *in.Type != cur.Type {
			next.Type = *in.Type
			changes = append(changes, fmt.Sprintf("type: %s -> %s", cur.Type, next.Type))
		}
		if in.ExternalLink != nil && *in.ExternalLink != cur.ExternalLink {
			next.ExternalLink = *in.ExternalLink
			changes = append(changes, "external link updated")
		}

		// A type change may not cross the file/link boundary: the content
		// source (object vs URL) is fixed at creation. For the same reason a
		// file-backed document can never carry an external link.
		if next.Type.HasFile() != cur.Type.HasFile() {
			return ErrTypeMismatch
		}
		if in.ExternalLink != nil && next.Type.HasFile() {
			return ErrTypeMismatch
		}
		if next.Type == model.DocumentTypeExternalLink {
			if err := validateExternalLink(next.ExternalLink); err != nil {
				return err
			}
		}

		if len(changes) == 0 {
			// Supplied fields all matched current values; nothing to write.
			updated = cur
			return nil
		}

		updated, err = docs.UpdateMetadata(ctx, &next)
		if err != nil {
			return fmt.Errorf("db update failed: %w", err)
		}
		return s.audit(ctx, audits, meta, "updated document metadata", id, strings.Join(changes, "; "))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *documentService) Trash(ctx context.Context, id string, meta RequestMeta) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	var trashed *model.Document
	err := s.inTx(ctx, func(docs repository.DocumentRepository, audits repository.AuditRepository) error {
		cur, err := docs.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if cur.State == model.DocumentStateTrashed {
			return ErrAlreadyTrashed
		}

		at := s.now().UTC()
		if err := docs.SetState(ctx, id, model.DocumentStateTrashed, &at); err != nil {
			return fmt.Errorf("db update failed: %w", err)
		}

		out := *cur
		out.State = model.DocumentStateTrashed
		out.TrashedAt = &at
		trashed = &out

		details := fmt.Sprintf("moved document %q to trash", cur.Name)
		return s.audit(ctx, audits, meta, "moved document to trash", id, details)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, trashed.ProjectID, Notice{
		Subject:  "Document moved to trash",
		Message:  fmt.Sprintf("Document %q was moved to trash.", trashed.Name),
		DeepLink: "documents/trash",
	})
	return trashed, nil
}

func (s *documentService) Restore(ctx context.Context, id string, meta RequestMeta) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	var restored *model.Document
	err := s.inTx(ctx, func(docs repository.DocumentRepository, audits repository.AuditRepository) error {
		cur, err := docs.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if cur.State != model.DocumentStateTrashed {
			return ErrNotTrashed
		}

		if err := docs.SetState(ctx, id, model.DocumentStateActive, nil); err != nil {
			return fmt.Errorf("db update failed: %w", err)
		}

		out := *cur
		out.State = model.DocumentStateActive
		out.TrashedAt = nil
		restored = &out

		details := fmt.Sprintf("restored document %q from trash", cur.Name)
		return s.audit(ctx, audits, meta, "restored document", id, details)
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func (s *documentService) PermanentlyDelete(ctx context.Context, id string, meta RequestMeta) error {
	if id == "" {
		return ErrIDRequired
	}

	cur, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already purged; retrying a delete is a success, not an error.
			return nil
		}
		return err
	}

	// The row is the source of truth: a missing physical file never blocks
	// the logical delete.
	if cur.Type.HasFile() && cur.StoragePath != "" {
		if err := s.store.Delete(ctx, cur.StoragePath); err != nil {
			logWarn("physical_file_delete_failed", map[string]any{
				"document_id":  id,
				"storage_path": cur.StoragePath,
				"error":        err.Error(),
			})
		}
	}

	var deleted bool
	err = s.inTx(ctx, func(docs repository.DocumentRepository, audits repository.AuditRepository) error {
		var err error
		deleted, err = docs.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("db delete failed: %w", err)
		}
		if !deleted {
			// Lost a race with a concurrent delete; nothing to audit.
			return nil
		}
		details := fmt.Sprintf("permanently deleted document %q from project %s. This action is irreversible; the document and its file are gone.", cur.Name, cur.ProjectID)
		return s.audit(ctx, audits, meta, "permanently deleted document", id, details)
	})
	if err != nil {
		return err
	}

	if deleted {
		s.notify(ctx, cur.ProjectID, Notice{
			Subject:  "Document deleted",
			Message:  fmt.Sprintf("Document %q was permanently deleted.", cur.Name),
			DeepLink: "documents",
		})
	}
	return nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) ListActive(ctx context.Context, projectID string, limit, offset int) (*DocumentListResult, error) {
	return s.list(ctx, model.DocumentStateActive, projectID, limit, offset)
}

func (s *documentService) ListTrashed(ctx context.Context, projectID string, limit, offset int) (*DocumentListResult, error) {
	return s.list(ctx, model.DocumentStateTrashed, projectID, limit, offset)
}

func (s *documentService) list(ctx context.Context, state model.DocumentState, projectID string, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.List(ctx, repository.DocumentListQuery{
		PageQuery: repository.PageQuery{Limit: limit, Offset: offset},
		State:     state,
		ProjectID: projectID,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id, userID string) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if doc.State != model.DocumentStateActive {
		return "", ErrNotFound
	}

	var link string
	if doc.Type == model.DocumentTypeExternalLink {
		link = doc.ExternalLink
	} else {
		link, err = s.store.PresignGet(ctx, doc.StoragePath, downloadURLTTL)
		if err != nil {
			return "", fmt.Errorf("presign download: %w", err)
		}
	}

	if err := s.downloads.Record(ctx, model.DownloadRecord{
		ID:           uuid.NewString(),
		DocumentID:   doc.ID,
		UserID:       userID,
		DownloadedAt: s.now().UTC(),
	}); err != nil {
		logWarn("download_record_failed", map[string]any{
			"document_id": doc.ID,
			"user_id":     userID,
			"error":       err.Error(),
		})
	}
	return link, nil
}

// logWarn emits one JSON warning line, matching the process-wide log format.
func logWarn(event string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "warn",
		"event": event,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
