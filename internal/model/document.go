package model

import "time"

// DocumentType is the closed set of document kinds the system stores.
// File-backed types carry a storage path; EXTERNAL_LINK carries a URL instead
// and no physical object exists for it.
type DocumentType string

const (
	DocumentTypePDF          DocumentType = "pdf"
	DocumentTypeSpreadsheet  DocumentType = "spreadsheet"
	DocumentTypeWordDoc      DocumentType = "word_doc"
	DocumentTypeExternalLink DocumentType = "external_link"
)

// Valid reports whether t is a member of the known type set.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypePDF, DocumentTypeSpreadsheet, DocumentTypeWordDoc, DocumentTypeExternalLink:
		return true
	}
	return false
}

// HasFile reports whether documents of this type own a physical object in
// blob storage.
func (t DocumentType) HasFile() bool {
	return t != DocumentTypeExternalLink
}

// DocumentState is the explicit lifecycle state of a stored document.
// A purged document has no state: its row no longer exists and only the audit
// log records that it ever did.
type DocumentState string

const (
	DocumentStateActive  DocumentState = "active"
	DocumentStateTrashed DocumentState = "trashed"
)

// Document represents a project document in Active or Trashed state.
// This is a pure domain model with no database-specific dependencies or tags.
//
// Invariant: TrashedAt is non-nil iff State == DocumentStateTrashed. The
// schema enforces the same pairing with a CHECK constraint so an
// active-with-timestamp row is unrepresentable.
type Document struct {
	ID           string        `json:"id"`
	ProjectID    string        `json:"project_id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Type         DocumentType  `json:"type"`
	StoragePath  string        `json:"storage_path,omitempty"`
	ExternalLink string        `json:"external_link,omitempty"`
	Size         int64         `json:"size,omitempty"`
	ContentType  string        `json:"content_type,omitempty"`
	UploadedBy   string        `json:"uploaded_by"`
	UploadedAt   time.Time     `json:"uploaded_at"`
	State        DocumentState `json:"state"`
	TrashedAt    *time.Time    `json:"trashed_at,omitempty"`
}
