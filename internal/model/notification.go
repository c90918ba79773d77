package model

import "time"

// NotificationCategory groups notifications for the client's notification
// center. Document lifecycle events all use NotificationCategoryDocument.
type NotificationCategory string

const NotificationCategoryDocument NotificationCategory = "document"

// Notification is one per-recipient record produced by a fan-out.
// Read/unread state is owned by the notification-center feature; this service
// only ever inserts unread records.
type Notification struct {
	ID          string               `json:"id"`
	RecipientID string               `json:"recipient_user_id"`
	Subject     string               `json:"subject"`
	Message     string               `json:"message"`
	Category    NotificationCategory `json:"category"`
	DeepLink    string               `json:"deep_link,omitempty"`
	Read        bool                 `json:"read"`
	CreatedAt   time.Time            `json:"created_at"`
}

// DownloadRecord is an append-only fact that a user retrieved a document.
// It is best-effort telemetry and never blocks the download itself.
type DownloadRecord struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"document_id"`
	UserID       string    `json:"user_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
