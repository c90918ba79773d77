package model

import "time"

// DeviceContext carries forensic request metadata captured from the caller.
// All fields are optional; absent values are persisted as "unknown", never
// inferred. It is used for traceability only, never for authorization.
type DeviceContext struct {
	DeviceModel string `json:"device_model,omitempty"`
	OSVersion   string `json:"os_version,omitempty"`
	SDKVersion  string `json:"sdk_version,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
}

const unknownField = "unknown"

// Normalized returns a copy with every empty field replaced by "unknown".
func (d DeviceContext) Normalized() DeviceContext {
	out := d
	if out.DeviceModel == "" {
		out.DeviceModel = unknownField
	}
	if out.OSVersion == "" {
		out.OSVersion = unknownField
	}
	if out.SDKVersion == "" {
		out.SDKVersion = unknownField
	}
	if out.IPAddress == "" {
		out.IPAddress = unknownField
	}
	return out
}

// AuditEntry is an immutable, append-only record of one mutating operation.
//
// Invariants:
//   - Entries are never updated or deleted.
//   - One entry is written per mutating operation, in the same transaction as
//     the state mutation, so a state change without an audit trail cannot be
//     committed.
//   - AffectedRecordID is empty for batch actions with no single target.
type AuditEntry struct {
	ID               string        `json:"id"`
	ActorUserID      string        `json:"actor_user_id"`
	Action           string        `json:"action"`
	AffectedTable    string        `json:"affected_table"`
	AffectedRecordID string        `json:"affected_record_id,omitempty"`
	Device           DeviceContext `json:"device"`
	Details          string        `json:"details,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}
