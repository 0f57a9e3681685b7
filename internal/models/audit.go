package models

import "time"

// Audit actions recorded for contact mutations.
const (
	AuditActionContactUpdate = "CONTACT_UPDATE"
	AuditActionContactExport = "CONTACT_EXPORT"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	LatencyMs int64     `json:"latency_ms"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}
