package model

import "time"

// AuditStatus classifies an audit log entry.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditWarning AuditStatus = "warning"
	AuditInfo    AuditStatus = "info"
)

// AuditEntry is one operator-facing history record. Distinct from
// AgentStep: the audit log records what happened to the workspace, the
// step trace records how an agent run executed.
type AuditEntry struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Event     string      `json:"event"`
	User      string      `json:"user"`
	Status    AuditStatus `json:"status"`
}
