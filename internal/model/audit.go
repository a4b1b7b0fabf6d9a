package model

import "github.com/google/uuid"

// AuditEntry is one row of the administrative audit log.
type AuditEntry struct {
	UserID     *uuid.UUID
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	IP         string
	UserAgent  string
}
