package model

import "time"

// AuditEntry is one persisted authentication event.
type AuditEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
	UserID     string    `json:"userId,omitempty"`
	Email      string    `json:"email,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

type ActivityResponse struct {
	Events []AuditEntry `json:"events"`
}
