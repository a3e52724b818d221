package models

import "time"

// Actor is the already-authorized caller, as resolved by the auth middleware.
type Actor struct {
	UserID      int      `json:"user_id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type AuditEvent struct {
	ID           string                 `json:"id"`
	ActorID      int                    `json:"actor_id"`
	ActorName    string                 `json:"actor_name"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resource_type"`
	ResourceID   string                 `json:"resource_id"`
	Metadata     map[string]interface{} `json:"metadata"`
	OccurredAt   time.Time              `json:"occurred_at"`
}

type AuditLog struct {
	ID           string    `db:"id" json:"id"`
	ActorID      int       `db:"actor_id" json:"actor_id"`
	ActorName    string    `db:"actor_name" json:"actor_name"`
	Action       string    `db:"action" json:"action"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	ResourceID   string    `db:"resource_id" json:"resource_id"`
	Metadata     string    `db:"metadata" json:"metadata"`
	OccurredAt   time.Time `db:"occurred_at" json:"occurred_at"`
}
