package domain

import "time"

// AuditAction names a recorded user-facing action.
type AuditAction string

const (
	AuditUserRegistered AuditAction = "user.registered"
	AuditUserLogin      AuditAction = "user.login"
	AuditMessageCreated AuditAction = "message.created"
	AuditMessageRead    AuditAction = "message.read"
)

// AuditEvent is an append-only record of something a user did.
type AuditEvent struct {
	ID        string      `json:"id" bson:"_id"`
	Action    AuditAction `json:"action" bson:"action"`
	Username  string      `json:"username" bson:"username"`
	MessageID int64       `json:"message_id,omitempty" bson:"message_id,omitempty"`
	At        time.Time   `json:"at" bson:"at"`
}
