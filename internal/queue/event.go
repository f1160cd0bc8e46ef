// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// AuditQueueName is the durable queue audit events are published to.
const AuditQueueName = "character-api.audit"

// Audit event types.
const (
	EventUserRegistered   = "user.registered"
	EventUserLoggedIn     = "user.logged_in"
	EventUserLoggedOut    = "user.logged_out"
	EventCharacterCreated = "character.created"
	EventCharacterUpdated = "character.updated"
	EventCharacterDeleted = "character.deleted"
)

// AuditEvent is published after a state-changing request succeeds.  It
// carries enough to reconstruct who did what without querying the stores.
type AuditEvent struct {
	Type        string `json:"type"`
	UserID      uint64 `json:"user_id,omitempty"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	CharacterID uint64 `json:"character_id,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
