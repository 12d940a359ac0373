package models

import (
	"time"

	"gorm.io/gorm"
)

// MessageStatus is the outbound delivery state machine.
type MessageStatus string

const (
	StatusPending    MessageStatus = "pending"    // awaiting approval
	StatusScheduled  MessageStatus = "scheduled"  // due-date reached, approval satisfied or not needed
	StatusProcessing MessageStatus = "processing" // claimed by a scheduler pass
	StatusSent       MessageStatus = "sent"
	StatusFailed     MessageStatus = "failed"
	StatusCancelled  MessageStatus = "cancelled"
)

// Message directions
const (
	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// statusTransitions is the authoritative transition table. scheduled->pending
// and processing->scheduled are the recovery edges.
var statusTransitions = map[MessageStatus][]MessageStatus{
	StatusPending:    {StatusScheduled, StatusProcessing, StatusFailed, StatusCancelled},
	StatusScheduled:  {StatusProcessing, StatusPending, StatusCancelled},
	StatusProcessing: {StatusSent, StatusFailed, StatusCancelled, StatusScheduled, StatusPending},
}

// CanTransition reports whether moving from s to next is a legal edge.
func (s MessageStatus) CanTransition(next MessageStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing edges.
func (s MessageStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Message represents one outbound or inbound email
type Message struct {
	gorm.Model
	ContactID  uint  `gorm:"not null;index" json:"contact_id"`
	OwnerID    uint  `gorm:"not null;index" json:"owner_id"`
	SequenceID *uint `gorm:"index" json:"sequence_id"` // nil means standalone

	Direction string        `gorm:"not null;default:'outbound'" json:"direction"`
	Status    MessageStatus `gorm:"type:varchar(16);index" json:"status"`

	Subject  string `json:"subject"`
	Contents string `gorm:"type:text" json:"contents"`

	ScheduledAt *time.Time `gorm:"index" json:"scheduled_at"`
	SentAt      *time.Time `json:"sent_at"`

	ThreadID          string `gorm:"index" json:"thread_id"`
	ProviderMessageID string `gorm:"index" json:"provider_message_id"`

	HasReply bool `gorm:"default:false" json:"has_reply"`

	// Approval gate: pending messages wait here until promoted
	NeedsApproval    bool       `gorm:"default:false" json:"needs_approval"`
	Approved         bool       `gorm:"default:false" json:"approved"`
	ApprovalDeadline *time.Time `json:"approval_deadline"`

	// ClaimID ties a processing row to the batch claim that took it, so a
	// pass only ever operates on rows its own atomic update touched.
	ClaimID *string `gorm:"index" json:"-"`

	LastError *string `json:"last_error"`

	// Relations
	Contact  Contact   `json:"-"`
	Sequence *Sequence `json:"-"`
}
