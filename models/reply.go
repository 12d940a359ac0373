package models

import (
	"time"

	"gorm.io/gorm"
)

// EmailReply is a persisted, classified inbound reply. ReplyMessageID is the
// idempotency key: a cron re-run over the same inbox must not create a second
// row for the same provider message.
type EmailReply struct {
	gorm.Model
	SequenceID *uint `gorm:"index" json:"sequence_id"`
	ContactID  uint  `gorm:"not null;index" json:"contact_id"`
	OwnerID    uint  `gorm:"not null;index" json:"owner_id"`

	ThreadID          string `gorm:"index" json:"thread_id"`
	OriginalMessageID uint   `gorm:"index" json:"original_message_id"` // the outbound Message this answers
	ReplyMessageID    string `gorm:"not null;uniqueIndex" json:"reply_message_id"`

	ReplySubject string    `json:"reply_subject"`
	ReplyContent string    `gorm:"type:text" json:"reply_content"` // new human content only
	ReplyHistory string    `gorm:"type:text" json:"reply_history"` // quoted original below the reply
	ReplyDate    time.Time `json:"reply_date"`

	IsAutomated bool `gorm:"default:false" json:"is_automated"`

	// Processed is a read flag owned by the UI layer
	Processed bool `gorm:"default:false" json:"processed"`
}
