package models

import (
	"time"

	"gorm.io/gorm"
)

// Sequence represents one cadence run of follow-ups targeting one contact.
// A contact has at most one active sequence at a time; the CRUD layer
// enforces that and the engine relies on it.
type Sequence struct {
	gorm.Model
	ContactID uint `gorm:"not null;index" json:"contact_id"`
	OwnerID   uint `gorm:"not null;index" json:"owner_id"`

	SequenceType string `gorm:"not null" json:"sequence_type"` // cadence policy: 1day, 3day, 7day, 14day, 28day, 31day

	Active      bool       `gorm:"default:true;index" json:"active"`
	CurrentStep int        `gorm:"default:0" json:"current_step"`
	NextStepDue *time.Time `json:"next_step_due"`
	EndDate     *time.Time `json:"end_date"` // hard stop for the whole cadence

	// Relations
	Contact  Contact   `json:"-"`
	Messages []Message `gorm:"foreignKey:SequenceID" json:"messages,omitempty"`
}
