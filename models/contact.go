package models

import (
	"time"

	"gorm.io/gorm"
)

// Email validity states for a contact. The engine only ever moves a contact
// from unknown/valid to invalid (on a bounce); the CRUD layer owns the rest.
const (
	EmailUnknown = "unknown"
	EmailValid   = "valid"
	EmailInvalid = "invalid"
)

// Contact represents a single outreach target
type Contact struct {
	gorm.Model
	OwnerID uint `gorm:"not null;index" json:"owner_id"`

	Email     string `gorm:"not null;uniqueIndex:idx_contacts_owner_email" json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`

	// Status
	Active     bool   `gorm:"default:false" json:"active"`  // currently in a live sequence
	Replied    bool   `gorm:"default:false" json:"replied"` // has ever replied
	ValidEmail string `gorm:"default:'unknown'" json:"valid_email"`

	LastActivity *time.Time `json:"last_activity"`

	// Relations
	Sequences []Sequence `gorm:"foreignKey:ContactID" json:"sequences,omitempty"`
}
