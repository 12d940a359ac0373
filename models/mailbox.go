package models

import (
	"time"

	"gorm.io/gorm"
)

// Mailbox represents sending and receiving credentials for one owner.
// Either the SMTP/IMAP password fields or the OAuth fields are populated;
// the provider layer picks the implementation from what is present.
type Mailbox struct {
	gorm.Model
	OwnerID uint `gorm:"not null;uniqueIndex" json:"owner_id"`

	FromEmail string `gorm:"not null" json:"from_email"`
	FromName  string `json:"from_name"`

	// ========= SMTP Configuration =========
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `gorm:"default:587" json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"-"` // Encrypted in application layer

	// ========= IMAP Configuration =========
	IMAPHost       string `json:"imap_host"`
	IMAPPort       int    `gorm:"default:993" json:"imap_port"`
	IMAPUsername   string `json:"imap_username"`
	IMAPPassword   string `json:"-"` // Encrypted in application layer
	IMAPEncryption string `gorm:"default:'SSL'" json:"imap_encryption"`
	IMAPMailbox    string `gorm:"default:'INBOX'" json:"imap_mailbox"`

	// ========= OAuth Configuration =========
	OAuthProvider     string `json:"oauth_provider"` // google, microsoft
	OAuthRefreshToken string `json:"-"`              // Encrypted

	// ========= Status =========
	Verified      bool       `gorm:"default:false" json:"verified"`
	LastCheckedAt *time.Time `json:"last_checked_at"`
	LastError     *string    `json:"last_error"`
}

// UsesOAuth reports whether this mailbox authenticates with an OAuth token
// source instead of a stored password.
func (m *Mailbox) UsesOAuth() bool {
	return m.OAuthProvider != "" && m.OAuthRefreshToken != ""
}
