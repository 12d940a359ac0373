package provider

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"mailcadence/config"
	"mailcadence/models"
)

// Registry resolves an owner to their Mailer. Owners with a Mailbox row get
// a password- or OAuth-backed account depending on what the row carries;
// everyone else falls back to the anonymous-tenant mailbox from config.
type Registry struct {
	db   *gorm.DB
	conf *config.Config

	mu    sync.Mutex
	cache map[uint]cachedAccount // keyed by mailbox id; 0 is the default mailbox
}

type cachedAccount struct {
	updatedAt time.Time
	account   *Account
}

func NewRegistry(db *gorm.DB, conf *config.Config) *Registry {
	return &Registry{
		db:    db,
		conf:  conf,
		cache: make(map[uint]cachedAccount),
	}
}

// ForOwner returns the Mailer for ownerID, plus the Mailbox row when the
// owner has one (nil for the default mailbox).
func (r *Registry) ForOwner(ownerID uint) (Mailer, *models.Mailbox, error) {
	var mbox models.Mailbox
	err := r.db.Where("owner_id = ?", ownerID).First(&mbox).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct, err := r.defaultAccount()
		return acct, nil, err
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load mailbox for owner %d: %w", ownerID, err)
	}

	acct := r.accountFor(&mbox)
	return acct, &mbox, nil
}

// InboxOwners lists the owners whose mailbox can be polled for inbound
// mail, with 0 standing in for the default mailbox.
func (r *Registry) InboxOwners() ([]uint, error) {
	var owners []uint
	err := r.db.Model(&models.Mailbox{}).
		Where("imap_host IS NOT NULL AND imap_host != ''").
		Where("verified = ?", true).
		Pluck("owner_id", &owners).Error
	if err != nil {
		return nil, err
	}
	if r.conf.DefaultMailbox.IMAPHost != "" {
		owners = append(owners, 0)
	}
	return owners, nil
}

// accountFor builds (or reuses) the Account for a mailbox row. The cache is
// keyed on the row's UpdatedAt so OAuth token sources survive across calls
// but rotated credentials take effect immediately.
func (r *Registry) accountFor(mbox *models.Mailbox) *Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hit, ok := r.cache[mbox.ID]; ok && hit.updatedAt.Equal(mbox.UpdatedAt) {
		return hit.account
	}

	acct := &Account{
		FromEmail:      mbox.FromEmail,
		FromName:       mbox.FromName,
		SMTPHost:       mbox.SMTPHost,
		SMTPPort:       mbox.SMTPPort,
		SMTPUsername:   mbox.SMTPUsername,
		IMAPHost:       mbox.IMAPHost,
		IMAPPort:       mbox.IMAPPort,
		IMAPUsername:   mbox.IMAPUsername,
		IMAPEncryption: mbox.IMAPEncryption,
		IMAPMailbox:    mbox.IMAPMailbox,
	}

	if mbox.UsesOAuth() {
		oc := googleOAuthConfig(r.conf.Google)
		secret := oauthPassword(oc, mbox.OAuthRefreshToken)
		acct.smtpPassword = secret
		acct.imapPassword = secret
	} else {
		acct.smtpPassword = staticPassword(mbox.SMTPPassword)
		acct.imapPassword = staticPassword(mbox.IMAPPassword)
	}

	r.cache[mbox.ID] = cachedAccount{updatedAt: mbox.UpdatedAt, account: acct}
	return acct
}

func (r *Registry) defaultAccount() (*Account, error) {
	def := r.conf.DefaultMailbox
	if !def.Configured() {
		return nil, ErrNoMailbox
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if hit, ok := r.cache[0]; ok {
		return hit.account, nil
	}

	acct := &Account{
		FromEmail:      def.FromEmail,
		FromName:       def.FromName,
		SMTPHost:       def.SMTPHost,
		SMTPPort:       def.SMTPPort,
		SMTPUsername:   def.SMTPUsername,
		IMAPHost:       def.IMAPHost,
		IMAPPort:       def.IMAPPort,
		IMAPUsername:   def.IMAPUsername,
		IMAPEncryption: "SSL",
		IMAPMailbox:    def.IMAPMailbox,
		smtpPassword:   staticPassword(def.SMTPPassword),
		imapPassword:   staticPassword(def.IMAPPassword),
	}
	r.cache[0] = cachedAccount{account: acct}
	return acct, nil
}
