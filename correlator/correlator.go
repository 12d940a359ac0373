// Package correlator ties inbound emails back to the outbound messages that
// prompted them and applies the consequences: a human reply ends the
// contact's cadence, a bounce poisons the address, an automated reply is
// recorded and otherwise ignored.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mailcadence/classify"
	"mailcadence/models"
	"mailcadence/provider"
)

// Outcome is what an inbound message turned out to be.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"   // no matching outbound thread, or wrong sender
	OutcomeDuplicate Outcome = "duplicate" // already processed this message id
	OutcomeBounce    Outcome = "bounce"
	OutcomeReply     Outcome = "reply"
	OutcomeAutomated Outcome = "automated_reply"
)

type Correlator struct {
	DB  *gorm.DB
	Log *logrus.Entry

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time
}

func New(db *gorm.DB, log *logrus.Entry) *Correlator {
	return &Correlator{DB: db, Log: log}
}

func (c *Correlator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Correlator) log() *logrus.Entry {
	if c.Log != nil {
		return c.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// ProcessInbound classifies one inbound message for an owner and records the
// result. Reprocessing the same message id is a no-op: the provider-assigned
// id is the idempotency key, enforced by a unique index so concurrent
// deliveries cannot double-record either.
func (c *Correlator) ProcessInbound(ctx context.Context, ownerID uint, msg *provider.InboundMessage) (Outcome, error) {
	if msg == nil || msg.ID == "" {
		return OutcomeIgnored, errors.New("inbound message has no id")
	}
	db := c.DB.WithContext(ctx)

	var seen int64
	err := db.Model(&models.Message{}).
		Where("owner_id = ? AND direction = ? AND provider_message_id = ?",
			ownerID, models.DirectionInbound, msg.ID).
		Count(&seen).Error
	if err != nil {
		return OutcomeIgnored, err
	}
	if seen > 0 {
		return OutcomeDuplicate, nil
	}

	orig, err := c.matchOutbound(db, ownerID, msg)
	if err != nil {
		return OutcomeIgnored, err
	}
	if orig == nil {
		return OutcomeIgnored, nil
	}

	body := msg.PlainText()

	// Bounces come from the MTA, not from the contact, so they are
	// classified before any sender check.
	if classify.IsBounce(msg.Header, body) {
		return c.recordBounce(db, orig, msg, body)
	}

	var contact models.Contact
	if err := db.First(&contact, orig.ContactID).Error; err != nil {
		return OutcomeIgnored, fmt.Errorf("failed to load contact %d: %w", orig.ContactID, err)
	}
	sender := extractAddress(msg.From)
	if !strings.EqualFold(sender, contact.Email) {
		c.log().WithFields(map[string]interface{}{
			"message_id": msg.ID,
			"from":       sender,
			"expected":   contact.Email,
		}).Info("Ignoring reply from unexpected sender")
		return OutcomeIgnored, nil
	}

	automated := classify.IsAutomated(msg.Header, msg.Subject, body)
	return c.recordReply(db, orig, &contact, msg, body, automated)
}

// matchOutbound finds the sent message the inbound one belongs to. The
// inbound thread id is In-Reply-To, the conversation root from References,
// or the message's own id; it matches either our stored thread or a specific
// message id we assigned.
func (c *Correlator) matchOutbound(db *gorm.DB, ownerID uint, msg *provider.InboundMessage) (*models.Message, error) {
	if msg.ThreadID == "" {
		return nil, nil
	}

	var orig models.Message
	err := db.Where("owner_id = ? AND direction = ? AND status = ?",
		ownerID, models.DirectionOutbound, models.StatusSent).
		Where("thread_id = ? OR provider_message_id = ?", msg.ThreadID, msg.ThreadID).
		Order("sent_at DESC").
		First(&orig).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &orig, nil
}

// recordBounce poisons the contact's address and shuts the cadence down.
// No reply row is written; a bounce is not a conversation.
func (c *Correlator) recordBounce(db *gorm.DB, orig *models.Message, msg *provider.InboundMessage, body string) (Outcome, error) {
	now := c.now()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c.inboundCopy(orig, msg, body, now)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Contact{}).
			Where("id = ?", orig.ContactID).
			Updates(map[string]interface{}{
				"valid_email":   models.EmailInvalid,
				"active":        false,
				"last_activity": now,
			}).Error; err != nil {
			return err
		}
		if err := cancelUnsent(tx, orig, "contact email bounced"); err != nil {
			return err
		}
		return deactivateSequence(tx, orig.SequenceID, now)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return OutcomeDuplicate, nil
		}
		return OutcomeIgnored, err
	}

	c.log().WithFields(map[string]interface{}{
		"message_id": msg.ID,
		"contact_id": orig.ContactID,
	}).Warn("Bounce recorded, contact email marked invalid")
	return OutcomeBounce, nil
}

// recordReply stores the reply and, for a human one, ends the cadence:
// unsent siblings are deleted, the sequence deactivated, the contact
// marked as replied. Automated replies are recorded but change nothing
// about the cadence; an out-of-office must not stop the follow-ups.
func (c *Correlator) recordReply(db *gorm.DB, orig *models.Message, contact *models.Contact, msg *provider.InboundMessage, body string, automated bool) (Outcome, error) {
	now := c.now()
	sections := classify.SplitSections(body)

	replyDate := msg.InternalDate
	if replyDate.IsZero() {
		replyDate = now
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c.inboundCopy(orig, msg, body, now)).Error; err != nil {
			return err
		}
		reply := &models.EmailReply{
			SequenceID:        orig.SequenceID,
			ContactID:         orig.ContactID,
			OwnerID:           orig.OwnerID,
			ThreadID:          orig.ThreadID,
			OriginalMessageID: orig.ID,
			ReplyMessageID:    msg.ID,
			ReplySubject:      msg.Subject,
			ReplyContent:      sections.Reply,
			ReplyHistory:      sections.History,
			ReplyDate:         replyDate,
			IsAutomated:       automated,
		}
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Message{}).
			Where("id = ?", orig.ID).
			Update("has_reply", true).Error; err != nil {
			return err
		}

		if automated {
			return tx.Model(&models.Contact{}).
				Where("id = ?", contact.ID).
				Update("last_activity", now).Error
		}

		if err := deleteUnsent(tx, orig); err != nil {
			return err
		}
		if err := deactivateSequence(tx, orig.SequenceID, now); err != nil {
			return err
		}
		return tx.Model(&models.Contact{}).
			Where("id = ?", contact.ID).
			Updates(map[string]interface{}{
				"replied":       true,
				"active":        false,
				"last_activity": now,
			}).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return OutcomeDuplicate, nil
		}
		return OutcomeIgnored, err
	}

	if automated {
		return OutcomeAutomated, nil
	}
	c.log().WithFields(map[string]interface{}{
		"message_id": msg.ID,
		"contact_id": contact.ID,
	}).Info("Reply recorded, cadence stopped")
	return OutcomeReply, nil
}

// inboundCopy builds the stored mirror of an inbound message. It gets a
// terminal status so no scheduler pass will ever pick it up.
func (c *Correlator) inboundCopy(orig *models.Message, msg *provider.InboundMessage, body string, now time.Time) *models.Message {
	sentAt := msg.InternalDate
	if sentAt.IsZero() {
		sentAt = now
	}
	return &models.Message{
		ContactID:         orig.ContactID,
		OwnerID:           orig.OwnerID,
		SequenceID:        orig.SequenceID,
		Direction:         models.DirectionInbound,
		Status:            models.StatusSent,
		Subject:           msg.Subject,
		Contents:          body,
		SentAt:            &sentAt,
		ThreadID:          orig.ThreadID,
		ProviderMessageID: msg.ID,
	}
}

// deleteUnsent removes the outbound messages of the same contact and
// sequence that have not gone out yet. A reply invalidates the rest of
// the queued cadence; the rows carry no history worth keeping.
func deleteUnsent(tx *gorm.DB, orig *models.Message) error {
	q := unsentSiblings(tx, orig)
	return q.Delete(&models.Message{}).Error
}

// cancelUnsent flips the queued siblings to cancelled instead of deleting
// them. Used on the bounce path, where the rows double as a record of what
// was aborted and why.
func cancelUnsent(tx *gorm.DB, orig *models.Message, reason string) error {
	return unsentSiblings(tx, orig).
		Model(&models.Message{}).
		Updates(map[string]interface{}{
			"status":     models.StatusCancelled,
			"last_error": reason,
		}).Error
}

func unsentSiblings(tx *gorm.DB, orig *models.Message) *gorm.DB {
	q := tx.
		Where("contact_id = ? AND direction = ?", orig.ContactID, models.DirectionOutbound).
		Where("status IN ?", []models.MessageStatus{models.StatusPending, models.StatusScheduled})
	if orig.SequenceID != nil {
		q = q.Where("sequence_id = ?", *orig.SequenceID)
	}
	return q
}

func deactivateSequence(tx *gorm.DB, sequenceID *uint, now time.Time) error {
	if sequenceID == nil {
		return nil
	}
	return tx.Model(&models.Sequence{}).
		Where("id = ?", *sequenceID).
		Updates(map[string]interface{}{
			"active":        false,
			"next_step_due": nil,
			"end_date":      now,
		}).Error
}

// extractAddress pulls the bare address out of a From header value.
func extractAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(from)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
