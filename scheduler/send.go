package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"mailcadence/cadence"
	"mailcadence/models"
	"mailcadence/provider"
)

// farewellLine replaces the composed body on the last step a sequence will
// ever send.
const farewellLine = "Did I lose you?"

// SendScheduled claims a batch of due scheduled messages and delivers them.
// limit <= 0 falls back to the configured batch limit; either way the
// effective batch is clamped to [1, 100].
//
// Everything the row depends on is revalidated after the claim: the claim
// guarantees exclusive ownership, not that the world still looks like it did
// when the row was scheduled.
func (s *Scheduler) SendScheduled(ctx context.Context, limit int) PassResult {
	res := PassResult{Pass: "send"}
	db := s.DB.WithContext(ctx)
	now := s.now()

	if limit <= 0 {
		limit = s.batchLimit()
	}
	limit = clampLimit(limit)

	var ids []uint
	err := db.Model(&models.Message{}).
		Where("direction = ?", models.DirectionOutbound).
		Where("status = ?", models.StatusScheduled).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		// Rows of deactivated sequences stay out of the batch entirely;
		// dangling sequence ids still come through and fail in sendOne.
		Where("sequence_id IS NULL OR sequence_id NOT IN (SELECT id FROM sequences WHERE active = ? AND deleted_at IS NULL)", false).
		Order("scheduled_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("failed to list scheduled candidates: %v", err))
		return res
	}

	claimed, claimID, err := s.claim(db, ids, models.StatusScheduled)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("failed to claim scheduled batch: %v", err))
		return res
	}
	defer s.releaseClaim(claimID, models.StatusScheduled)
	res.Claimed = len(claimed)

	mailers := map[uint]provider.Mailer{}
	for i := range claimed {
		m := &claimed[i]
		if err := s.sendOne(ctx, db, m, mailers); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d: %v", m.ID, err))
			continue
		}
		switch m.Status {
		case models.StatusSent:
			res.Succeeded++
		case models.StatusFailed:
			res.Failed++
		case models.StatusCancelled:
			res.Cancelled++
		default:
			res.Requeued++
		}
	}

	if res.Claimed > 0 {
		s.log().WithFields(map[string]interface{}{
			"claimed":   res.Claimed,
			"sent":      res.Succeeded,
			"failed":    res.Failed,
			"cancelled": res.Cancelled,
			"requeued":  res.Requeued,
		}).Info("Send pass complete")
	}
	return res
}

func (s *Scheduler) sendOne(ctx context.Context, db *gorm.DB, m *models.Message, mailers map[uint]provider.Mailer) error {
	now := s.now()

	if strings.TrimSpace(m.Subject) == "" || strings.TrimSpace(m.Contents) == "" {
		return s.moveTo(db, m, models.StatusFailed, "message has no subject or body", nil)
	}

	var contact models.Contact
	err := db.First(&contact, m.ContactID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.moveTo(db, m, models.StatusFailed, "contact no longer exists", nil)
	}
	if err != nil {
		return err
	}
	if contact.ValidEmail == models.EmailInvalid {
		return s.moveTo(db, m, models.StatusFailed, "contact email is invalid", nil)
	}
	if contact.Replied || m.HasReply {
		// A reply landed between scheduling and sending; the correlator may
		// not have purged this row yet.
		return s.moveTo(db, m, models.StatusCancelled, "contact has replied", nil)
	}

	var seq *models.Sequence
	if m.SequenceID != nil {
		var loaded models.Sequence
		err := db.First(&loaded, *m.SequenceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.moveTo(db, m, models.StatusFailed, "sequence no longer exists", nil)
		}
		if err != nil {
			return err
		}
		if !loaded.Active {
			return s.moveTo(db, m, models.StatusCancelled, "sequence is no longer active", nil)
		}
		seq = &loaded
	}

	if m.NeedsApproval && !m.Approved {
		if m.ApprovalDeadline == nil || m.ApprovalDeadline.After(now) {
			return s.moveTo(db, m, models.StatusPending, "", nil)
		}
		m.Approved = true
	}

	mailer, ok := mailers[m.OwnerID]
	if !ok {
		var err error
		mailer, _, err = s.Mailers.ForOwner(m.OwnerID)
		if err != nil {
			if provider.Permanent(err) {
				return s.moveTo(db, m, models.StatusFailed, err.Error(), nil)
			}
			return s.moveTo(db, m, models.StatusScheduled, err.Error(), nil)
		}
		mailers[m.OwnerID] = mailer
	}

	if seq != nil && cadence.IsFinalStep(seq.SequenceType, seq.CurrentStep, seq.EndDate, now) {
		m.Contents = farewellLine
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout())
	result, err := mailer.Send(sendCtx, provider.SendRequest{
		To:       contact.Email,
		Subject:  m.Subject,
		HTML:     m.Contents,
		ThreadID: m.ThreadID,
	})
	cancel()
	if err != nil {
		if provider.Permanent(err) {
			return s.moveTo(db, m, models.StatusFailed, err.Error(), nil)
		}
		// Transient: back to scheduled for the next tick. The sequence's end
		// date bounds how long the retries can go on.
		return s.moveTo(db, m, models.StatusScheduled, err.Error(), nil)
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if err := s.moveTo(tx, m, models.StatusSent, "", map[string]interface{}{
			"sent_at":             now,
			"contents":            m.Contents,
			"approved":            m.Approved,
			"provider_message_id": result.MessageID,
			"thread_id":           result.ThreadID,
		}); err != nil {
			return err
		}
		if seq != nil {
			if err := advanceSequence(tx, seq, now); err != nil {
				return err
			}
		}
		return tx.Model(&models.Contact{}).
			Where("id = ?", contact.ID).
			Update("last_activity", now).Error
	})
	if txErr != nil {
		// The wire send already happened and cannot be rolled back, so the
		// row must not fall back into circulation. Best effort direct mark.
		s.log().WithError(txErr).WithField("message_id", m.ID).Error("Post-send bookkeeping failed")
		_ = s.moveTo(db, m, models.StatusSent, "", map[string]interface{}{
			"sent_at":             now,
			"provider_message_id": result.MessageID,
			"thread_id":           result.ThreadID,
		})
		m.Status = models.StatusSent
		return txErr
	}
	return nil
}

// advanceSequence records a sent step: bump the counter, compute the next
// due date, and deactivate when the cadence has run its course. An unknown
// cadence policy deactivates too; guessing an interval is not an option.
func advanceSequence(tx *gorm.DB, seq *models.Sequence, now time.Time) error {
	next, err := cadence.NextDue(seq.SequenceType, seq.CurrentStep, seq.EndDate, now)

	updates := map[string]interface{}{
		"current_step": seq.CurrentStep + 1,
	}
	if err != nil || next == nil {
		updates["active"] = false
		updates["next_step_due"] = nil
	} else {
		updates["next_step_due"] = next
	}

	return tx.Model(&models.Sequence{}).
		Where("id = ?", seq.ID).
		Updates(updates).Error
}
