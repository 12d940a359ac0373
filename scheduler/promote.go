package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"mailcadence/models"
)

// PromotePending moves due pending messages into the scheduled state.
// Pending is the approval waiting room: a row leaves it once its due date has
// arrived and the approval gate is satisfied, either explicitly or because
// the approval deadline lapsed. Rows whose sequence has died along the way
// are resolved here instead of being promoted.
func (s *Scheduler) PromotePending(ctx context.Context) PassResult {
	res := PassResult{Pass: "promote"}
	db := s.DB.WithContext(ctx)
	now := s.now()

	var ids []uint
	err := db.Model(&models.Message{}).
		Where("direction = ?", models.DirectionOutbound).
		Where("status = ?", models.StatusPending).
		Where("scheduled_at IS NOT NULL AND scheduled_at <= ?", now).
		Where("needs_approval = ? OR approved = ? OR (approval_deadline IS NOT NULL AND approval_deadline <= ?)",
			false, true, now).
		Order("scheduled_at").
		Limit(s.batchLimit()).
		Pluck("id", &ids).Error
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("failed to list pending candidates: %v", err))
		return res
	}

	claimed, claimID, err := s.claim(db, ids, models.StatusPending)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("failed to claim pending batch: %v", err))
		return res
	}
	defer s.releaseClaim(claimID, models.StatusPending)
	res.Claimed = len(claimed)

	for i := range claimed {
		m := &claimed[i]
		if err := s.promoteOne(db, m, now); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("message %d: %v", m.ID, err))
			continue
		}
		switch m.Status {
		case models.StatusScheduled:
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
			"promoted":  res.Succeeded,
			"failed":    res.Failed,
			"cancelled": res.Cancelled,
			"requeued":  res.Requeued,
		}).Info("Promote pass complete")
	}
	return res
}

func (s *Scheduler) promoteOne(db *gorm.DB, m *models.Message, now time.Time) error {
	if m.SequenceID != nil {
		var seq models.Sequence
		err := db.First(&seq, *m.SequenceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.moveTo(db, m, models.StatusFailed, "sequence no longer exists", nil)
		}
		if err != nil {
			return err
		}
		if !seq.Active {
			return s.moveTo(db, m, models.StatusCancelled, "sequence is no longer active", nil)
		}
	}

	// Re-check what the candidate query already filtered on; another writer
	// may have touched the row between the pluck and the claim.
	if m.ScheduledAt == nil || m.ScheduledAt.After(now) {
		return s.moveTo(db, m, models.StatusPending, "", nil)
	}

	var extra map[string]interface{}
	if m.NeedsApproval && !m.Approved {
		if m.ApprovalDeadline == nil || m.ApprovalDeadline.After(now) {
			return s.moveTo(db, m, models.StatusPending, "", nil)
		}
		// Deadline lapsed without a decision; the message proceeds.
		extra = map[string]interface{}{"approved": true}
	}

	return s.moveTo(db, m, models.StatusScheduled, "", extra)
}
