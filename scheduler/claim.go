package scheduler

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"mailcadence/models"
)

// claim atomically flips candidate rows from `from` into processing, tagged
// with a fresh claim id. The conditional UPDATE is the only concurrency
// primitive here: two concurrent passes can both read the same candidate ids,
// but only one pass's UPDATE matches on status, and only the rows a claim
// actually touched come back from the reload.
func (s *Scheduler) claim(tx *gorm.DB, ids []uint, from models.MessageStatus) ([]models.Message, string, error) {
	if len(ids) == 0 {
		return nil, "", nil
	}

	claimID := uuid.NewString()
	res := tx.Model(&models.Message{}).
		Where("id IN ? AND status = ?", ids, from).
		Updates(map[string]interface{}{
			"status":   models.StatusProcessing,
			"claim_id": claimID,
		})
	if res.Error != nil {
		return nil, "", res.Error
	}
	if res.RowsAffected == 0 {
		return nil, claimID, nil
	}

	var claimed []models.Message
	if err := tx.Where("claim_id = ?", claimID).Order("scheduled_at").Find(&claimed).Error; err != nil {
		return nil, claimID, err
	}
	return claimed, claimID, nil
}

// releaseClaim rolls anything still processing under claimID back to the
// given status. Passes defer this as a safety net: on a clean exit every
// claimed row has already moved on and the update matches nothing, on a
// panic the half-finished batch goes back into circulation.
func (s *Scheduler) releaseClaim(claimID string, to models.MessageStatus) {
	if claimID == "" {
		return
	}
	err := s.DB.Model(&models.Message{}).
		Where("claim_id = ? AND status = ?", claimID, models.StatusProcessing).
		Updates(map[string]interface{}{
			"status":   to,
			"claim_id": nil,
		}).Error
	if err != nil {
		s.log().WithError(err).WithField("claim_id", claimID).Error("Failed to release claim")
	}
}

// moveTo resolves one claimed row to its outcome state. reason lands in
// last_error for failed/cancelled rows and clears it otherwise.
func (s *Scheduler) moveTo(tx *gorm.DB, m *models.Message, to models.MessageStatus, reason string, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":   to,
		"claim_id": nil,
	}
	if reason != "" {
		updates["last_error"] = reason
	} else {
		updates["last_error"] = nil
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Message{}).
		Where("id = ? AND status = ?", m.ID, models.StatusProcessing).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		m.Status = to
	}
	return nil
}
