package scheduler

import (
	"context"
	"fmt"

	"mailcadence/models"
)

// ReleaseStale returns processing rows abandoned by a crashed or hung pass
// to circulation. A healthy pass resolves its whole claim within seconds;
// anything still processing after the stale window has no owner anymore.
// Approval-gated rows that were never approved go back to pending, the rest
// to scheduled.
func (s *Scheduler) ReleaseStale(ctx context.Context) PassResult {
	res := PassResult{Pass: "sweep"}
	db := s.DB.WithContext(ctx)
	cutoff := s.now().Add(-s.staleAfter())

	toPending := db.Model(&models.Message{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, cutoff).
		Where("needs_approval = ? AND approved = ?", true, false).
		Updates(map[string]interface{}{
			"status":     models.StatusPending,
			"claim_id":   nil,
			"last_error": "claim released after staleness window",
		})
	if toPending.Error != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("failed to release unapproved rows: %v", toPending.Error))
	} else {
		res.Requeued += int(toPending.RowsAffected)
	}

	toScheduled := db.Model(&models.Message{}).
		Where("status = ? AND updated_at < ?", models.StatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":     models.StatusScheduled,
			"claim_id":   nil,
			"last_error": "claim released after staleness window",
		})
	if toScheduled.Error != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("failed to release stale rows: %v", toScheduled.Error))
	} else {
		res.Requeued += int(toScheduled.RowsAffected)
	}

	if res.Requeued > 0 {
		s.log().WithField("released", res.Requeued).Warn("Released stale processing claims")
	}
	return res
}
