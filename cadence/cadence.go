// Package cadence computes when the next step of a follow-up sequence is due.
package cadence

import (
	"errors"
	"time"
)

// Supported cadence policies. The numeric ones are fixed daily intervals;
// Alternating31 flips between a 3 day and a 1 day gap depending on step parity.
const (
	Daily         = "1day"
	Every3Days    = "3day"
	Weekly        = "7day"
	BiWeekly      = "14day"
	Every28Days   = "28day"
	Alternating31 = "31day"
)

// ErrUnknownCadence marks a policy string the calculator does not recognize.
// Callers must not schedule anything for it; scheduling under a guessed
// interval is worse than not scheduling at all.
var ErrUnknownCadence = errors.New("unknown cadence policy")

// GapDays returns the number of days between the given step and the next one.
//
// For the alternating policy the parity rule is: even step numbers get a
// 3 day gap, odd ones get 1 day. Step 0 is even, so it gets 3 days.
func GapDays(policy string, step int) (int, error) {
	switch policy {
	case Daily:
		return 1, nil
	case Every3Days:
		return 3, nil
	case Weekly:
		return 7, nil
	case BiWeekly:
		return 14, nil
	case Every28Days:
		return 28, nil
	case Alternating31:
		if step%2 == 0 {
			return 3, nil
		}
		return 1, nil
	default:
		return 0, ErrUnknownCadence
	}
}

// NextDue computes the due date of the step after stepNumber, measured from
// now. A nil result with a nil error means the cadence is complete: the
// proposed date would land past endDate and the sequence should be
// deactivated instead of scheduled.
func NextDue(policy string, stepNumber int, endDate *time.Time, now time.Time) (*time.Time, error) {
	gap, err := GapDays(policy, stepNumber)
	if err != nil {
		return nil, err
	}

	proposed := now.Add(time.Duration(gap) * 24 * time.Hour)
	if endDate != nil && proposed.After(*endDate) {
		return nil, nil
	}
	return &proposed, nil
}

// IsFinalStep reports whether the step about to be sent is the last one the
// sequence will ever send: the step after it would be due past endDate.
// currentStep is the index of the step being sent, the same value the
// advance path feeds to NextDue. Unknown policies report false; the caller
// surfaces the error on its own NextDue call.
func IsFinalStep(policy string, currentStep int, endDate *time.Time, now time.Time) bool {
	if endDate == nil {
		return false
	}
	due, err := NextDue(policy, currentStep, endDate, now)
	if err != nil {
		return false
	}
	return due == nil
}
