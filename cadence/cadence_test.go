package cadence

import (
	"errors"
	"testing"
	"time"
)

func TestGapDays(t *testing.T) {
	tests := []struct {
		name   string
		policy string
		step   int
		want   int
	}{
		{"daily", Daily, 0, 1},
		{"daily later step", Daily, 5, 1},
		{"every 3 days", Every3Days, 2, 3},
		{"weekly", Weekly, 0, 7},
		{"biweekly", BiWeekly, 3, 14},
		{"every 28 days", Every28Days, 1, 28},
		{"alternating step 0", Alternating31, 0, 3},
		{"alternating step 1", Alternating31, 1, 1},
		{"alternating step 2", Alternating31, 2, 3},
		{"alternating step 3", Alternating31, 3, 1},
		{"alternating step 10", Alternating31, 10, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GapDays(tt.policy, tt.step)
			if err != nil {
				t.Fatalf("GapDays(%q, %d) returned error: %v", tt.policy, tt.step, err)
			}
			if got != tt.want {
				t.Errorf("GapDays(%q, %d) = %d, want %d", tt.policy, tt.step, got, tt.want)
			}
		})
	}
}

func TestGapDaysUnknownPolicy(t *testing.T) {
	for _, policy := range []string{"", "2day", "monthly", "1 day"} {
		if _, err := GapDays(policy, 0); !errors.Is(err, ErrUnknownCadence) {
			t.Errorf("GapDays(%q, 0) error = %v, want ErrUnknownCadence", policy, err)
		}
	}
}

func TestNextDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("within end date", func(t *testing.T) {
		end := now.Add(30 * 24 * time.Hour)
		due, err := NextDue(Weekly, 0, &end, now)
		if err != nil {
			t.Fatalf("NextDue returned error: %v", err)
		}
		if due == nil {
			t.Fatal("NextDue returned nil, want a date")
		}
		want := now.Add(7 * 24 * time.Hour)
		if !due.Equal(want) {
			t.Errorf("NextDue = %v, want %v", due, want)
		}
	})

	t.Run("no end date never terminates", func(t *testing.T) {
		due, err := NextDue(Every28Days, 4, nil, now)
		if err != nil || due == nil {
			t.Fatalf("NextDue = (%v, %v), want a date and nil error", due, err)
		}
	})

	t.Run("past end date terminates", func(t *testing.T) {
		end := now.Add(2 * 24 * time.Hour)
		due, err := NextDue(Weekly, 0, &end, now)
		if err != nil {
			t.Fatalf("NextDue returned error: %v", err)
		}
		if due != nil {
			t.Errorf("NextDue = %v, want nil past end date", due)
		}
	})

	t.Run("end date exactly on due date still schedules", func(t *testing.T) {
		end := now.Add(24 * time.Hour)
		due, err := NextDue(Daily, 0, &end, now)
		if err != nil || due == nil {
			t.Fatalf("NextDue = (%v, %v), want a date and nil error", due, err)
		}
	})

	t.Run("unknown policy", func(t *testing.T) {
		if _, err := NextDue("fortnightly", 0, nil, now); !errors.Is(err, ErrUnknownCadence) {
			t.Errorf("NextDue error = %v, want ErrUnknownCadence", err)
		}
	})

	t.Run("alternating parity drives the gap", func(t *testing.T) {
		due, err := NextDue(Alternating31, 1, nil, now)
		if err != nil || due == nil {
			t.Fatalf("NextDue = (%v, %v), want a date and nil error", due, err)
		}
		want := now.Add(24 * time.Hour)
		if !due.Equal(want) {
			t.Errorf("NextDue after odd step = %v, want %v", due, want)
		}
	})
}

func TestIsFinalStep(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	t.Run("no end date is never final", func(t *testing.T) {
		if IsFinalStep(Daily, 100, nil, now) {
			t.Error("IsFinalStep = true without an end date")
		}
	})

	t.Run("next step fits", func(t *testing.T) {
		end := now.Add(10 * 24 * time.Hour)
		if IsFinalStep(Weekly, 0, &end, now) {
			t.Error("IsFinalStep = true, but the next step is still within the end date")
		}
	})

	t.Run("next step would overshoot", func(t *testing.T) {
		end := now.Add(3 * 24 * time.Hour)
		if !IsFinalStep(Weekly, 0, &end, now) {
			t.Error("IsFinalStep = false, but the next step lands past the end date")
		}
	})

	t.Run("unknown policy reports false", func(t *testing.T) {
		end := now.Add(24 * time.Hour)
		if IsFinalStep("bogus", 0, &end, now) {
			t.Error("IsFinalStep = true for an unknown policy")
		}
	})
}
