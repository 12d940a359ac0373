package models

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to MessageStatus }{
		{StatusPending, StatusScheduled},
		{StatusPending, StatusProcessing},
		{StatusPending, StatusFailed},
		{StatusPending, StatusCancelled},
		{StatusScheduled, StatusProcessing},
		{StatusScheduled, StatusPending},
		{StatusScheduled, StatusCancelled},
		{StatusProcessing, StatusSent},
		{StatusProcessing, StatusFailed},
		{StatusProcessing, StatusCancelled},
		{StatusProcessing, StatusScheduled},
		{StatusProcessing, StatusPending},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransition(tt.to) {
			t.Errorf("CanTransition(%q -> %q) = false, want true", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to MessageStatus }{
		{StatusScheduled, StatusSent}, // must pass through processing
		{StatusPending, StatusSent},
		{StatusSent, StatusFailed},
		{StatusSent, StatusScheduled},
		{StatusFailed, StatusScheduled},
		{StatusCancelled, StatusPending},
		{StatusProcessing, StatusProcessing},
	}
	for _, tt := range denied {
		if tt.from.CanTransition(tt.to) {
			t.Errorf("CanTransition(%q -> %q) = true, want false", tt.from, tt.to)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []MessageStatus{StatusSent, StatusFailed, StatusCancelled} {
		if !s.Terminal() {
			t.Errorf("Terminal(%q) = false, want true", s)
		}
	}
	for _, s := range []MessageStatus{StatusPending, StatusScheduled, StatusProcessing} {
		if s.Terminal() {
			t.Errorf("Terminal(%q) = true, want false", s)
		}
	}
}
