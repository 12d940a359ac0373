package provider

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Sentinel errors for the failure categories the scheduler cares about.
// Permanent ones short-circuit to a failed message with no retry; everything
// else is retried on the next tick.
var (
	ErrAuthExpired            = errors.New("mail provider credentials disconnected or expired")
	ErrInvalidRecipient       = errors.New("invalid recipient address")
	ErrInsufficientPermission = errors.New("insufficient mail provider permission")
	ErrRateLimited            = errors.New("mail provider rate limited")
	ErrQuotaExceeded          = errors.New("mail provider quota exceeded")
	ErrNoMailbox              = errors.New("no mailbox configured for owner")
)

// Permanent reports whether err is a permanent failure that retrying cannot
// fix. Unknown errors and timeouts count as transient: the cadence's own
// endDate bounds how long they can keep retrying.
func Permanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthExpired) ||
		errors.Is(err, ErrInvalidRecipient) ||
		errors.Is(err, ErrInsufficientPermission) ||
		errors.Is(err, ErrNoMailbox) {
		return true
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrQuotaExceeded) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return false
	}
	return smtpCodePermanent(err.Error())
}

// smtpCodePermanent sniffs SMTP reply codes out of a raw error string.
// 5xx mailbox/recipient codes and authentication failures are permanent;
// 4xx codes are transient by definition.
func smtpCodePermanent(msg string) bool {
	lower := strings.ToLower(msg)

	for _, code := range []string{"550", "551", "553", "554"} {
		if strings.Contains(lower, code+" ") || strings.Contains(lower, code+"-") {
			return true
		}
	}
	if strings.Contains(lower, "535") && strings.Contains(lower, "auth") {
		return true
	}
	if strings.Contains(lower, "authentication failed") ||
		strings.Contains(lower, "invalid credentials") ||
		strings.Contains(lower, "username and password not accepted") {
		return true
	}
	return false
}
