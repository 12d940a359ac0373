package classify

import "strings"

// IsAutomated reports whether a non-bounce inbound message is an
// auto-generated response (out-of-office, vacation responder, bulk
// acknowledgment). Standard headers take precedence over phrase scanning;
// within the scans, subject beats body and the first match wins.
//
// An automated reply must never terminate a cadence, so callers treat a
// false here as "a human answered".
func IsAutomated(h Header, subject, body string) bool {
	if autoReplyHeaders(h) {
		return true
	}

	lowerSubject := strings.ToLower(subject)
	for _, phrase := range autoReplySubjects {
		if strings.Contains(lowerSubject, phrase) {
			return true
		}
	}

	lowerBody := strings.ToLower(body)
	for _, phrase := range autoReplyBodies {
		if strings.Contains(lowerBody, phrase) {
			return true
		}
	}
	return false
}

func autoReplyHeaders(h Header) bool {
	// RFC 3834: anything other than "no" marks an automatic submission.
	if v := strings.ToLower(strings.TrimSpace(h.Get("Auto-Submitted"))); v != "" && v != "no" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(h.Get("X-Autorespond")), "yes") {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(h.Get("X-Autoreply")), "yes") {
		return true
	}

	precedence := strings.ToLower(strings.TrimSpace(h.Get("Precedence")))
	for _, v := range autoReplyPrecedence {
		if precedence == v {
			return true
		}
	}
	return false
}
