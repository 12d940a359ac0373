package classify

import "strings"

// IsBounce reports whether the message is a delivery-failure notification.
// Checks run cheapest first: envelope headers, then structured DSN content,
// then body phrases. Any hit short-circuits further classification; a bounce
// is never also an auto-reply or a human reply.
func IsBounce(h Header, body string) bool {
	if bounceSender(h) {
		return true
	}
	if dsnIndicatesFailure(h, body) {
		return true
	}
	return bounceBody(body)
}

func bounceSender(h Header) bool {
	from := strings.ToLower(h.Get("From"))
	if bounceSenderPattern.MatchString(from) {
		return true
	}

	// An empty or <> Return-Path is the DSN convention: bounces must not
	// themselves bounce.
	returnPath, ok := h["Return-Path"]
	if ok {
		trimmed := strings.TrimSpace(returnPath)
		if trimmed == "" || trimmed == "<>" {
			return true
		}
		if bounceSenderPattern.MatchString(strings.ToLower(trimmed)) {
			return true
		}
	}
	return false
}

// dsnIndicatesFailure inspects multipart/report and message/delivery-status
// content for a permanent failure. The delivery-status part's fields end up
// in the body text when the message was flattened to plain text, so both
// the Content-Type header and the body are consulted.
func dsnIndicatesFailure(h Header, body string) bool {
	contentType := strings.ToLower(h.Get("Content-Type"))
	isReport := strings.Contains(contentType, "multipart/report") ||
		strings.Contains(contentType, "delivery-status")

	lower := strings.ToLower(body)
	if isReport || strings.Contains(lower, "content-type: message/delivery-status") {
		if strings.Contains(lower, "action: failed") {
			return true
		}
		if strings.Contains(lower, "status: 5.") {
			return true
		}
	}
	return false
}

func bounceBody(body string) bool {
	lower := strings.ToLower(body)
	for _, phrase := range bouncePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
