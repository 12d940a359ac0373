// Package provider abstracts the mail service an owner sends and receives
// through. One Mailer interface, two implementations: password-backed
// SMTP/IMAP credentials and OAuth-backed ones, selected by what the owner's
// mailbox record carries rather than by branches at the call sites.
package provider

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"mailcadence/classify"
)

// SendRequest describes one outbound email. An empty ThreadID starts a new
// conversation; otherwise the message is threaded under it.
type SendRequest struct {
	To       string
	Subject  string
	HTML     string
	ThreadID string
}

// SendResult carries the provider-assigned identifiers back to the caller.
type SendResult struct {
	MessageID string
	ThreadID  string
}

// BodyPart is one MIME part of an inbound message. Content holds the part as
// delivered; Encoding records a still-applied transfer encoding ("base64")
// when the source did not decode it.
type BodyPart struct {
	ContentType string
	Encoding    string
	Content     []byte
}

// InboundMessage is a fetched inbound email, flattened to what the
// classifier and correlator need.
type InboundMessage struct {
	ID           string // provider-assigned message id, the reply idempotency key
	ThreadID     string
	From         string
	Subject      string
	Header       classify.Header
	InternalDate time.Time
	Body         string // top-level body fallback
	Parts        []BodyPart
}

// PlainText returns the best plain-text rendering of the message body: the
// first text/plain part (base64-decoded if needed), else the top-level body.
func (m *InboundMessage) PlainText() string {
	for _, p := range m.Parts {
		if !strings.Contains(strings.ToLower(p.ContentType), "text/plain") {
			continue
		}
		if strings.EqualFold(p.Encoding, "base64") {
			if decoded, err := base64.StdEncoding.DecodeString(string(p.Content)); err == nil {
				return string(decoded)
			}
		}
		return string(p.Content)
	}
	return m.Body
}

// Mailer is the contract the engine consumes. ListSince supports the
// incremental-since-checkpoint sync mode; ListRecentInboxIDs is the
// full-scan fallback for deployments without a checkpoint store.
type Mailer interface {
	Send(ctx context.Context, req SendRequest) (*SendResult, error)
	ListRecentInboxIDs(ctx context.Context, max int) ([]string, error)
	ListSince(ctx context.Context, cursor string) (ids []string, next string, err error)
	GetMessage(ctx context.Context, id string) (*InboundMessage, error)
}
