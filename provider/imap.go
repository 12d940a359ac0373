package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"mailcadence/classify"
)

func (a *Account) dial(ctx context.Context) (*client.Client, error) {
	if a.IMAPHost == "" {
		return nil, ErrNoMailbox
	}

	addr := fmt.Sprintf("%s:%d", a.IMAPHost, a.IMAPPort)

	var c *client.Client
	var err error
	switch strings.ToUpper(a.IMAPEncryption) {
	case "SSL", "TLS":
		c, err = client.DialTLS(addr, &tls.Config{ServerName: a.IMAPHost})
	case "STARTTLS":
		c, err = client.Dial(addr)
		if err == nil {
			err = c.StartTLS(&tls.Config{ServerName: a.IMAPHost})
		}
	default:
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	pass, err := a.imapPassword(ctx)
	if err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	if err := c.Login(a.IMAPUsername, pass); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}
	return c, nil
}

func (a *Account) mailboxName() string {
	if a.IMAPMailbox != "" {
		return a.IMAPMailbox
	}
	return "INBOX"
}

// ListRecentInboxIDs returns the Message-Ids of the newest max messages in
// the inbox. Full-scan mode: used when no sync checkpoint is available.
func (a *Account) ListRecentInboxIDs(ctx context.Context, max int) ([]string, error) {
	c, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select(a.mailboxName(), true)
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	from := uint32(1)
	if max > 0 && uint32(max) < mbox.Messages {
		from = mbox.Messages - uint32(max) + 1
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope}, messages)
	}()

	var ids []string
	for msg := range messages {
		if msg.Envelope != nil && msg.Envelope.MessageId != "" {
			ids = append(ids, msg.Envelope.MessageId)
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("error during fetch: %w", err)
	}
	return ids, nil
}

// ListSince returns the Message-Ids of everything that arrived after the
// cursor (an IMAP UID) plus the new cursor. An empty cursor initializes the
// checkpoint by scanning the whole mailbox.
func (a *Account) ListSince(ctx context.Context, cursor string) ([]string, string, error) {
	c, err := a.dial(ctx)
	if err != nil {
		return nil, cursor, err
	}
	defer c.Logout()

	if _, err := c.Select(a.mailboxName(), true); err != nil {
		return nil, cursor, fmt.Errorf("failed to select mailbox: %w", err)
	}

	var lastUID uint64
	if cursor != "" {
		lastUID, err = strconv.ParseUint(cursor, 10, 32)
		if err != nil {
			return nil, cursor, fmt.Errorf("bad sync cursor %q: %w", cursor, err)
		}
	}

	criteria := imap.NewSearchCriteria()
	criteria.Uid = new(imap.SeqSet)
	criteria.Uid.AddRange(uint32(lastUID)+1, 0) // 0 means "*"

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, cursor, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(uids) == 0 {
		return nil, cursor, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid}, messages)
	}()

	var ids []string
	maxUID := uint32(lastUID)
	for msg := range messages {
		if msg.Uid > maxUID {
			maxUID = msg.Uid
		}
		if msg.Envelope != nil && msg.Envelope.MessageId != "" {
			ids = append(ids, msg.Envelope.MessageId)
		}
	}
	if err := <-done; err != nil {
		return nil, cursor, fmt.Errorf("error during fetch: %w", err)
	}
	return ids, strconv.FormatUint(uint64(maxUID), 10), nil
}

// GetMessage fetches one message by Message-Id and flattens it for the
// classifier: canonical headers, decoded MIME parts, envelope metadata.
func (a *Account) GetMessage(ctx context.Context, id string) (*InboundMessage, error) {
	c, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select(a.mailboxName(), true); err != nil {
		return nil, fmt.Errorf("failed to select mailbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-Id", id)
	seqnums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	if len(seqnums) == 0 {
		return nil, fmt.Errorf("message %q not found", id)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqnums[len(seqnums)-1])

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchInternalDate, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var fetched *imap.Message
	for msg := range messages {
		fetched = msg
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("error during fetch: %w", err)
	}
	if fetched == nil {
		return nil, fmt.Errorf("message %q not found", id)
	}

	return a.parseIMAPMessage(fetched, section, id)
}

func (a *Account) parseIMAPMessage(msg *imap.Message, section *imap.BodySectionName, id string) (*InboundMessage, error) {
	out := &InboundMessage{
		ID:           id,
		Header:       classify.Header{},
		InternalDate: msg.InternalDate,
	}

	if env := msg.Envelope; env != nil {
		if env.MessageId != "" {
			out.ID = env.MessageId
		}
		out.Subject = env.Subject
		out.ThreadID = env.InReplyTo
		out.From = formatAddressList(env.From)
		if out.InternalDate.IsZero() {
			out.InternalDate = env.Date
		}
	}

	literal := msg.GetBody(section)
	if literal == nil {
		return nil, fmt.Errorf("message body not found")
	}

	mr, err := mail.CreateReader(literal)
	if err != nil {
		return nil, fmt.Errorf("failed to create message reader: %w", err)
	}

	fields := mr.Header.Fields()
	for fields.Next() {
		out.Header.Set(fields.Key(), fields.Value())
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to read next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read body: %w", err)
			}
			// go-message already reversed the transfer encoding here.
			out.Parts = append(out.Parts, BodyPart{ContentType: contentType, Content: b})
			if out.Body == "" {
				out.Body = string(b)
			}
		case *mail.AttachmentHeader:
			// Attachments are irrelevant to reply classification.
			_ = h
		}
	}

	if out.ThreadID == "" {
		out.ThreadID = firstReference(out.Header.Get("References"))
	}
	if out.ThreadID == "" {
		out.ThreadID = out.ID
	}
	return out, nil
}

// firstReference pulls the oldest message id out of a References header;
// that is the root of the conversation.
func firstReference(refs string) string {
	for _, f := range strings.Fields(refs) {
		if strings.HasPrefix(f, "<") {
			return f
		}
	}
	return ""
}

func formatAddressList(addrs []*imap.Address) string {
	var result []string
	for _, addr := range addrs {
		if addr.PersonalName != "" {
			result = append(result, fmt.Sprintf("%s <%s@%s>", addr.PersonalName, addr.MailboxName, addr.HostName))
		} else {
			result = append(result, fmt.Sprintf("%s@%s", addr.MailboxName, addr.HostName))
		}
	}
	return strings.Join(result, ", ")
}
