package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

// passwordFunc yields the secret used to authenticate a protocol session.
// For password mailboxes it returns the stored secret; for OAuth mailboxes
// it returns a fresh access token.
type passwordFunc func(ctx context.Context) (string, error)

// Account is the concrete Mailer over one mailbox's SMTP and IMAP endpoints.
type Account struct {
	FromEmail string
	FromName  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string

	IMAPHost       string
	IMAPPort       int
	IMAPUsername   string
	IMAPEncryption string
	IMAPMailbox    string

	smtpPassword passwordFunc
	imapPassword passwordFunc
}

// Send delivers one message over SMTP. gomail has no context support, so the
// dial-and-send runs in a goroutine and the caller's deadline wins the race.
func (a *Account) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := checkmail.ValidateFormat(req.To); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecipient, req.To)
	}
	if a.SMTPHost == "" {
		return nil, ErrNoMailbox
	}

	pass, err := a.smtpPassword(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}

	msgID := a.newMessageID()
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(a.FromEmail, a.FromName))
	m.SetHeader("To", req.To)
	m.SetHeader("Subject", req.Subject)
	m.SetHeader("Message-Id", msgID)
	if req.ThreadID != "" {
		m.SetHeader("In-Reply-To", req.ThreadID)
		m.SetHeader("References", req.ThreadID)
	}
	m.SetBody("text/html", req.HTML)

	d := gomail.NewDialer(a.SMTPHost, a.SMTPPort, a.SMTPUsername, pass)

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		if err != nil {
			return nil, classifySendError(err)
		}
	}

	threadID := req.ThreadID
	if threadID == "" {
		// First message of a conversation: its own id becomes the thread key.
		threadID = msgID
	}
	return &SendResult{MessageID: msgID, ThreadID: threadID}, nil
}

func (a *Account) newMessageID() string {
	domain := "mailcadence.local"
	if at := strings.LastIndex(a.FromEmail, "@"); at >= 0 && at < len(a.FromEmail)-1 {
		domain = a.FromEmail[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// classifySendError wraps raw SMTP failures in the sentinel for their
// category so the scheduler can route permanent vs transient without string
// matching of its own.
func classifySendError(err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "authentication failed"),
		strings.Contains(msg, "invalid credentials"),
		strings.Contains(msg, "username and password not accepted"),
		strings.Contains(msg, "535"):
		return fmt.Errorf("%w: %v", ErrAuthExpired, err)
	case strings.Contains(msg, "550"),
		strings.Contains(msg, "551"),
		strings.Contains(msg, "553"):
		return fmt.Errorf("%w: %v", ErrInvalidRecipient, err)
	case strings.Contains(msg, "insufficient permission"),
		strings.Contains(msg, "not authorized"):
		return fmt.Errorf("%w: %v", ErrInsufficientPermission, err)
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many"),
		strings.Contains(msg, "421"):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "452"):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	default:
		return err
	}
}
