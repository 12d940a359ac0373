// Package scheduler drives outbound messages through their lifecycle:
// pending rows get promoted when due, scheduled rows get sent, and rows
// orphaned by a crashed pass get released. Concurrency control is a single
// conditional UPDATE per batch; whatever that claim touches is the whole
// world a pass operates on.
package scheduler

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mailcadence/models"
	"mailcadence/provider"
)

const (
	defaultBatchLimit = 50
	maxBatchLimit     = 100

	defaultSendTimeout = 30 * time.Second
	defaultStaleAfter  = 15 * time.Minute
)

// MailerSource resolves an owner to a Mailer. Satisfied by provider.Registry
// in production and by fakes in tests.
type MailerSource interface {
	ForOwner(ownerID uint) (provider.Mailer, *models.Mailbox, error)
}

type Scheduler struct {
	DB      *gorm.DB
	Mailers MailerSource
	Log     *logrus.Entry

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time

	BatchLimit  int
	SendTimeout time.Duration
	StaleAfter  time.Duration
}

func New(db *gorm.DB, mailers MailerSource, log *logrus.Entry) *Scheduler {
	return &Scheduler{DB: db, Mailers: mailers, Log: log}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Scheduler) log() *logrus.Entry {
	if s.Log != nil {
		return s.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func (s *Scheduler) batchLimit() int {
	if s.BatchLimit > 0 {
		return clampLimit(s.BatchLimit)
	}
	return defaultBatchLimit
}

func (s *Scheduler) sendTimeout() time.Duration {
	if s.SendTimeout > 0 {
		return s.SendTimeout
	}
	return defaultSendTimeout
}

func (s *Scheduler) staleAfter() time.Duration {
	if s.StaleAfter > 0 {
		return s.StaleAfter
	}
	return defaultStaleAfter
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxBatchLimit {
		return maxBatchLimit
	}
	return limit
}

// PassResult summarizes one scheduler pass for the cycle report.
type PassResult struct {
	Pass      string   `json:"pass"`
	Claimed   int      `json:"claimed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Cancelled int      `json:"cancelled"`
	Requeued  int      `json:"requeued"`
	Errors    []string `json:"errors,omitempty"`
}
