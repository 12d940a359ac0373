package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mailcadence/correlator"
	"mailcadence/models"
	"mailcadence/provider"
)

// MailboxSource is the slice of provider.Registry the inbound worker needs.
type MailboxSource interface {
	InboxOwners() ([]uint, error)
	ForOwner(ownerID uint) (provider.Mailer, *models.Mailbox, error)
}

// InboundWorker polls every syncable mailbox, fetches what arrived since the
// last checkpoint and feeds it through the correlator.
type InboundWorker struct {
	Mailboxes   MailboxSource
	Correlator  *correlator.Correlator
	Checkpoints CheckpointStore // nil means full-scan mode
	Interval    time.Duration
	FetchLimit  int
	Logger      *logrus.Entry
}

func NewInboundWorker(mailboxes MailboxSource, corr *correlator.Correlator, checkpoints CheckpointStore, interval time.Duration, fetchLimit int, logger *logrus.Entry) *InboundWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if fetchLimit <= 0 {
		fetchLimit = 50
	}
	return &InboundWorker{
		Mailboxes:   mailboxes,
		Correlator:  corr,
		Checkpoints: checkpoints,
		Interval:    interval,
		FetchLimit:  fetchLimit,
		Logger:      logger,
	}
}

func (iw *InboundWorker) Start(ctx context.Context) {
	iw.Logger.Info("Inbound worker started")

	ticker := time.NewTicker(iw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			iw.Logger.Info("Inbound worker shutting down...")
			return
		case <-ticker.C:
			iw.syncAll(ctx)
		}
	}
}

func (iw *InboundWorker) syncAll(ctx context.Context) {
	owners, err := iw.Mailboxes.InboxOwners()
	if err != nil {
		iw.Logger.WithError(err).Error("Failed to list syncable mailboxes")
		return
	}

	for _, ownerID := range owners {
		if ctx.Err() != nil {
			return
		}
		if err := iw.SyncOwner(ctx, ownerID); err != nil {
			iw.Logger.WithError(err).WithField("owner_id", ownerID).Error("Inbound sync failed")
		}
	}
}

// SyncOwner runs one sync for a single owner's mailbox. Also called directly
// by the push-notification endpoint, so a provider webhook can trigger an
// immediate sync instead of waiting for the next tick.
func (iw *InboundWorker) SyncOwner(ctx context.Context, ownerID uint) error {
	mailer, _, err := iw.Mailboxes.ForOwner(ownerID)
	if err != nil {
		return fmt.Errorf("failed to resolve mailbox: %w", err)
	}

	ids, next, err := iw.listNew(ctx, ownerID, mailer)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	counts := map[correlator.Outcome]int{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg, err := mailer.GetMessage(ctx, id)
		if err != nil {
			iw.Logger.WithError(err).WithFields(logrus.Fields{
				"owner_id":   ownerID,
				"message_id": id,
			}).Warn("Failed to fetch inbound message")
			continue
		}
		outcome, err := iw.Correlator.ProcessInbound(ctx, ownerID, msg)
		if err != nil {
			iw.Logger.WithError(err).WithFields(logrus.Fields{
				"owner_id":   ownerID,
				"message_id": id,
			}).Warn("Failed to process inbound message")
			continue
		}
		counts[outcome]++
	}

	// Advance the checkpoint only after the batch has been worked through;
	// a crash mid-batch refetches, and idempotency absorbs the repeats.
	if iw.Checkpoints != nil && next != "" {
		if err := iw.Checkpoints.Set(ctx, ownerID, next); err != nil {
			iw.Logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to store sync checkpoint")
		}
	}

	iw.Logger.WithFields(logrus.Fields{
		"owner_id":  ownerID,
		"fetched":   len(ids),
		"replies":   counts[correlator.OutcomeReply],
		"automated": counts[correlator.OutcomeAutomated],
		"bounces":   counts[correlator.OutcomeBounce],
	}).Info("Inbound sync complete")
	return nil
}

func (iw *InboundWorker) listNew(ctx context.Context, ownerID uint, mailer provider.Mailer) ([]string, string, error) {
	if iw.Checkpoints == nil {
		ids, err := mailer.ListRecentInboxIDs(ctx, iw.FetchLimit)
		return ids, "", err
	}

	cursor, err := iw.Checkpoints.Get(ctx, ownerID)
	if err != nil {
		iw.Logger.WithError(err).WithField("owner_id", ownerID).Warn("Checkpoint read failed, falling back to full scan")
		ids, err := mailer.ListRecentInboxIDs(ctx, iw.FetchLimit)
		return ids, "", err
	}

	ids, next, err := mailer.ListSince(ctx, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list new messages: %w", err)
	}
	return ids, next, nil
}
