package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"mailcadence/scheduler"
)

// OutreachWorker drives the scheduler on a fixed tick. Each tick is one full
// cycle: sweep, promote, send.
type OutreachWorker struct {
	Scheduler *scheduler.Scheduler
	Interval  time.Duration
	Logger    *logrus.Entry
}

func NewOutreachWorker(sched *scheduler.Scheduler, interval time.Duration, logger *logrus.Entry) *OutreachWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OutreachWorker{
		Scheduler: sched,
		Interval:  interval,
		Logger:    logger,
	}
}

func (ow *OutreachWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	ow.Logger.Info("Outreach worker started")

	ticker := time.NewTicker(ow.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ow.Logger.Info("Outreach worker shutting down...")
			return
		case <-ticker.C:
			report := ow.Scheduler.RunCycle(ctx)
			if report.Promote.Claimed > 0 || report.Send.Claimed > 0 || report.Sweep.Requeued > 0 {
				ow.Logger.WithFields(logrus.Fields{
					"promoted": report.Promote.Succeeded,
					"sent":     report.Send.Succeeded,
					"failed":   report.Send.Failed,
					"swept":    report.Sweep.Requeued,
					"elapsed":  report.Elapsed,
				}).Info("Outreach cycle complete")
			}
		}
	}
}
