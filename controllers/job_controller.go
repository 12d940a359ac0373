package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mailcadence/models"
	"mailcadence/scheduler"
	"mailcadence/utils"
	"mailcadence/worker"
)

// JobController exposes the background machinery over HTTP: an on-demand
// scheduler cycle and the inbound push-notification hook.
type JobController struct {
	DB        *gorm.DB
	Scheduler *scheduler.Scheduler
	Inbound   *worker.InboundWorker
	Logger    *logrus.Entry
}

func NewJobController(db *gorm.DB, sched *scheduler.Scheduler, inbound *worker.InboundWorker, logger *logrus.Entry) *JobController {
	return &JobController{
		DB:        db,
		Scheduler: sched,
		Inbound:   inbound,
		Logger:    logger,
	}
}

// RunCycle triggers one full scheduler cycle and returns its report. The
// periodic worker runs the same cycle; this endpoint exists for operators
// and tests that cannot wait for the next tick.
func (jc *JobController) RunCycle(c *fiber.Ctx) error {
	report := jc.Scheduler.RunCycle(c.Context())
	return c.JSON(utils.SuccessResponse(report))
}

type inboundNotification struct {
	MailboxID uint   `json:"mailbox_id" validate:"required"`
	HistoryID string `json:"history_id"`
}

// NotifyInbound handles a provider push notification: something new landed
// in a mailbox, sync it now instead of waiting for the poll interval. The
// sync runs in the background; the provider only wants an ack.
func (jc *JobController) NotifyInbound(c *fiber.Ctx) error {
	var req inboundNotification
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	var mbox models.Mailbox
	err := jc.DB.First(&mbox, req.MailboxID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Mailbox not found", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load mailbox", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := jc.Inbound.SyncOwner(ctx, mbox.OwnerID); err != nil {
			jc.Logger.WithError(err).WithFields(logrus.Fields{
				"mailbox_id": mbox.ID,
				"history_id": req.HistoryID,
			}).Error("Push-triggered inbound sync failed")
		}
	}()

	return c.Status(fiber.StatusAccepted).JSON(utils.SuccessResponse(fiber.Map{
		"mailbox_id": mbox.ID,
		"queued":     true,
	}))
}
