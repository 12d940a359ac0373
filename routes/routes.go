package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	controller "mailcadence/controllers"
	"mailcadence/middleware"
	"mailcadence/scheduler"
	"mailcadence/utils"
	"mailcadence/worker"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, sched *scheduler.Scheduler, inbound *worker.InboundWorker, appLogger *logrus.Logger) {
	jobController := controller.NewJobController(db, sched, inbound, utils.ComponentLogger(appLogger, "jobs"))
	replyController := controller.NewReplyController(db, utils.ComponentLogger(appLogger, "replies"))

	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Job routes
	jobs := api.Group("/jobs")
	jobs.Post("/run", jobController.RunCycle)
	jobs.Post("/inbound", jobController.NotifyInbound)

	// Reply routes
	replies := api.Group("/replies")
	replies.Get("/", replyController.GetReplies)
	replies.Get("/:id", replyController.GetReply)
	replies.Put("/:id/processed", replyController.MarkProcessed)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	appLogger.Info("API routes initialized successfully")
}
