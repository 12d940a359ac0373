package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"mailcadence/middleware"
	"mailcadence/models"
	"mailcadence/utils"
)

type ReplyController struct {
	DB     *gorm.DB
	Logger *logrus.Entry
}

func NewReplyController(db *gorm.DB, logger *logrus.Entry) *ReplyController {
	return &ReplyController{DB: db, Logger: logger}
}

// GetReplies lists the authenticated owner's replies, newest first.
// Optional filters: ?processed=true|false, ?automated=true|false.
func (rc *ReplyController) GetReplies(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := rc.DB.Model(&models.EmailReply{}).Where("owner_id = ?", ownerID)
	if v := c.Query("processed"); v != "" {
		query = query.Where("processed = ?", v == "true")
	}
	if v := c.Query("automated"); v != "" {
		query = query.Where("is_automated = ?", v == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count replies", err)
	}

	var replies []models.EmailReply
	err := query.Order("reply_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&replies).Error
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch replies", err)
	}

	return c.JSON(utils.SuccessResponse(utils.PaginatedResponse{
		Data:  replies,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// GetReply returns one reply with its correlated messages.
func (rc *ReplyController) GetReply(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	id := utils.ParseUint(c.Params("id"))

	var reply models.EmailReply
	err := rc.DB.Where("id = ? AND owner_id = ?", id, ownerID).First(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Reply not found", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch reply", err)
	}

	return c.JSON(utils.SuccessResponse(reply))
}

// MarkProcessed flips the UI-owned read flag on a reply.
func (rc *ReplyController) MarkProcessed(c *fiber.Ctx) error {
	ownerID := middleware.OwnerID(c)
	id := utils.ParseUint(c.Params("id"))

	res := rc.DB.Model(&models.EmailReply{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("processed", true)
	if res.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update reply", res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Reply not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"id": id, "processed": true}))
}
