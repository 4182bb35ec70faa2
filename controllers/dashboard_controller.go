package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"occupancyos/config"
	"occupancyos/models"
	"occupancyos/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

const recentAuditLimit = 10

// GetDashboard returns the caller's subscription and recent audit history in
// one payload for the dashboard page.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	ledger := utils.NewLedger(dc.DB, dc.Logger)
	sub, err := ledger.EnsureSubscription(user.AccountID(), user.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load subscription",
		})
	}

	history := utils.NewHistoryRecorder(dc.DB, dc.Logger)
	audits, err := history.Recent(user.AccountID(), recentAuditLimit)
	if err != nil {
		dc.Logger.Printf("Failed to fetch audits for user %d: %v", user.ID, err)
		audits = []models.AuditRecord{}
	}

	return c.JSON(fiber.Map{
		"subscription": sub,
		"audits":       audits,
		"gumroad_url":  config.AppConfig.GumroadProductURL,
	})
}
