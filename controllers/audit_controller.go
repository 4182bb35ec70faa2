package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"occupancyos/config"
	"occupancyos/models"
	"occupancyos/utils"
)

type AuditController struct {
	DB       *gorm.DB
	Analyzer *utils.Analyzer
	Logger   *log.Logger
}

func NewAuditController(db *gorm.DB, analyzer *utils.Analyzer, logger *log.Logger) *AuditController {
	return &AuditController{
		DB:       db,
		Analyzer: analyzer,
		Logger:   logger,
	}
}

// HandleAudit runs one listing analysis. Works for guests (preview) and
// authenticated callers (full result, one credit).
func (ac *AuditController) HandleAudit(c *fiber.Ctx) error {
	req := utils.AuditRequest{
		Title:          c.FormValue("title"),
		Description:    c.FormValue("description"),
		PropertyType:   c.FormValue("property_type"),
		TargetAudience: c.FormValue("target_audience"),
		Amenities:      c.FormValue("amenities"),
	}

	var userID, email string
	if user, ok := c.Locals("user").(*models.User); ok && user != nil {
		userID = user.AccountID()
		email = user.Email
	}

	result, err := ac.Analyzer.Analyze(c.Context(), req, userID, email)
	if err != nil {
		return ac.auditError(c, err)
	}

	return c.JSON(result)
}

// auditError maps the analysis taxonomy onto HTTP responses. Internal AI
// sub-failures never reach here; they were collapsed by the analyzer.
func (ac *AuditController) auditError(c *fiber.Ctx, err error) error {
	var validationErr *utils.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":            validationErr.Message,
			"validation_error": true,
		})
	}

	var creditsErr *utils.InsufficientCreditsError
	if errors.As(err, &creditsErr) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":            creditsErr.Error(),
			"upgrade_required": true,
			"gumroad_url":      config.AppConfig.GumroadProductURL,
		})
	}

	ac.Logger.Printf("Audit failed: %v", err)

	var aiErr *utils.AIServiceError
	if errors.As(err, &aiErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": aiErr.Message,
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Analysis failed. Please try again.",
	})
}
