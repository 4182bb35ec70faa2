package controller

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"occupancyos/models"
	"occupancyos/utils"
)

type LicenseController struct {
	DB      *gorm.DB
	Service *utils.LicenseService
	Logger  *log.Logger
}

func NewLicenseController(db *gorm.DB, service *utils.LicenseService, logger *log.Logger) *LicenseController {
	return &LicenseController{
		DB:      db,
		Service: service,
		Logger:  logger,
	}
}

// RedeemLicense converts a storefront license key into account credits.
// Identity is required; everything else about the outcome is in the JSON.
func (lc *LicenseController) RedeemLicense(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok || user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":          "Please log in to redeem a license key",
			"login_required": true,
		})
	}

	licenseKey := c.FormValue("license_key")

	result, err := lc.Service.Redeem(c.Context(), licenseKey, user.AccountID(), user.Email)
	if err != nil {
		return lc.redeemError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Successfully added %d credits to your account!", result.CreditsAdded),
		"credits_added": result.CreditsAdded,
		"new_total":     result.NewTotal,
	})
}

// redeemError keeps its taxonomy flat: every redemption failure is a 400 with
// the specific message, except storage outages.
func (lc *LicenseController) redeemError(c *fiber.Ctx, err error) error {
	var storageErr *utils.StorageError
	if errors.As(err, &storageErr) {
		lc.Logger.Printf("Redemption storage failure: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Service temporarily unavailable. Please try again.",
		})
	}

	lc.Logger.Printf("Redemption rejected: %v", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
