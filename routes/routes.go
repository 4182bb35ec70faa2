package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	"occupancyos/config"
	controller "occupancyos/controllers"
	"occupancyos/middleware"
	"occupancyos/utils"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Get("/logout", controller.Logout)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	auditLogger := log.New(os.Stdout, "AUDIT: ", log.Ldate|log.Ltime|log.Lshortfile)
	licenseLogger := log.New(os.Stdout, "LICENSE: ", log.Ldate|log.Ltime|log.Lshortfile)

	// External collaborators are constructed once here and injected; no
	// package-level client handles.
	groq := utils.NewGroqClient(config.AppConfig.GroqAPIKey, config.AppConfig.GroqBaseURL)
	gumroad := utils.NewGumroadClient(
		config.AppConfig.GumroadAccessToken,
		config.AppConfig.GumroadProductID,
		config.AppConfig.GumroadBaseURL,
	)

	analyzer := utils.NewAnalyzer(db, groq, config.AppConfig.GroqModels, auditLogger)
	licenseService := utils.NewLicenseService(db, gumroad, licenseLogger)

	auditController := controller.NewAuditController(db, analyzer, auditLogger)
	licenseController := controller.NewLicenseController(db, licenseService, licenseLogger)
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	api := app.Group("/api", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// The analysis endpoint serves guests and users alike; identity is
	// optional, bursts are limited either way.
	api.Post("/audit", middleware.OptionalAuth(), middleware.AuditRateLimiter(), auditController.HandleAudit)

	// Redemption needs an identity, but the controller produces the specific
	// login_required payload itself.
	api.Post("/redeem-license", middleware.OptionalAuth(), licenseController.RedeemLicense)

	v1 := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	v1.Get("/dashboard", dashboardController.GetDashboard)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"groq":    configured(config.AppConfig.GroqAPIKey),
			"gumroad": configured(config.AppConfig.GumroadAccessToken),
		})
	})

	// Crawler endpoints
	app.Get("/sitemap.xml", controller.Sitemap)
	app.Get("/robots.txt", controller.Robots)

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}

func configured(secret string) string {
	if secret != "" {
		return "configured"
	}
	return "not configured"
}
