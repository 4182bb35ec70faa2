package controller

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"occupancyos/config"
	"occupancyos/models"
	"occupancyos/utils"
)

var authLogger = log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

type RegisterRequest struct {
	Email       string `json:"email" form:"email" validate:"required,email"`
	Password    string `json:"password" form:"password" validate:"required,min=8"`
	Name        string `json:"name" form:"name" validate:"omitempty,max=100"`
	TOSAccepted bool   `json:"tos_accepted" form:"tos_accepted"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if !req.TOSAccepted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "You must accept the Terms of Service and Privacy Policy to create an account.",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Please enter a valid email address.",
		})
	}

	var existing models.User
	if err := config.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "This email is already registered. Try logging in instead.",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Signup failed. Please try again.",
		})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Signup failed. Please try again.",
		})
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if req.Name != "" {
		user.Name = utils.Pointer(req.Name)
	}

	if err := config.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Signup failed. Please try again.",
		})
	}

	// The free-trial subscription exists from the moment the account does.
	ledger := utils.NewLedger(config.DB, authLogger)
	if _, err := ledger.EnsureSubscription(user.AccountID(), email); err != nil {
		authLogger.Printf("Subscription creation failed for new user %d: %v", user.ID, err)
	}

	// TOS acceptance is recorded with the caller's IP; a failure here is
	// logged, the account still stands.
	tos := models.TOSAcceptance{
		UserID:     user.AccountID(),
		Email:      email,
		AcceptedAt: time.Now().UTC(),
		IPAddress:  c.IP(),
	}
	if err := config.DB.Create(&tos).Error; err != nil {
		authLogger.Printf("Failed to record TOS acceptance for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account created successfully! You can now log in.",
	})
}

func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid email or password",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Account is not active",
		})
	}

	token, err := utils.GenerateJWTToken(&user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed. Please try again.",
		})
	}

	// Subscription is guaranteed on every login, like on signup.
	ledger := utils.NewLedger(config.DB, authLogger)
	if _, err := ledger.EnsureSubscription(user.AccountID(), user.Email); err != nil {
		authLogger.Printf("Subscription check failed for user %d: %v", user.ID, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(utils.AccessTokenTTL),
	})

	return c.JSON(fiber.Map{
		"success":      true,
		"redirect":     "/dashboard",
		"access_token": token,
	})
}

func Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		HTTPOnly: true,
		Expires:  time.Now().Add(-time.Hour),
	})
	return c.JSON(fiber.Map{
		"success":  true,
		"redirect": "/",
	})
}

func GetCurrentUser(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	ledger := utils.NewLedger(config.DB, authLogger)
	sub, err := ledger.EnsureSubscription(user.AccountID(), user.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to load subscription",
		})
	}

	return c.JSON(fiber.Map{
		"user":         user,
		"subscription": sub,
	})
}
