package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"occupancyos/config"
	"occupancyos/models"
	"occupancyos/utils"
)

// resolveUser finds the account behind the request's bearer token or session
// cookie. A missing or invalid token yields nil, never an error: callers
// decide whether identity is required.
func resolveUser(c *fiber.Ctx) *models.User {
	// A malformed Authorization header (proxies and extensions inject these)
	// falls through to the session cookie instead of logging the user out.
	var token string
	if tokenParts := strings.Split(c.Get("Authorization"), " "); len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
		token = tokenParts[1]
	} else {
		token = c.Cookies("access_token")
	}
	if token == "" {
		return nil
	}

	claims, err := utils.ParseJWTToken(token)
	if err != nil {
		return nil
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return nil
	}

	if !user.IsActive {
		return nil
	}

	if claims.TokenVersion != user.TokenVersion {
		return nil
	}

	return &user
}

// Protected rejects requests without a valid identity.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := resolveUser(c)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// OptionalAuth resolves an identity when one is present and lets guests
// through. Handlers read c.Locals("user") and treat nil as a guest.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := resolveUser(c); user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	}
}
