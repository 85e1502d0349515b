package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"market/internal/models"
	"market/internal/services"
)

const userKey = "user"

// AuthRequired is a Fiber middleware resolving the bearer token to a user.
// It must run after UnitOfWork so that the user is loaded in the request's
// unit.
func AuthRequired(auth services.AuthProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fmt.Errorf("authorization header is required: %w", services.ErrUnauthorized)
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			return fmt.Errorf("authorization header format must be 'Bearer <token>': %w", services.ErrUnauthorized)
		}

		unit := CurrentUnit(c)
		user, err := auth.Service(unit.Users()).GetUser(c.UserContext(), parts[1])
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("you are not authorized or your account is not active: %w", services.ErrUnauthorized)
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
