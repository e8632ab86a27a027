package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mensa-app/mensa/internal/config"
	"github.com/mensa-app/mensa/internal/store"
	"github.com/mensa-app/mensa/internal/types"
	"gorm.io/gorm"
)

// Identity resolves the caller from the trusted identity header and stores
// the user record in the request context.
//
// This middleware performs NO authentication. It trusts the configured
// header to have been set by an upstream authenticating proxy and stripped
// from client input; deploying without such a proxy leaves the service open.
func Identity(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := c.Get(cfg.IdentityHeader)
		if username == "" {
			return types.NewError(fiber.StatusUnauthorized, "identity.missing",
				"no identity asserted by the front-end")
		}

		user, err := store.GetOrCreateUser(db, username)
		if err != nil {
			return err
		}
		if !user.Enabled {
			return types.NewError(fiber.StatusForbidden, "identity.disabled",
				"user %q is disabled", username)
		}

		c.Locals("user", user)
		return c.Next()
	}
}
