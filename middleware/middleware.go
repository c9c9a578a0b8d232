package middleware

import (
	"stocksignals/utils"

	"github.com/gofiber/fiber/v2"
)

// CheckRole is a middleware that verifies the user has one of the specified roles.
func CheckRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("userRole").(string)
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Role not found in token"})
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Insufficient permissions"})
	}
}

// MerchantRequired checks that the user has the 'merchant' role. Shop
// insights are only served to merchants.
var MerchantRequired = CheckRole(utils.RoleMerchant)
