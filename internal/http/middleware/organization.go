package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"swipely/internal/organizations"
)

// OrganizationKey is the Locals key holding the resolved *organizations.Organization.
const OrganizationKey = "organization"

// OrganizationFilter resolves the :slug route parameter through dir and
// stores the organization in Locals. Unknown slugs are answered with 404
// before the handler runs.
func OrganizationFilter(dir *organizations.Directory, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")
		org, err := dir.Lookup(slug)
		if err != nil {
			if organizations.IsNotFound(err) {
				logger.Debug("Unknown organization", slog.String("slug", slug))
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Organization not found",
					"code":  "ORGANIZATION_NOT_FOUND",
				})
			}
			logger.Error("Failed to resolve organization", slog.String("slug", slug), slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to resolve organization",
				"code":  "ORGANIZATION_LOOKUP_ERROR",
			})
		}

		c.Locals(OrganizationKey, org)
		logger.Debug("Resolved organization", slog.String("slug", org.Slug), slog.Uint64("organization_id", uint64(org.ID)))
		return c.Next()
	}
}
