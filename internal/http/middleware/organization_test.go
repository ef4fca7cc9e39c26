package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipely/internal/http/middleware"
	"swipely/internal/organizations"
	"swipely/internal/testsupport"
)

func TestOrganizationFilter(t *testing.T) {
	dbManager, logger, org := testsupport.SetupTestDBManagerWithOrganization(t, "acme")
	dir := organizations.NewDirectory(dbManager.GetConnection(), logger, time.Minute)

	app := fiber.New()
	app.Get("/orgs/:slug", middleware.OrganizationFilter(dir, logger), func(c *fiber.Ctx) error {
		resolved, ok := c.Locals(middleware.OrganizationKey).(*organizations.Organization)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{"id": resolved.ID})
	})

	t.Run("resolves known slug case-insensitively", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orgs/ACME", nil), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.EqualValues(t, org.ID, testsupport.DecodeJSON(t, resp.Body)["id"])
	})

	t.Run("unknown slug is a 404", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orgs/globex", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "ORGANIZATION_NOT_FOUND", testsupport.DecodeJSON(t, resp.Body)["code"])
	})
}
