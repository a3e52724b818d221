package middleware

import (
	"net/http/httptest"
	"site-inventory/internal/models"
	"site-inventory/internal/utils"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Use(AuthMiddleware(testSecret))
	app.Get("/me", RequirePermission(PermissionSiteImport), func(c *fiber.Ctx) error {
		actor, _ := ActorFromContext(c)
		return c.JSON(actor)
	})
	return app
}

func bearer(t *testing.T, actor models.Actor) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(actor, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddlewareRejectsMissingOrMalformedHeader(t *testing.T) {
	app := newProtectedApp()

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer not.a.jwt"} {
		req := httptest.NewRequest("GET", "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, header)
	}
}

func TestRequirePermission(t *testing.T) {
	app := newProtectedApp()

	cases := []struct {
		name   string
		actor  models.Actor
		status int
	}{
		{"granted", models.Actor{UserID: 2, Role: "operator", Permissions: []string{PermissionSiteImport}}, fiber.StatusOK},
		{"admin", models.Actor{UserID: 1, Role: "admin"}, fiber.StatusOK},
		{"missing", models.Actor{UserID: 3, Role: "viewer", Permissions: []string{"sites.read"}}, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			req.Header.Set("Authorization", bearer(t, tc.actor))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequirePermissionWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequirePermission(PermissionSiteImport), func(c *fiber.Ctx) error { return nil })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
