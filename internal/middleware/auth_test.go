package middleware

import (
	"net/http/httptest"
	"testing"

	"media-store/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedApp(skipAuth bool) *fiber.App {
	app := fiber.New()
	app.Get("/protected", AuthMiddleware(skipAuth), func(c *fiber.Ctx) error {
		claims := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		return c.JSON(fiber.Map{"user_id": claims.UserID})
	})
	return app
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	app := protectedApp(false)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	app := protectedApp(false)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Token abc123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	app := protectedApp(false)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	utils.SetSecret("test-secret")
	app := protectedApp(false)

	token, err := utils.GenerateToken("user42", []string{"uploader"})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareSkipInjectsDevClaims(t *testing.T) {
	app := protectedApp(true)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
