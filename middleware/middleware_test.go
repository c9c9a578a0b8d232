package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"stocksignals/config"
	"stocksignals/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeAppWithRole sets userRole before running check.
func makeAppWithRole(role string, check fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userRole", role)
		return c.Next()
	})
	app.Use(check)
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(200).SendString("ok")
	})
	return app
}

func signed(t *testing.T, secret, userID, role string, expires time.Time) string {
	t.Helper()
	claims := models.JwtClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestMerchantRequired(t *testing.T) {
	cases := []struct {
		role string
		want int
	}{
		{"merchant", 200},
		{"admin", 403},
		{"staff", 403},
		{"", 403},
	}
	for _, c := range cases {
		resp, err := makeAppWithRole(c.role, MerchantRequired).Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)
		assert.Equal(t, c.want, resp.StatusCode, "role=%q", c.role)
	}
}

func TestCheckRoleMissingRole(t *testing.T) {
	app := fiber.New()
	app.Use(CheckRole("merchant"))
	app.Get("/test", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestJWTMiddleware(t *testing.T) {
	config.AppConfig.JWTSecret = "middleware-secret"
	app := fiber.New()
	app.Use(JWTMiddleware)
	app.Get("/me", func(c *fiber.Ctx) error {
		id, ok := UserID(c)
		if !ok {
			return c.SendStatus(500)
		}
		return c.SendString(id + ":" + c.Locals("userRole").(string))
	})

	valid := signed(t, "middleware-secret", "user-1", "merchant", time.Now().Add(time.Hour))
	expired := signed(t, "middleware-secret", "user-1", "merchant", time.Now().Add(-time.Hour))
	forged := signed(t, "other-secret", "user-1", "merchant", time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + valid, 200},
		{"missing", "", 401},
		{"no bearer", valid, 401},
		{"expired", "Bearer " + expired, 401},
		{"wrong secret", "Bearer " + forged, 401},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
