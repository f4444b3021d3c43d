package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newIdentityApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", UserContextMiddleware(), func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		return c.JSON(fiber.Map{
			"user_id":   c.Locals("user_id"),
			"user_name": c.Locals("user_name"),
			"roles":     roles,
		})
	})
	app.Get("/admin", UserContextMiddleware(), RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	return app
}

func signSessionToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestUserContextFromGatewayHeaders(t *testing.T) {
	app := newIdentityApp()

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-User-ID", "user-42")
	req.Header.Set("X-User-Name", "alice")
	req.Header.Set("X-User-Roles", "player, admin")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "user-42", body["user_id"])
	require.Equal(t, "alice", body["user_name"])
	require.ElementsMatch(t, []interface{}{"player", "admin"}, body["roles"])
}

func TestUserContextFromSessionToken(t *testing.T) {
	t.Setenv("PACK_SESSION_SECRET", "test-secret")
	app := newIdentityApp()

	signed := signSessionToken(t, "test-secret", jwt.MapClaims{
		"sub":      "user-77",
		"username": "bob",
		"roles":    []string{"player"},
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("X-Session-Token", signed)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "user-77", body["user_id"])
	require.Equal(t, "bob", body["user_name"])
}

func TestUserContextRejectsBadSessionToken(t *testing.T) {
	t.Setenv("PACK_SESSION_SECRET", "test-secret")
	app := newIdentityApp()

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{
			name: "wrong secret",
			token: signSessionToken(t, "other-secret", jwt.MapClaims{
				"sub": "user-1",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			token: signSessionToken(t, "test-secret", jwt.MapClaims{
				"sub": "user-1",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "missing sub",
			token: signSessionToken(t, "test-secret", jwt.MapClaims{
				"username": "nobody",
				"exp":      time.Now().Add(time.Hour).Unix(),
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			req.Header.Set("X-Session-Token", tt.token)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestUserContextRejectsAnonymous(t *testing.T) {
	app := newIdentityApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	app := newIdentityApp()

	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Roles", "player")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("X-User-Roles", "admin")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
