// middleware/auth.go
package middleware

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// UserContextMiddleware extracts the requesting user's identity and roles.
// Two sources, checked in order:
//  1. Gateway headers (X-User-ID, X-User-Name, X-User-Roles) set by the host
//     gateway after it authenticated the session.
//  2. A host-issued HS256 session token in X-Session-Token, verified against
//     PACK_SESSION_SECRET (claims: sub, username, roles).
//
// Routes behind this middleware are secured: requests with neither source
// are rejected.
func UserContextMiddleware() fiber.Handler {
	sessionSecret := os.Getenv("PACK_SESSION_SECRET")

	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		userName := c.Get("X-User-Name")
		rolesStr := c.Get("X-User-Roles")

		var roles []string

		if userID == "" {
			if raw := c.Get("X-Session-Token"); raw != "" && sessionSecret != "" {
				claims, err := parseSessionToken(raw, sessionSecret)
				if err != nil {
					log.Printf("❌ [USER_CTX] Invalid session token on %s: %v", c.Path(), err)
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
						"error": "invalid session token",
					})
				}
				userID = claims.userID
				userName = claims.username
				roles = claims.roles
			}
		}

		if userID == "" {
			log.Printf("❌ [USER_CTX] No user identity on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing user identity — request must come through gateway with auth context",
			})
		}

		if roles == nil && rolesStr != "" {
			for _, r := range strings.Split(rolesStr, ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		}

		// Attach to ctx for handlers
		c.Locals("user_id", userID)
		c.Locals("user_name", userName)
		c.Locals("user_roles", roles)

		return c.Next()
	}
}

// RequireRole guards admin routes: the user context must carry the role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals("user_roles").([]string)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fmt.Sprintf("role %q required", role),
		})
	}
}

type sessionClaims struct {
	userID   string
	username string
	roles    []string
}

func parseSessionToken(raw, secret string) (*sessionClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("session token missing sub claim")
	}

	out := &sessionClaims{userID: sub}
	out.username, _ = claims["username"].(string)
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range rawRoles {
			if s, ok := r.(string); ok {
				out.roles = append(out.roles, s)
			}
		}
	}
	return out, nil
}
