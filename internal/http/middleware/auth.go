package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// ActorLocalKey is the key used to store the verified actor user id in
// Fiber's context locals.
const ActorLocalKey = "actor_user_id"

// Auth verifies the Bearer token on every request and exposes the token
// subject as the actor user id.
//
// Token issuance belongs to the authentication service; this middleware only
// verifies the HMAC signature and requires a non-empty subject. Role-based
// gating happens client-side and is out of scope here.
func Auth(secret string) fiber.Handler {
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			return fiber.ErrUnauthorized
		}

		claims := &jwt.RegisteredClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals(ActorLocalKey, claims.Subject)
		return c.Next()
	}
}

// ActorFromCtx returns the verified actor user id stored by Auth, or "".
func ActorFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(ActorLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
