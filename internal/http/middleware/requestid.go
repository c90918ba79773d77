package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request id between services.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the request id lives in Fiber's context
	// locals; the logger and error envelope read it from there.
	RequestIDLocalKey = "request_id"
)

// RequestID guarantees every request carries an id: an incoming X-Request-ID
// is reused, otherwise a fresh UUID is generated. The id is stored in context
// locals and echoed on the response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
