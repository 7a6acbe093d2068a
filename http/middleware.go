package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const userIDKey = "userID"

// requireAuth validates the bearer token and stashes the owner id in the
// request locals. Every route except login runs behind it.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		return fail(c, fiber.StatusUnauthorized, "User not authenticated or token is invalid.")
	}

	claims, err := s.auth.ParseToken(token)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "User not authenticated or token is invalid.")
	}
	userID, err := claims.UserID()
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "User not authenticated or token is invalid.")
	}

	c.Locals(userIDKey, userID)
	return c.Next()
}

func ownerID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(userIDKey).(uuid.UUID)
	return id
}

// requestLogger logs one line per request.
func requestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
