package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

// userIDKey is the fiber.Ctx local holding the authenticated user
const userIDKey = "userID"

func (s *Server) authMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" {
			return c.Status(401).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenString := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.ErrUnauthorized
			}
			return []byte(s.Config.Security.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return c.Status(401).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(userIDKey, sub)
		return c.Next()
	}
}

// userID returns the authenticated user set by authMiddleware
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// statusFor maps an error code onto an HTTP status
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case "VAL_001", "VAL_002", "VAL_003", "VAL_004", "GEN_002":
		return fiber.StatusBadRequest
	case "AUTH_001", "AUTH_002":
		return fiber.StatusUnauthorized
	case "AUTH_003":
		return fiber.StatusConflict
	case "NF_001", "NF_002", "NF_003", "NF_004", "NF_005", "GEN_001":
		return fiber.StatusNotFound
	case "PLACES_001":
		return fiber.StatusServiceUnavailable
	case "PLACES_002", "PLACES_004":
		return fiber.StatusBadGateway
	case "PLACES_003":
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders an error response in the API's uniform shape
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= 500 {
		s.Logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	message := "internal error"
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  errors.GetCode(err),
	})
}
