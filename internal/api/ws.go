package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/errors"
)

// wsUpgrade authenticates the upgrade request. Browsers cannot set an
// Authorization header on a websocket, so the token rides in a query
// parameter.
func (s *Server) wsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenString := c.Query("token")
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

// handleWebSocket streams the user's notification feed
func (s *Server) handleWebSocket(conn *websocket.Conn) {
	uid, _ := conn.Locals(userIDKey).(string)
	if uid == "" {
		conn.Close()
		return
	}

	events, unsubscribe := s.Hub.Subscribe(uid)
	defer unsubscribe()

	s.Logger.Info("websocket connected", zap.String("user_id", uid))

	// drain client frames so pings and closes are processed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			s.Logger.Info("websocket disconnected", zap.String("user_id", uid))
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.Logger.Warn("websocket write failed", zap.String("user_id", uid), zap.Error(err))
				return
			}
		}
	}
}
