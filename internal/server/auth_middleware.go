package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"viralpik/internal/middleware"
	"viralpik/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// authenticate stores the caller in locals and in the request context so
// service logs carry the user id.
func authenticate(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
}

// isSocketPath reports websocket upgrade routes. The ticket endpoint itself
// is an ordinary bearer-token call.
func isSocketPath(path string) bool {
	return strings.HasPrefix(path, "/api/ws") && path != "/api/ws/ticket"
}

// redeemTicket spends a websocket ticket. ok is false for an unknown,
// expired or already used ticket.
func (s *Server) redeemTicket(ctx context.Context, ticket string) (uint, bool) {
	raw, err := s.redis.GetDel(ctx, wsTicketKey(ticket)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			middleware.Logger.WarnContext(ctx, "ws ticket lookup failed", "error", err)
		}
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// AuthRequired admits a request carrying a valid access token, or on
// websocket routes a one-time ticket. Browsers cannot set headers on a
// websocket upgrade, so sockets use tickets and never a query token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// nested groups run this twice and a ticket only works once
		if currentUserID(c) != 0 {
			return c.Next()
		}
		socket := isSocketPath(c.Path())

		if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
			if userID, ok := s.redeemTicket(c.UserContext(), ticket); ok {
				c.Locals("wsTicket", true)
				authenticate(c, userID)
				return c.Next()
			}
			if socket {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		raw := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" && !socket {
			raw = c.Query("token")
		}
		claims, err := s.authSvc().Authenticate(c.UserContext(), raw)
		if err != nil {
			return respondServiceError(c, err)
		}
		c.Locals("claims", claims)
		authenticate(c, claims.UserID)
		return c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.isAdminByUserID(c.UserContext(), currentUserID(c))
		switch {
		case err != nil:
			return respondServiceError(c, err)
		case !admin:
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// optionalUserID reads a bearer token when one is sent. Public routes use
// it to personalise responses without requiring a login.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	raw := middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		return 0, false
	}
	claims, err := s.authSvc().Authenticate(c.UserContext(), raw)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}
