package server

import (
	"errors"
	"time"

	"viralpik/internal/middleware"
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 60 * time.Second

func wsTicketKey(ticket string) string {
	return "ws_ticket:" + ticket
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new account. Creators can upload once approved.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,is_creator=bool} true "Signup request"
// @Success 201 {object} object{token=string,user=models.Profile}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.authSvc().Signup(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate and return a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.Profile}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	res, err := s.authSvc().Login(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// Refresh handles POST /api/auth/refresh
// @Summary Refresh token
// @Description Exchange a valid token for a new one; the old one is revoked
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{token=string,user=models.Profile}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	res, err := s.authSvc().Refresh(c.UserContext(), middleware.BearerToken(c.Get("Authorization")))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented token. Always succeeds.
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	raw := middleware.BearerToken(c.Get("Authorization"))
	if claims, err := s.authSvc().Authenticate(c.UserContext(), raw); err == nil {
		if err := s.authSvc().Revoke(c.UserContext(), claims); err != nil {
			return respondServiceError(c, err)
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// UsernameAvailable handles GET /api/auth/username-available?u=
// @Summary Username availability
// @Tags auth
// @Produce json
// @Param u query string true "Candidate username"
// @Success 200 {object} object{username=string,available=bool}
// @Router /auth/username-available [get]
func (s *Server) UsernameAvailable(c *fiber.Ctx) error {
	username := c.Query("u")
	available, err := s.profileSvc().UsernameAvailable(c.UserContext(), username)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"username": username, "available": available})
}

// RequestPasswordReset handles POST /api/auth/password-reset
// @Summary Request a password reset link
// @Description Always answers 202 so account existence is not revealed
// @Tags auth
// @Accept json
// @Param request body object{email=string} true "Account email"
// @Success 202 {object} object{message=string}
// @Router /auth/password-reset [post]
func (s *Server) RequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}
	if _, err := s.authSvc().RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If the account exists a reset link is on its way",
	})
}

// ResetPassword handles POST /api/auth/password-reset/confirm
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Param request body object{token=string,password=string} true "Reset token and new password"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/password-reset/confirm [post]
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token and password are required"))
	}
	if err := s.authSvc().ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

var errRealtimeUnavailable = errors.New("realtime notifications are not configured")

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a websocket ticket
// @Description Single-use ticket valid for one minute, passed as ?ticket= on /api/ws
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errRealtimeUnavailable))
	}
	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), wsTicketKey(ticket), currentUserID(c), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}
