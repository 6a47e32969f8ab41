package server

import (
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateSupportTicket handles POST /api/support
// @Summary Contact support
// @Description Stores the ticket. Forwarding to the support inbox is best effort.
// @Tags support
// @Accept json
// @Produce json
// @Param request body service.CreateTicketInput true "Ticket"
// @Success 201 {object} models.SupportTicket
// @Failure 400 {object} models.ErrorResponse
// @Router /support [post]
func (s *Server) CreateSupportTicket(c *fiber.Ctx) error {
	var in service.CreateTicketInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if uid := s.viewerID(c); uid != 0 {
		in.UserID = &uid
	}

	ticket, err := s.supportSvc().CreateTicket(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// GetSupportTickets handles GET /api/admin/support
func (s *Server) GetSupportTickets(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	tickets, err := s.supportSvc().List(c.UserContext(),
		models.SupportTicketStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(tickets)
}

// CloseSupportTicket handles POST /api/admin/support/:id/close
func (s *Server) CloseSupportTicket(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.supportSvc().Close(c.UserContext(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Ticket closed"})
}
