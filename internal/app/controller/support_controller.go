package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/service"
	apperrors "github.com/ikkim/storefront-backend/internal/errors"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type SupportController struct {
	ticketService service.SupportTicketService
}

func NewSupportController(ticketService service.SupportTicketService) *SupportController {
	return &SupportController{
		ticketService: ticketService,
	}
}

type CreateTicketRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	// Admins may open a ticket for another user
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateTicket opens a support ticket
// POST /api/v1/support/tickets
func (ctrl *SupportController) CreateTicket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	requester, ok := currentRequester(c)
	if !ok {
		return
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create ticket request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindError(c, err)
		return
	}

	input := service.CreateTicketInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.UserID != "" {
		onBehalfOf := uuid.MustParse(req.UserID)
		input.OnBehalfOf = &onBehalfOf
	}

	ticket, err := ctrl.ticketService.CreateTicket(c.Request.Context(), requester, input)
	if err != nil {
		respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Support ticket created",
		"ticket":  ticket,
	})
}

// ListMyTickets lists the caller's tickets
// GET /api/v1/support/tickets
func (ctrl *SupportController) ListMyTickets(c *gin.Context) {
	requester, ok := currentRequester(c)
	if !ok {
		return
	}
	ctrl.listForUser(c, requester, requester.ID)
}

// ListUserTickets lists one user's tickets; self or admin
// GET /api/v1/support/users/:userId/tickets
func (ctrl *SupportController) ListUserTickets(c *gin.Context) {
	requester, ok := currentRequester(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	ctrl.listForUser(c, requester, userID)
}

func (ctrl *SupportController) listForUser(c *gin.Context, requester service.Requester, userID uuid.UUID) {
	tickets, err := ctrl.ticketService.ListForUser(requester, userID)
	if err != nil {
		respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": tickets,
		"count":   len(tickets),
	})
}

// ListAllTickets lists every ticket with its owner
// GET /api/v1/admin/support/tickets
func (ctrl *SupportController) ListAllTickets(c *gin.Context) {
	tickets, err := ctrl.ticketService.ListAll()
	if err != nil {
		respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": tickets,
		"count":   len(tickets),
	})
}

// GetTicket returns one ticket to its owner or an admin
// GET /api/v1/support/tickets/:id
func (ctrl *SupportController) GetTicket(c *gin.Context) {
	requester, ok := currentRequester(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ticket, err := ctrl.ticketService.GetTicket(requester, id)
	if err != nil {
		respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket": ticket,
	})
}

// UpdateTicketStatus moves a ticket to a new status. Owners may only close.
// PATCH /api/v1/support/tickets/:id/status
// PATCH /api/v1/admin/support/tickets/:id/status
func (ctrl *SupportController) UpdateTicketStatus(c *gin.Context) {
	requester, ok := currentRequester(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateTicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	ticket, err := ctrl.ticketService.UpdateStatus(c.Request.Context(), requester, id, model.TicketStatus(req.Status))
	if err != nil {
		respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket status updated",
		"ticket":  ticket,
	})
}

// DeleteTicket removes a ticket
// DELETE /api/v1/admin/support/tickets/:id
func (ctrl *SupportController) DeleteTicket(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.ticketService.DeleteTicket(id); err != nil {
		respondTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket deleted",
	})
}

func respondTicketError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTicketStatus):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          apperrors.TicketInvalidStatus,
			"message":        "Unknown ticket status",
			"valid_statuses": model.TicketStatuses,
		})
	case errors.Is(err, service.ErrTicketFieldRequired):
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Title and description are required")
	case errors.Is(err, service.ErrTicketNotFound):
		apperrors.NotFound(c, apperrors.TicketNotFound, "Ticket not found")
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
	case errors.Is(err, service.ErrTicketForbidden):
		apperrors.Forbidden(c, "Not allowed to access this ticket")
	case errors.Is(err, service.ErrInvalidTransition):
		apperrors.Conflict(c, apperrors.TicketInvalidTransition, "Ticket status change not allowed")
	default:
		middleware.GetLoggerFromContext(c).Error("Ticket operation failed", err)
		apperrors.ParseAndRespond(c, err, "support ticket")
	}
}
