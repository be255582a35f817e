package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/events"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTicketNotFound      = errors.New("support ticket not found")
	ErrTicketForbidden     = errors.New("not allowed to access this ticket")
	ErrInvalidTicketStatus = errors.New("invalid ticket status")
	ErrInvalidTransition   = errors.New("ticket status transition not allowed")
	ErrTicketFieldRequired = errors.New("title and description are required")
)

// NotificationTicketStatus is the websocket message type sent to a ticket
// owner when the status changes
const NotificationTicketStatus = "ticket_status_changed"

// Notifier pushes a message to a connected user
type Notifier interface {
	NotifyUser(userID uuid.UUID, notificationType string, data interface{}) error
}

// Requester is the authenticated caller of a ticket operation
type Requester struct {
	ID      uuid.UUID
	IsAdmin bool
}

type CreateTicketInput struct {
	Title       string
	Description string
	// OnBehalfOf lets an admin open a ticket for another user
	OnBehalfOf *uuid.UUID
}

type SupportTicketService interface {
	CreateTicket(ctx context.Context, requester Requester, input CreateTicketInput) (*model.SupportTicket, error)
	ListForUser(requester Requester, userID uuid.UUID) ([]model.SupportTicket, error)
	ListAll() ([]model.SupportTicket, error)
	GetTicket(requester Requester, id uuid.UUID) (*model.SupportTicket, error)
	UpdateStatus(ctx context.Context, requester Requester, id uuid.UUID, status model.TicketStatus) (*model.SupportTicket, error)
	DeleteTicket(id uuid.UUID) error
	AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error)
}

type supportTicketService struct {
	db         *gorm.DB
	ticketRepo repository.SupportTicketRepository
	userRepo   repository.UserRepository
	notifier   Notifier
	publisher  events.Publisher
}

func NewSupportTicketService(
	db *gorm.DB,
	ticketRepo repository.SupportTicketRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	publisher events.Publisher,
) SupportTicketService {
	return &supportTicketService{
		db:         db,
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		publisher:  publisher,
	}
}

func (s *supportTicketService) CreateTicket(ctx context.Context, requester Requester, input CreateTicketInput) (*model.SupportTicket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, ErrTicketFieldRequired
	}

	ownerID := requester.ID
	if input.OnBehalfOf != nil && *input.OnBehalfOf != requester.ID {
		if !requester.IsAdmin {
			return nil, ErrTicketForbidden
		}
		ownerID = *input.OnBehalfOf
	}

	if _, err := s.userRepo.FindByID(ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ticket := &model.SupportTicket{
		Title:       title,
		Description: description,
		Status:      model.TicketPending,
		UserID:      ownerID,
	}
	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, err
	}

	logger.Info("Support ticket created", map[string]interface{}{
		"ticket_id":  ticket.ID,
		"user_id":    ownerID,
		"created_by": requester.ID,
	})

	events.PublishAsync(s.publisher, events.New(events.TicketCreated, ticket.ID.String(), map[string]interface{}{
		"ticket_id": ticket.ID,
		"user_id":   ownerID,
		"title":     ticket.Title,
	}))
	return ticket, nil
}

func (s *supportTicketService) ListForUser(requester Requester, userID uuid.UUID) ([]model.SupportTicket, error) {
	if requester.ID != userID && !requester.IsAdmin {
		logger.Warn("Ticket list denied", map[string]interface{}{
			"requester_id": requester.ID,
			"user_id":      userID,
		})
		return nil, ErrTicketForbidden
	}
	return s.ticketRepo.FindByUserID(userID)
}

func (s *supportTicketService) ListAll() ([]model.SupportTicket, error) {
	return s.ticketRepo.FindAll()
}

func (s *supportTicketService) GetTicket(requester Requester, id uuid.UUID) (*model.SupportTicket, error) {
	ticket, err := s.ticketRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if ticket.UserID != requester.ID && !requester.IsAdmin {
		return nil, ErrTicketForbidden
	}
	return ticket, nil
}

// UpdateStatus moves a ticket through the transition table of the caller's
// actor. Admins act as admin on every ticket; others act as owner and only
// on their own.
func (s *supportTicketService) UpdateStatus(ctx context.Context, requester Requester, id uuid.UUID, status model.TicketStatus) (*model.SupportTicket, error) {
	actor := model.ActorOwner
	if requester.IsAdmin {
		actor = model.ActorAdmin
	}
	return s.transition(ctx, actor, &requester.ID, id, status)
}

func (s *supportTicketService) transition(ctx context.Context, actor model.TicketActor, requesterID *uuid.UUID, id uuid.UUID, status model.TicketStatus) (*model.SupportTicket, error) {
	if !status.Valid() {
		return nil, ErrInvalidTicketStatus
	}

	var (
		ticket   *model.SupportTicket
		previous model.TicketStatus
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		tickets := s.ticketRepo.WithTx(tx)

		var err error
		ticket, err = tickets.FindByIDForUpdate(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}

		if actor == model.ActorOwner && (requesterID == nil || ticket.UserID != *requesterID) {
			return ErrTicketForbidden
		}

		previous = ticket.Status
		if previous == status {
			return nil
		}
		if !model.CanTransition(actor, previous, status) {
			return ErrInvalidTransition
		}
		return tickets.UpdateStatus(ticket, status)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			logger.Warn("Ticket transition rejected", map[string]interface{}{
				"ticket_id": id,
				"actor":     actor,
				"to":        status,
			})
		}
		return nil, err
	}

	if previous == status {
		return ticket, nil
	}

	logger.Info("Support ticket status changed", map[string]interface{}{
		"ticket_id": ticket.ID,
		"actor":     actor,
		"from":      previous,
		"to":        status,
	})
	s.announce(ticket, previous)
	return ticket, nil
}

func (s *supportTicketService) announce(ticket *model.SupportTicket, previous model.TicketStatus) {
	payload := map[string]interface{}{
		"ticket_id":       ticket.ID,
		"title":           ticket.Title,
		"previous_status": previous,
		"status":          ticket.Status,
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyUser(ticket.UserID, NotificationTicketStatus, payload); err != nil {
			logger.Warn("Failed to notify ticket owner", map[string]interface{}{
				"ticket_id": ticket.ID,
				"user_id":   ticket.UserID,
				"error":     err.Error(),
			})
		}
	}
	events.PublishAsync(s.publisher, events.New(events.TicketStatusChanged, ticket.ID.String(), payload))
}

func (s *supportTicketService) DeleteTicket(id uuid.UUID) error {
	if err := s.ticketRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketNotFound
		}
		return err
	}

	logger.Info("Support ticket deleted", map[string]interface{}{
		"ticket_id": id,
	})
	return nil
}

// AutoCloseResolved closes tickets that have sat in resolved for longer
// than olderThan. It returns how many were closed.
func (s *supportTicketService) AutoCloseResolved(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.ticketRepo.FindResolvedBefore(time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, t := range stale {
		if ctx.Err() != nil {
			return closed, ctx.Err()
		}
		if _, err := s.transition(ctx, model.ActorSystem, nil, t.ID, model.TicketClosed); err != nil {
			// Another actor may have moved it since the scan
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTicketNotFound) {
				continue
			}
			return closed, err
		}
		closed++
	}

	if closed > 0 {
		logger.Info("Stale resolved tickets closed", map[string]interface{}{
			"count": closed,
		})
	}
	return closed, nil
}
