package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupportTicketRepository interface {
	WithTx(tx *gorm.DB) SupportTicketRepository
	Create(ticket *model.SupportTicket) error
	FindByID(id uuid.UUID) (*model.SupportTicket, error)
	FindByIDForUpdate(id uuid.UUID) (*model.SupportTicket, error)
	FindByUserID(userID uuid.UUID) ([]model.SupportTicket, error)
	FindAll() ([]model.SupportTicket, error)
	FindResolvedBefore(cutoff time.Time) ([]model.SupportTicket, error)
	UpdateStatus(ticket *model.SupportTicket, status model.TicketStatus) error
	Delete(id uuid.UUID) error
}

type supportTicketRepository struct {
	db *gorm.DB
}

func NewSupportTicketRepository(db *gorm.DB) SupportTicketRepository {
	return &supportTicketRepository{db: db}
}

func (r *supportTicketRepository) WithTx(tx *gorm.DB) SupportTicketRepository {
	return &supportTicketRepository{db: tx}
}

func (r *supportTicketRepository) Create(ticket *model.SupportTicket) error {
	logger.Debug("Creating support ticket in database", map[string]interface{}{
		"user_id": ticket.UserID,
		"title":   ticket.Title,
	})

	if err := r.db.Omit("User").Create(ticket).Error; err != nil {
		logger.Error("Failed to create support ticket in database", err, map[string]interface{}{
			"user_id": ticket.UserID,
		})
		return err
	}

	logger.Debug("Support ticket created in database", map[string]interface{}{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
	return nil
}

func (r *supportTicketRepository) FindByID(id uuid.UUID) (*model.SupportTicket, error) {
	return r.findByID(r.db, id)
}

// FindByIDForUpdate takes a row lock; call it inside a transaction
func (r *supportTicketRepository) FindByIDForUpdate(id uuid.UUID) (*model.SupportTicket, error) {
	return r.findByID(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *supportTicketRepository) findByID(query *gorm.DB, id uuid.UUID) (*model.SupportTicket, error) {
	logger.Debug("Finding support ticket by ID in database", map[string]interface{}{
		"ticket_id": id,
	})

	var ticket model.SupportTicket
	if err := query.Where("id = ?", id).First(&ticket).Error; err != nil {
		logger.Error("Failed to find support ticket by ID in database", err, map[string]interface{}{
			"ticket_id": id,
		})
		return nil, err
	}

	logger.Debug("Support ticket found by ID in database", map[string]interface{}{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
	return &ticket, nil
}

// FindByUserID returns the user's tickets, newest first
func (r *supportTicketRepository) FindByUserID(userID uuid.UUID) ([]model.SupportTicket, error) {
	logger.Debug("Finding support tickets by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var tickets []model.SupportTicket
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		logger.Error("Failed to find support tickets by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Support tickets found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(tickets),
	})
	return tickets, nil
}

// FindAll returns every ticket with its owner, newest first
func (r *supportTicketRepository) FindAll() ([]model.SupportTicket, error) {
	logger.Debug("Finding all support tickets in database")

	var tickets []model.SupportTicket
	err := r.db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "email")
		}).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		logger.Error("Failed to find support tickets in database", err)
		return nil, err
	}

	for i := range tickets {
		tickets[i].AttachOwner()
	}

	logger.Debug("Support tickets found in database", map[string]interface{}{
		"count": len(tickets),
	})
	return tickets, nil
}

// FindResolvedBefore returns resolved tickets last touched before cutoff
func (r *supportTicketRepository) FindResolvedBefore(cutoff time.Time) ([]model.SupportTicket, error) {
	logger.Debug("Finding stale resolved tickets in database", map[string]interface{}{
		"cutoff": cutoff,
	})

	var tickets []model.SupportTicket
	err := r.db.Where("status = ? AND updated_at < ?", model.TicketResolved, cutoff).
		Order("updated_at ASC").
		Find(&tickets).Error
	if err != nil {
		logger.Error("Failed to find stale resolved tickets in database", err)
		return nil, err
	}

	logger.Debug("Stale resolved tickets found in database", map[string]interface{}{
		"count": len(tickets),
	})
	return tickets, nil
}

func (r *supportTicketRepository) UpdateStatus(ticket *model.SupportTicket, status model.TicketStatus) error {
	logger.Debug("Updating support ticket status in database", map[string]interface{}{
		"ticket_id": ticket.ID,
		"from":      ticket.Status,
		"to":        status,
	})

	if err := r.db.Model(ticket).Update("status", status).Error; err != nil {
		logger.Error("Failed to update support ticket status in database", err, map[string]interface{}{
			"ticket_id": ticket.ID,
		})
		return err
	}
	ticket.Status = status

	logger.Debug("Support ticket status updated in database", map[string]interface{}{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
	return nil
}

func (r *supportTicketRepository) Delete(id uuid.UUID) error {
	logger.Debug("Deleting support ticket from database", map[string]interface{}{
		"ticket_id": id,
	})

	result := r.db.Where("id = ?", id).Delete(&model.SupportTicket{})
	if result.Error != nil {
		logger.Error("Failed to delete support ticket from database", result.Error, map[string]interface{}{
			"ticket_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Support ticket deleted from database", map[string]interface{}{
		"ticket_id": id,
	})
	return nil
}
