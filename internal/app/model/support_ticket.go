package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketPending    TicketStatus = "pending"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// TicketStatuses lists every status in lifecycle order
var TicketStatuses = []TicketStatus{TicketPending, TicketInProgress, TicketResolved, TicketClosed}

func (s TicketStatus) Valid() bool {
	for _, v := range TicketStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type SupportTicket struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Status      TicketStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	User  *User        `gorm:"foreignKey:UserID" json:"-"`
	Owner *TicketOwner `gorm:"-" json:"user,omitempty"`
}

// TicketOwner is the user projection shown in admin ticket listings
type TicketOwner struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (SupportTicket) TableName() string {
	return "support_tickets"
}

// AttachOwner fills Owner from the preloaded user
func (t *SupportTicket) AttachOwner() {
	if t.User != nil {
		t.Owner = &TicketOwner{ID: t.User.ID, Name: t.User.Name, Email: t.User.Email}
	}
}

func (t *SupportTicket) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	if t.Status == "" {
		t.Status = TicketPending
	}
	return nil
}

// TicketActor identifies who is driving a status change
type TicketActor string

const (
	ActorAdmin  TicketActor = "admin"
	ActorOwner  TicketActor = "owner"
	ActorSystem TicketActor = "system"
)

// TicketTransitions is the allowed-move table per actor. Admins may set any
// status from any status; owners may only close; the scheduler only closes
// resolved tickets.
var TicketTransitions = map[TicketActor]map[TicketStatus][]TicketStatus{
	ActorAdmin: {
		TicketPending:    {TicketInProgress, TicketResolved, TicketClosed},
		TicketInProgress: {TicketPending, TicketResolved, TicketClosed},
		TicketResolved:   {TicketPending, TicketInProgress, TicketClosed},
		TicketClosed:     {TicketPending, TicketInProgress, TicketResolved},
	},
	ActorOwner: {
		TicketPending:    {TicketClosed},
		TicketInProgress: {TicketClosed},
		TicketResolved:   {TicketClosed},
	},
	ActorSystem: {
		TicketResolved: {TicketClosed},
	},
}

// CanTransition reports whether actor may move a ticket from -> to.
// Re-setting the current status is always allowed.
func CanTransition(actor TicketActor, from, to TicketStatus) bool {
	if from == to {
		return true
	}
	for _, next := range TicketTransitions[actor][from] {
		if next == to {
			return true
		}
	}
	return false
}
