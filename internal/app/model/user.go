package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// DefaultBanReason is recorded when an admin blocks a user without a reason
const DefaultBanReason = "violation of rules"

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	Name               string     `gorm:"not null" json:"name"`
	Phone              string     `json:"phone,omitempty"`
	Role               UserRole   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	IsBlocked          bool       `gorm:"not null;default:false" json:"is_blocked"`
	BanReason          *string    `json:"ban_reason,omitempty"`
	BannedAt           *time.Time `json:"banned_at,omitempty"`
	FavoriteProductIDs StringList `json:"favorite_product_ids"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Reviews        []Review        `gorm:"foreignKey:AuthorID" json:"-"`
	CartItems      []CartItem      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	SupportTickets []SupportTicket `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasFavorite reports whether productID is in the favorites list
func (u *User) HasFavorite(productID uuid.UUID) bool {
	return u.FavoriteProductIDs.Contains(productID.String())
}

// Author is the public projection of a user attached to reviews
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
