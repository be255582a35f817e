package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
	Author  *User    `gorm:"foreignKey:AuthorID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// ReviewView is the wire form of a review with its author projection
type ReviewView struct {
	ID        uuid.UUID `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	ProductID uuid.UUID `json:"product_id"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// View flattens the review; the author must be preloaded to carry a name
func (r *Review) View() ReviewView {
	v := ReviewView{
		ID:        r.ID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		ProductID: r.ProductID,
		Author:    Author{ID: r.AuthorID},
		CreatedAt: r.CreatedAt,
	}
	if r.Author != nil {
		v.Author.Name = r.Author.Name
	}
	return v
}
