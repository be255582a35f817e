package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CategoryClothing = "clothing"
	CategoryFootwear = "footwear"
)

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string          `gorm:"type:varchar(50);not null;index" json:"category"`
	ImageURL    string          `gorm:"not null" json:"image_url"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Sizes       StringList      `json:"sizes"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Derived from reviews; filled by the catalog service
	AverageRating float64 `gorm:"-" json:"average_rating"`
	ReviewCount   int     `gorm:"-" json:"review_count"`

	// Relationships
	Reviews   []Review   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`
	CartItems []CartItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// IsClothing reports whether the product uses letter sizes
func (p *Product) IsClothing() bool {
	return strings.EqualFold(p.Category, CategoryClothing)
}

// ApplyRatingStats sets the derived rating fields from loaded reviews
func (p *Product) ApplyRatingStats() {
	p.ReviewCount = len(p.Reviews)
	if p.ReviewCount == 0 {
		p.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.AverageRating = float64(sum) / float64(p.ReviewCount)
}
