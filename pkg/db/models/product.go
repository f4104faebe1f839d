package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a storefront listing. Rows created by catalog sync carry the
// Bling product id so later syncs can reconcile by SKU.
type Product struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SKU               *string          `gorm:"column:sku;uniqueIndex"`
	Name              string           `gorm:"column:name;not null"`
	Slug              string           `gorm:"column:slug;not null;uniqueIndex"`
	Description       *string          `gorm:"column:description"`
	Price             decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CompareAtPrice    *decimal.Decimal `gorm:"column:compare_at_price;type:numeric(12,2)"`
	Stock             int              `gorm:"column:stock;not null;default:0"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:5"`
	Brand             *string          `gorm:"column:brand"`
	IsActive          bool             `gorm:"column:is_active;not null"`
	IsFeatured        bool             `gorm:"column:is_featured;not null"`
	CategoryID        *uuid.UUID       `gorm:"column:category_id;type:uuid"`
	BlingID           *int64           `gorm:"column:bling_id"`
	Images            []ProductImage   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductImage stores one image URL for a product, ordered by Position.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	URL       string    `gorm:"column:url;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Category groups products for storefront navigation.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
