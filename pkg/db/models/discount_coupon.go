package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/enums"
)

// DiscountCoupon is an admin-managed discount code.
type DiscountCoupon struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code          string             `gorm:"column:code;not null;uniqueIndex"`
	Type          enums.DiscountType `gorm:"column:type;not null"`
	Value         decimal.Decimal    `gorm:"column:value;type:numeric(12,2);not null"`
	MinOrderValue *decimal.Decimal   `gorm:"column:min_order_value;type:numeric(12,2)"`
	MaxUses       *int               `gorm:"column:max_uses"`
	UsedCount     int                `gorm:"column:used_count;not null;default:0"`
	StartsAt      *time.Time         `gorm:"column:starts_at"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *DiscountCoupon) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
