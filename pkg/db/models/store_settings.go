package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StoreSettings is a single-row table with storefront-wide switches.
type StoreSettings struct {
	ID                    uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	StoreOpen             bool            `gorm:"column:store_open;not null"`
	FreeShippingThreshold decimal.Decimal `gorm:"column:free_shipping_threshold;type:numeric(12,2);not null"`
	FlatShippingRate      decimal.Decimal `gorm:"column:flat_shipping_rate;type:numeric(12,2);not null"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StoreSettings) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default pluralization.
func (StoreSettings) TableName() string {
	return "store_settings"
}
