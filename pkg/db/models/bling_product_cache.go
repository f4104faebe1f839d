package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BlingProductCache mirrors the Bling product list so the admin catalog
// screens can browse the remote catalog without hitting the API.
type BlingProductCache struct {
	BlingID   int64           `gorm:"column:bling_id;primaryKey;autoIncrement:false"`
	Code      *string         `gorm:"column:code"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	Stock     *int            `gorm:"column:stock"`
	Situation *string         `gorm:"column:situation"`
	SyncedAt  time.Time       `gorm:"column:synced_at;not null"`
}

// TableName overrides the default pluralization.
func (BlingProductCache) TableName() string {
	return "bling_product_cache"
}
