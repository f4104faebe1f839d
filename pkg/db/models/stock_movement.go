package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/enums"
)

// StockMovement is an append-only ledger entry describing a manual stock
// change applied from the back office.
type StockMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID          `gorm:"column:product_id;type:uuid;not null"`
	Type        enums.MovementType `gorm:"column:type;not null"`
	Quantity    int                `gorm:"column:quantity;not null"`
	StockBefore int                `gorm:"column:stock_before;not null"`
	StockAfter  int                `gorm:"column:stock_after;not null"`
	Reason      *string            `gorm:"column:reason"`
	PerformedBy *string            `gorm:"column:performed_by"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
