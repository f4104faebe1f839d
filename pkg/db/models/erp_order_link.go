package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/enums"
)

// ErpOrderLink records the outcome of pushing a local order into Bling.
// A row only exists once the remote sales order was created.
type ErpOrderLink struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	BlingOrderID  int64               `gorm:"column:bling_order_id;not null"`
	BlingOrderNum *string             `gorm:"column:bling_order_number"`
	ContactID     int64               `gorm:"column:bling_contact_id;not null"`
	NfeID         *int64              `gorm:"column:nfe_id"`
	NfeNumber     *string             `gorm:"column:nfe_number"`
	NfeKey        *string             `gorm:"column:nfe_access_key"`
	Status        enums.ErpLinkStatus `gorm:"column:status;not null;default:'order_created'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *ErpOrderLink) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default pluralization.
func (ErpOrderLink) TableName() string {
	return "bling_orders"
}
