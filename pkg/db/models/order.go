package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/enums"
)

// Order is a storefront purchase. Customer contact fields are denormalized
// onto the order because there is no account system.
type Order struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerName   string            `gorm:"column:customer_name;not null"`
	CustomerEmail  string            `gorm:"column:customer_email;not null"`
	CustomerPhone  *string           `gorm:"column:customer_phone"`
	CustomerDoc    *string           `gorm:"column:customer_doc"`
	ShippingStreet *string           `gorm:"column:shipping_street"`
	ShippingNumber *string           `gorm:"column:shipping_number"`
	ShippingCity   *string           `gorm:"column:shipping_city"`
	ShippingState  *string           `gorm:"column:shipping_state"`
	ShippingZip    *string           `gorm:"column:shipping_zip"`
	Subtotal       decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	ShippingCost   decimal.Decimal   `gorm:"column:shipping_cost;type:numeric(12,2);not null"`
	Discount       decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	CouponID       *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	Status         enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	Notes          *string           `gorm:"column:notes"`
	Items          []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ErpLink        *ErpOrderLink     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots a purchased line at the price paid.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null"`
	ProductID *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	SKU       *string         `gorm:"column:sku"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Qty       int             `gorm:"column:qty;not null"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
