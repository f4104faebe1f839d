package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
)

// ItemInput is one cart line of a checkout request.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

// CustomerInput carries the buyer identity. There are no accounts, so it is
// collected on every checkout.
type CustomerInput struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone,omitempty"`
	Doc   *string `json:"doc,omitempty"`
}

// ShippingInput is the delivery address.
type ShippingInput struct {
	Street *string `json:"street,omitempty"`
	Number *string `json:"number,omitempty"`
	City   *string `json:"city,omitempty"`
	State  *string `json:"state,omitempty"`
	Zip    *string `json:"zip,omitempty"`
}

// CreateInput is the checkout payload.
type CreateInput struct {
	Customer   CustomerInput `json:"customer" validate:"required"`
	Shipping   ShippingInput `json:"shipping"`
	Items      []ItemInput   `json:"items" validate:"required,min=1,dive"`
	CouponCode *string       `json:"coupon_code,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
}

// ListFilter narrows the back-office order listing.
type ListFilter struct {
	Status string
	Limit  int
	Cursor string
}

// ItemResponse is one purchased line as the API serves it.
type ItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	SKU       *string         `json:"sku,omitempty"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
	Total     decimal.Decimal `json:"total"`
}

// OrderResponse is the API shape of an order. The Bling fields are only
// present once the order was pushed into the ERP; their casing follows the
// storefront contract.
type OrderResponse struct {
	ID               uuid.UUID         `json:"id"`
	CustomerName     string            `json:"customer_name"`
	CustomerEmail    string            `json:"customer_email"`
	CustomerPhone    *string           `json:"customer_phone,omitempty"`
	CustomerDoc      *string           `json:"customer_doc,omitempty"`
	ShippingStreet   *string           `json:"shipping_street,omitempty"`
	ShippingNumber   *string           `json:"shipping_number,omitempty"`
	ShippingCity     *string           `json:"shipping_city,omitempty"`
	ShippingState    *string           `json:"shipping_state,omitempty"`
	ShippingZip      *string           `json:"shipping_zip,omitempty"`
	Subtotal         decimal.Decimal   `json:"subtotal"`
	ShippingCost     decimal.Decimal   `json:"shipping_cost"`
	Discount         decimal.Decimal   `json:"discount"`
	Total            decimal.Decimal   `json:"total"`
	CouponID         *uuid.UUID        `json:"coupon_id,omitempty"`
	Status           enums.OrderStatus `json:"status"`
	Notes            *string           `json:"notes,omitempty"`
	Items            []ItemResponse    `json:"items"`
	BlingOrderID     *int64            `json:"blingOrderId,omitempty"`
	BlingOrderNumber *string           `json:"blingOrderNumber,omitempty"`
	NfeIssued        *bool             `json:"nfeIssued,omitempty"`
	NfeNumber        *string           `json:"nfeNumber,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ErpLinkResponse is the reconciliation record for one order.
type ErpLinkResponse struct {
	OrderID          uuid.UUID           `json:"order_id"`
	BlingOrderID     int64               `json:"bling_order_id"`
	BlingOrderNumber *string             `json:"bling_order_number,omitempty"`
	NfeID            *int64              `json:"nfe_id,omitempty"`
	NfeNumber        *string             `json:"nfe_number,omitempty"`
	NfeAccessKey     *string             `json:"nfe_access_key,omitempty"`
	Status           enums.ErpLinkStatus `json:"status"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// NewOrderResponse maps a stored order onto its API shape, folding the ERP
// link into the flat Bling fields the storefront reads.
func NewOrderResponse(o *models.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
			Total:     item.Total,
		})
	}
	resp := OrderResponse{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		CustomerPhone:  o.CustomerPhone,
		CustomerDoc:    o.CustomerDoc,
		ShippingStreet: o.ShippingStreet,
		ShippingNumber: o.ShippingNumber,
		ShippingCity:   o.ShippingCity,
		ShippingState:  o.ShippingState,
		ShippingZip:    o.ShippingZip,
		Subtotal:       o.Subtotal,
		ShippingCost:   o.ShippingCost,
		Discount:       o.Discount,
		Total:          o.Total,
		CouponID:       o.CouponID,
		Status:         o.Status,
		Notes:          o.Notes,
		Items:          items,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if link := o.ErpLink; link != nil {
		blingID := link.BlingOrderID
		issued := link.Status == enums.ErpLinkStatusNfeIssued
		resp.BlingOrderID = &blingID
		resp.BlingOrderNumber = link.BlingOrderNum
		resp.NfeIssued = &issued
		resp.NfeNumber = link.NfeNumber
	}
	return resp
}

// NewOrderResponses maps an order list onto its API shape.
func NewOrderResponses(list []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for i := range list {
		out = append(out, NewOrderResponse(&list[i]))
	}
	return out
}

// NewErpLinkResponse maps a stored ERP link onto its API shape.
func NewErpLinkResponse(link *models.ErpOrderLink) ErpLinkResponse {
	return ErpLinkResponse{
		OrderID:          link.OrderID,
		BlingOrderID:     link.BlingOrderID,
		BlingOrderNumber: link.BlingOrderNum,
		NfeID:            link.NfeID,
		NfeNumber:        link.NfeNumber,
		NfeAccessKey:     link.NfeKey,
		Status:           link.Status,
		UpdatedAt:        link.UpdatedAt,
	}
}
