package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
)

// CouponResponse is the API shape of a discount coupon.
type CouponResponse struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	Type          enums.DiscountType `json:"type"`
	Value         decimal.Decimal    `json:"value"`
	MinOrderValue *decimal.Decimal   `json:"min_order_value,omitempty"`
	MaxUses       *int               `json:"max_uses,omitempty"`
	UsedCount     int                `json:"used_count"`
	StartsAt      *time.Time         `json:"starts_at,omitempty"`
	ExpiresAt     *time.Time         `json:"expires_at,omitempty"`
	IsActive      bool               `json:"is_active"`
	CreatedAt     time.Time          `json:"created_at"`
}

// NewCouponResponse maps a stored coupon onto its API shape.
func NewCouponResponse(c *models.DiscountCoupon) CouponResponse {
	return CouponResponse{
		ID:            c.ID,
		Code:          c.Code,
		Type:          c.Type,
		Value:         c.Value,
		MinOrderValue: c.MinOrderValue,
		MaxUses:       c.MaxUses,
		UsedCount:     c.UsedCount,
		StartsAt:      c.StartsAt,
		ExpiresAt:     c.ExpiresAt,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
	}
}

// NewCouponResponses maps a coupon list onto its API shape.
func NewCouponResponses(list []models.DiscountCoupon) []CouponResponse {
	out := make([]CouponResponse, 0, len(list))
	for i := range list {
		out = append(out, NewCouponResponse(&list[i]))
	}
	return out
}
