package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/danielbikeshop/backend/pkg/db"
	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// CreateInput is the admin payload for a new coupon.
type CreateInput struct {
	Code          string           `json:"code" validate:"required"`
	Type          string           `json:"type" validate:"required"`
	Value         decimal.Decimal  `json:"value" validate:"required"`
	MinOrderValue *decimal.Decimal `json:"min_order_value,omitempty"`
	MaxUses       *int             `json:"max_uses,omitempty"`
	StartsAt      *time.Time       `json:"starts_at,omitempty"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
}

// Service validates coupons against order subtotals and records redemptions.
type Service interface {
	// Validate checks the code against the subtotal and returns the coupon
	// together with the discount it grants.
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCoupon, decimal.Decimal, error)
	// Redeem consumes one use of the coupon.
	Redeem(ctx context.Context, coupon *models.DiscountCoupon) error
	// RedeemWithTx is Redeem inside an existing transaction.
	RedeemWithTx(ctx context.Context, tx *gorm.DB, coupon *models.DiscountCoupon) error
	List(ctx context.Context) ([]models.DiscountCoupon, error)
	Create(ctx context.Context, input CreateInput) (*models.DiscountCoupon, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the coupon service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCoupon, decimal.Decimal, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}

	now := s.now()
	if !coupon.IsActive {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active yet")
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if coupon.MaxUses != nil && coupon.UsedCount >= *coupon.MaxUses {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}
	if coupon.MinOrderValue != nil && subtotal.LessThan(*coupon.MinOrderValue) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order subtotal below coupon minimum").
			WithDetails(map[string]any{"min_order_value": coupon.MinOrderValue.String()})
	}

	return coupon, discountFor(coupon, subtotal), nil
}

// discountFor computes the discount a coupon grants, capped at the subtotal.
func discountFor(coupon *models.DiscountCoupon, subtotal decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch coupon.Type {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(coupon.Value).Div(oneHundred).Round(2)
	case enums.DiscountTypeFixed:
		discount = coupon.Value
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

func (s *service) Redeem(ctx context.Context, coupon *models.DiscountCoupon) error {
	return s.RedeemWithTx(ctx, nil, coupon)
}

func (s *service) RedeemWithTx(ctx context.Context, tx *gorm.DB, coupon *models.DiscountCoupon) error {
	if coupon == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon required")
	}
	err := s.repo.WithTx(tx).IncrementUsage(ctx, coupon)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "coupon usage limit reached")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeem coupon")
	}
	return nil
}

func (s *service) List(ctx context.Context) ([]models.DiscountCoupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	return coupons, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.DiscountCoupon, error) {
	discountType, err := enums.ParseDiscountType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code required")
	}
	if !input.Value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon value must be positive")
	}
	if discountType == enums.DiscountTypePercentage && input.Value.GreaterThan(oneHundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	if input.StartsAt != nil && input.ExpiresAt != nil && input.ExpiresAt.Before(*input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be after starts_at")
	}

	coupon := &models.DiscountCoupon{
		Code:          code,
		Type:          discountType,
		Value:         input.Value,
		MinOrderValue: input.MinOrderValue,
		MaxUses:       input.MaxUses,
		StartsAt:      input.StartsAt,
		ExpiresAt:     input.ExpiresAt,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}
