package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
)

// UpdateInput carries partial settings updates; nil means leave unchanged.
type UpdateInput struct {
	StoreOpen             *bool
	FreeShippingThreshold *decimal.Decimal
	FlatShippingRate      *decimal.Decimal
}

// Service exposes storefront-wide switches and the shipping quote.
type Service interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
	Update(ctx context.Context, input UpdateInput) (*models.StoreSettings, error)
	IsOpen(ctx context.Context) (bool, error)
	QuoteShipping(ctx context.Context, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type service struct {
	repo *Repository
}

// NewService builds the settings service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*models.StoreSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store settings not seeded")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store settings")
	}
	return settings, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.StoreSettings, error) {
	updates := map[string]any{}
	if input.StoreOpen != nil {
		updates["store_open"] = *input.StoreOpen
	}
	if input.FreeShippingThreshold != nil {
		if input.FreeShippingThreshold.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "free shipping threshold cannot be negative")
		}
		updates["free_shipping_threshold"] = *input.FreeShippingThreshold
	}
	if input.FlatShippingRate != nil {
		if input.FlatShippingRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "flat shipping rate cannot be negative")
		}
		updates["flat_shipping_rate"] = *input.FlatShippingRate
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	if err := s.repo.Update(ctx, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store settings")
	}
	return s.Get(ctx)
}

func (s *service) IsOpen(ctx context.Context) (bool, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return settings.StoreOpen, nil
}

// QuoteShipping returns the shipping cost for an order subtotal: free at or
// above the threshold, the flat rate below it.
func (s *service) QuoteShipping(ctx context.Context, subtotal decimal.Decimal) (decimal.Decimal, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if subtotal.GreaterThanOrEqual(settings.FreeShippingThreshold) {
		return decimal.Zero, nil
	}
	return settings.FlatShippingRate, nil
}
