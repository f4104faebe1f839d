package settings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// SettingsResponse is the API shape of the store-wide switches.
type SettingsResponse struct {
	StoreOpen             bool            `json:"store_open"`
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	FlatShippingRate      decimal.Decimal `json:"flat_shipping_rate"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// NewSettingsResponse maps the settings row onto its API shape.
func NewSettingsResponse(s *models.StoreSettings) SettingsResponse {
	return SettingsResponse{
		StoreOpen:             s.StoreOpen,
		FreeShippingThreshold: s.FreeShippingThreshold,
		FlatShippingRate:      s.FlatShippingRate,
		UpdatedAt:             s.UpdatedAt,
	}
}
