package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	settingsvc "github.com/danielbikeshop/backend/internal/settings"
	"github.com/danielbikeshop/backend/pkg/logger"
)

// AdminSettingsGet serves the store-wide switches.
func AdminSettingsGet(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingsvc.NewSettingsResponse(settings))
	}
}

type settingsUpdateRequest struct {
	StoreOpen             *bool            `json:"store_open,omitempty"`
	FreeShippingThreshold *decimal.Decimal `json:"free_shipping_threshold,omitempty"`
	FlatShippingRate      *decimal.Decimal `json:"flat_shipping_rate,omitempty"`
}

// AdminSettingsUpdate applies partial settings updates.
func AdminSettingsUpdate(svc settingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload settingsUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Update(r.Context(), settingsvc.UpdateInput{
			StoreOpen:             payload.StoreOpen,
			FreeShippingThreshold: payload.FreeShippingThreshold,
			FlatShippingRate:      payload.FlatShippingRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settingsvc.NewSettingsResponse(settings))
	}
}
