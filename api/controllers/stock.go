package controllers

import (
	"net/http"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	"github.com/danielbikeshop/backend/internal/stockcheck"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type stockValidateRequest struct {
	Items []stockcheck.Item `json:"items" validate:"required,min=1,dive"`
}

// StockValidate answers whether a cart could be fulfilled right now. The
// verdict is advisory; checkout revalidates on its own.
func StockValidate(svc stockcheck.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload stockValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
