package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	stocksvc "github.com/danielbikeshop/backend/internal/stock"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

// AdminStockMovementCreate applies a manual stock movement.
func AdminStockMovementCreate(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload stocksvc.ApplyInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Apply(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, stocksvc.NewMovementResponse(movement))
	}
}

// AdminStockMovementList serves a product's movement history.
func AdminStockMovementList(svc stocksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("product_id")
		productID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movements, err := svc.ListByProduct(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"movements": stocksvc.NewMovementResponses(movements)})
	}
}
