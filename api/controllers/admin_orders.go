package controllers

import (
	"net/http"
	"strings"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	ordersvc "github.com/danielbikeshop/backend/internal/orders"
	"github.com/danielbikeshop/backend/pkg/logger"
)

// AdminOrderList serves the back-office order queue.
func AdminOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := ordersvc.ListFilter{
			Status: validators.SanitizeString(r.URL.Query().Get("status"), 32),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, next, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orders":      ordersvc.NewOrderResponses(list),
			"next_cursor": next,
		})
	}
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderStatusUpdate moves an order through its lifecycle.
func AdminOrderStatusUpdate(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(r.Context(), id, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersvc.NewOrderResponse(order))
	}
}
