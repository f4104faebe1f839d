package controllers

import (
	"net/http"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	couponsvc "github.com/danielbikeshop/backend/internal/coupons"
	"github.com/danielbikeshop/backend/pkg/logger"
)

// AdminCouponList serves all coupons to the back office.
func AdminCouponList(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupons, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"coupons": couponsvc.NewCouponResponses(coupons)})
	}
}

// AdminCouponCreate registers a new discount code.
func AdminCouponCreate(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponsvc.CreateInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, couponsvc.NewCouponResponse(coupon))
	}
}
