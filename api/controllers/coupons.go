package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	couponsvc "github.com/danielbikeshop/backend/internal/coupons"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type couponValidateRequest struct {
	Code       string          `json:"code" validate:"required"`
	OrderTotal decimal.Decimal `json:"order_total" validate:"required"`
}

// CouponValidate prices a coupon against a cart subtotal without consuming it.
func CouponValidate(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload couponValidateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, discount, err := svc.Validate(r.Context(), payload.Code, payload.OrderTotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"code":     coupon.Code,
			"type":     coupon.Type,
			"value":    coupon.Value,
			"discount": discount,
		})
	}
}
