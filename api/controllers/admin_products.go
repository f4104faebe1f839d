package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	productsvc "github.com/danielbikeshop/backend/internal/products"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type adminProductCreateRequest struct {
	SKU            *string          `json:"sku,omitempty"`
	Name           string           `json:"name" validate:"required"`
	Description    *string          `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price" validate:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Stock          int              `json:"stock" validate:"gte=0"`
	LowStockAlert  *int             `json:"low_stock_threshold,omitempty"`
	Brand          *string          `json:"brand,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
	IsFeatured     bool             `json:"is_featured"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	ImageURLs      []string         `json:"image_urls,omitempty"`
}

// AdminProductCreate adds a product to the local catalog.
func AdminProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adminProductCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.IsActive != nil {
			active = *payload.IsActive
		}

		product, err := svc.Create(r.Context(), productsvc.CreateInput{
			SKU:            payload.SKU,
			Name:           payload.Name,
			Description:    payload.Description,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			Stock:          payload.Stock,
			LowStockAlert:  payload.LowStockAlert,
			Brand:          payload.Brand,
			IsActive:       active,
			IsFeatured:     payload.IsFeatured,
			CategoryID:     payload.CategoryID,
			ImageURLs:      payload.ImageURLs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, productsvc.NewProductResponse(product))
	}
}

type adminProductUpdateRequest struct {
	Name           *string          `json:"name,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	LowStockAlert  *int             `json:"low_stock_threshold,omitempty"`
	Brand          *string          `json:"brand,omitempty"`
	IsActive       *bool            `json:"is_active,omitempty"`
	IsFeatured     *bool            `json:"is_featured,omitempty"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
}

// AdminProductUpdate applies partial updates to a product.
func AdminProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := productIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminProductUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, productsvc.UpdateInput{
			Name:           payload.Name,
			Description:    payload.Description,
			Price:          payload.Price,
			CompareAtPrice: payload.CompareAtPrice,
			LowStockAlert:  payload.LowStockAlert,
			Brand:          payload.Brand,
			IsActive:       payload.IsActive,
			IsFeatured:     payload.IsFeatured,
			CategoryID:     payload.CategoryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productsvc.NewProductResponse(product))
	}
}

func productIDParam(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "productID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return id, nil
}
