package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/danielbikeshop/backend/api/responses"
	"github.com/danielbikeshop/backend/api/validators"
	productsvc "github.com/danielbikeshop/backend/internal/products"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

// ProductList serves the storefront catalog with cursor pagination.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := productsvc.ListFilter{
			CategorySlug: validators.SanitizeString(r.URL.Query().Get("category"), 120),
			Search:       validators.SanitizeString(r.URL.Query().Get("search"), 120),
			FeaturedOnly: r.URL.Query().Get("featured") == "true",
			Limit:        limit,
			Cursor:       strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, next, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"products":    productsvc.NewProductResponses(list),
			"next_cursor": next,
		})
	}
}

// ProductDetail serves one active product by slug.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug required"))
			return
		}

		product, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, productsvc.NewProductResponse(product))
	}
}

// CategoryList serves the category tree for storefront navigation.
func CategoryList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"categories": productsvc.NewCategoryResponses(categories)})
	}
}
