package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// ProductResponse is the API shape of a product.
type ProductResponse struct {
	ID                uuid.UUID        `json:"id"`
	SKU               *string          `json:"sku,omitempty"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Description       *string          `json:"description,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compare_at_price,omitempty"`
	Stock             int              `json:"stock"`
	LowStockThreshold int              `json:"low_stock_threshold"`
	Brand             *string          `json:"brand,omitempty"`
	IsActive          bool             `json:"is_active"`
	IsFeatured        bool             `json:"is_featured"`
	CategoryID        *uuid.UUID       `json:"category_id,omitempty"`
	Images            []ImageResponse  `json:"images"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// ImageResponse is one product image, ordered by position.
type ImageResponse struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
}

// CategoryResponse is the API shape of a category.
type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// NewProductResponse maps a stored product onto its API shape.
func NewProductResponse(p *models.Product) ProductResponse {
	images := make([]ImageResponse, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageResponse{ID: img.ID, URL: img.URL, Position: img.Position})
	}
	return ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		Price:             p.Price,
		CompareAtPrice:    p.CompareAtPrice,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		Brand:             p.Brand,
		IsActive:          p.IsActive,
		IsFeatured:        p.IsFeatured,
		CategoryID:        p.CategoryID,
		Images:            images,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// NewProductResponses maps a product list onto its API shape.
func NewProductResponses(list []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for i := range list {
		out = append(out, NewProductResponse(&list[i]))
	}
	return out
}

// NewCategoryResponses maps stored categories onto their API shape.
func NewCategoryResponses(list []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	return out
}
