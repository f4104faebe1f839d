package products

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbpkg "github.com/danielbikeshop/backend/pkg/db"
	"github.com/danielbikeshop/backend/pkg/db/models"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a product name into a URL slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = removeDiacritics(slug)
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// removeDiacritics maps the accented characters that show up in Portuguese
// product names onto their ASCII base.
func removeDiacritics(value string) string {
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "ã", "a", "â", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"ó", "o", "õ", "o", "ô", "o",
		"ú", "u", "ü", "u",
		"ç", "c",
	)
	return replacer.Replace(value)
}

// CreateInput carries the fields for an admin product create.
type CreateInput struct {
	SKU            *string
	Name           string
	Description    *string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Stock          int
	LowStockAlert  *int
	Brand          *string
	IsActive       bool
	IsFeatured     bool
	CategoryID     *uuid.UUID
	ImageURLs      []string
}

// UpdateInput carries partial updates; nil means leave unchanged.
type UpdateInput struct {
	Name           *string
	Description    *string
	Price          *decimal.Decimal
	CompareAtPrice *decimal.Decimal
	LowStockAlert  *int
	Brand          *string
	IsActive       *bool
	IsFeatured     *bool
	CategoryID     *uuid.UUID
}

// Service exposes catalog reads for the storefront and writes for the admin.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]models.Product, string, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
}

type service struct {
	repo *Repository
}

// NewService builds the product service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Product, string, error) {
	filter.ActiveOnly = true
	list, next, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, next, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	list, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return list, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	product := &models.Product{
		ID:             uuid.New(),
		SKU:            input.SKU,
		Name:           name,
		Slug:           Slugify(name),
		Description:    input.Description,
		Price:          input.Price,
		CompareAtPrice: input.CompareAtPrice,
		Stock:          input.Stock,
		Brand:          input.Brand,
		IsActive:       input.IsActive,
		IsFeatured:     input.IsFeatured,
		CategoryID:     input.CategoryID,
	}
	if input.LowStockAlert != nil {
		if *input.LowStockAlert < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		product.LowStockThreshold = *input.LowStockAlert
	}
	for i, url := range input.ImageURLs {
		product.Images = append(product.Images, models.ProductImage{
			ID:        uuid.New(),
			ProductID: product.ID,
			URL:       url,
			Position:  i,
		})
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug or sku already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = name
		updates["slug"] = Slugify(name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = *input.Price
	}
	if input.CompareAtPrice != nil {
		updates["compare_at_price"] = *input.CompareAtPrice
	}
	if input.LowStockAlert != nil {
		if *input.LowStockAlert < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
		}
		updates["low_stock_threshold"] = *input.LowStockAlert
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.IsFeatured != nil {
		updates["is_featured"] = *input.IsFeatured
	}
	if input.CategoryID != nil {
		updates["category_id"] = *input.CategoryID
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return product, nil
}
