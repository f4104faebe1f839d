package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/pagination"
)

// ListFilter narrows storefront product queries.
type ListFilter struct {
	CategorySlug string
	Search       string
	FeaturedOnly bool
	ActiveOnly   bool
	Limit        int
	Cursor       string
}

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product with its images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads an active product by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySKU loads a product by SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads products for the given ids without associations.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// List returns a cursor page of products plus the next cursor.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, string, error) {
	limit := pagination.NormalizeLimit(filter.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.FeaturedOnly {
		query = query.Where("is_featured = ?", true)
	}
	if filter.CategorySlug != "" {
		query = query.Where("category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", filter.CategorySlug))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}

	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var list []models.Product
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&list).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(list) > limit {
		last := list[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list = list[:limit]
	}
	return list, next, nil
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update applies the given column updates to a product.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateStock sets the absolute stock value for a product.
func (r *Repository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", stock).Error
}

// DecrementStock subtracts qty from stock without going below zero.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = CASE WHEN stock >= ? THEN stock - ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, id).Error
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
