package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// Repository persists the synced catalog: the Bling mirror table plus the
// storefront products the sync creates or refreshes.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertCache writes a batch of Bling mirror rows, replacing existing ones
// by bling_id.
func (r *Repository) UpsertCache(ctx context.Context, rows []models.BlingProductCache) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bling_id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

// FindProductBySKU loads the storefront product carrying the given SKU.
func (r *Repository) FindProductBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct inserts a storefront product discovered during sync.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateProduct applies the given column updates to a storefront product.
func (r *Repository) UpdateProduct(ctx context.Context, product *models.Product, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(product).
		Updates(updates).Error
}
