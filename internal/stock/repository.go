package stock

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// Repository persists the stock movement ledger and the product balance it
// adjusts. Both writes belong to the same unit of work, so they live here
// together.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindProduct loads the product a movement targets.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetProductStock writes the new balance.
func (r *Repository) SetProductStock(ctx context.Context, id uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", stock).Error
}

// Create appends a ledger entry.
func (r *Repository) Create(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// ListByProduct returns a product's movements, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&movements).Error
	return movements, err
}
