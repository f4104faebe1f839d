package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/pagination"
)

// Repository owns order, order item and ERP link persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an order repository bound to the provided DB.
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

// Create inserts the order together with its items.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with its items and ERP link.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ErpLink").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns a cursor page of orders, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(filter.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("Items").
		Preload("ErpLink")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var list []models.Order
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

// UpdateStatus moves an order to the given status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock subtracts qty from a product's stock without going below
// zero. The write belongs to the checkout transaction, so it lives here
// rather than on the product repository.
func (r *Repository) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = CASE WHEN stock >= ? THEN stock - ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, qty, productID).Error
}

// CreateErpLink records that the remote sales order exists.
func (r *Repository) CreateErpLink(ctx context.Context, link *models.ErpOrderLink) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// FindErpLink loads the ERP link for an order, nil when none exists yet.
func (r *Repository) FindErpLink(ctx context.Context, orderID uuid.UUID) (*models.ErpOrderLink, error) {
	var link models.ErpOrderLink
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// UpdateErpLink applies the given column updates to an ERP link.
func (r *Repository) UpdateErpLink(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ErpOrderLink{}).
		Where("id = ?", id).
		Updates(updates).Error
}
