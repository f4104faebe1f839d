package settings

import (
	"context"

	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// Repository persists the single store settings row.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a settings repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get loads the settings row.
func (r *Repository) Get(ctx context.Context) (*models.StoreSettings, error) {
	var settings models.StoreSettings
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update applies the given column updates to the settings row.
func (r *Repository) Update(ctx context.Context, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StoreSettings{}).
		Where("1 = 1").
		Updates(updates).Error
}
