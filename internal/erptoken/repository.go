package erptoken

import (
	"context"

	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// Repository persists the single Bling credential set.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Latest(ctx context.Context) (*models.OAuthToken, error)
	Replace(ctx context.Context, token *models.OAuthToken) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a token repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Latest(ctx context.Context) (*models.OAuthToken, error) {
	var token models.OAuthToken
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Replace drops every stored credential row and inserts the new one, keeping
// the table single-row.
func (r *repository) Replace(ctx context.Context, token *models.OAuthToken) error {
	if err := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.OAuthToken{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(token).Error
}
