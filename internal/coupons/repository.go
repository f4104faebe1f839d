package coupons

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

// Repository owns discount coupon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
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

// FindByCode looks a coupon up by its case-insensitive code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.DiscountCoupon, error) {
	var coupon models.DiscountCoupon
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// List returns all coupons, newest first.
func (r *Repository) List(ctx context.Context) ([]models.DiscountCoupon, error) {
	var coupons []models.DiscountCoupon
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&coupons).Error
	return coupons, err
}

// Create inserts a new coupon.
func (r *Repository) Create(ctx context.Context, coupon *models.DiscountCoupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// IncrementUsage bumps used_count by one. The max_uses guard lives in the
// WHERE clause so concurrent redemptions cannot overshoot.
func (r *Repository) IncrementUsage(ctx context.Context, coupon *models.DiscountCoupon) error {
	query := r.db.WithContext(ctx).
		Model(&models.DiscountCoupon{}).
		Where("id = ?", coupon.ID)
	if coupon.MaxUses != nil {
		query = query.Where("used_count < ?", *coupon.MaxUses)
	}
	result := query.Update("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
