package products

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.ProductImage{},
	)
	if err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

func mustCreateCategory(t *testing.T, tx *gorm.DB, name, slug string) *models.Category {
	t.Helper()
	category := &models.Category{
		ID:   uuid.New(),
		Name: name,
		Slug: slug,
	}
	if err := tx.Create(category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return category
}

func mustCreateProduct(t *testing.T, tx *gorm.DB, mutate func(*models.Product)) *models.Product {
	t.Helper()
	sku := fmt.Sprintf("SKU-%s", uuid.NewString()[:8])
	product := &models.Product{
		ID:       uuid.New(),
		SKU:      &sku,
		Name:     "Test Bike",
		Slug:     fmt.Sprintf("test-bike-%s", uuid.NewString()[:8]),
		Price:    decimal.NewFromFloat(999.90),
		Stock:    10,
		IsActive: true,
	}
	if mutate != nil {
		mutate(product)
	}
	if err := tx.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
