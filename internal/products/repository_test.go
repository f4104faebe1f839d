package products

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
)

func TestListFiltersInactiveAndPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		mustCreateProduct(t, db, nil)
	}
	mustCreateProduct(t, db, func(p *models.Product) {
		p.IsActive = false
	})

	list, next, err := repo.List(ctx, ListFilter{ActiveOnly: true, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected first page of 2, got %d", len(list))
	}
	if next == "" {
		t.Fatal("expected next cursor on first page")
	}

	rest, next, err := repo.List(ctx, ListFilter{ActiveOnly: true, Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 product on second page, got %d", len(rest))
	}
	if next != "" {
		t.Fatalf("expected no further cursor, got %q", next)
	}
}

func TestListByCategorySlug(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	bikes := mustCreateCategory(t, db, "Bikes", "bikes")
	mustCreateCategory(t, db, "Helmets", "helmets")
	mustCreateProduct(t, db, func(p *models.Product) {
		p.CategoryID = &bikes.ID
	})
	mustCreateProduct(t, db, nil)

	list, _, err := repo.List(ctx, ListFilter{CategorySlug: "bikes"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 product in category, got %d", len(list))
	}
}

func TestListSearchMatchesName(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	mustCreateProduct(t, db, func(p *models.Product) {
		p.Name = "Mountain Bike Pro"
	})
	mustCreateProduct(t, db, func(p *models.Product) {
		p.Name = "City Helmet"
	})

	list, _, err := repo.List(ctx, ListFilter{Search: "mountain"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Mountain Bike Pro" {
		t.Fatalf("unexpected search result %+v", list)
	}
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := mustCreateProduct(t, db, func(p *models.Product) {
		p.Stock = 3
	})

	if err := repo.DecrementStock(ctx, product.ID, 5); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	reloaded, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("expected stock floored at 0, got %d", reloaded.Stock)
	}

	if err := repo.DecrementStock(ctx, product.ID, 0); err != nil {
		t.Fatalf("zero decrement should be a no-op: %v", err)
	}
}

func TestFindBySKU(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := mustCreateProduct(t, db, nil)

	found, err := repo.FindBySKU(ctx, *product.SKU)
	if err != nil {
		t.Fatalf("find by sku: %v", err)
	}
	if found.ID != product.ID {
		t.Fatalf("expected product %s, got %s", product.ID, found.ID)
	}

	if _, err := repo.FindBySKU(ctx, "missing"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
