package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
)

type stubTx struct {
	db *gorm.DB
}

func (s stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(s.db)
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.StockMovement{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	svc, err := NewService(NewRepository(conn), stubTx{db: conn})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, conn
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Bike",
		Slug:     "bike-" + uuid.NewString(),
		Price:    decimal.NewFromInt(100),
		Stock:    stock,
		IsActive: true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func productStock(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := conn.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.Stock
}

func TestApplyEntrada(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, 3)

	movement, err := svc.Apply(context.Background(), ApplyInput{
		ProductID: product.ID,
		Type:      "entrada",
		Quantity:  5,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if movement.StockBefore != 3 || movement.StockAfter != 8 {
		t.Fatalf("unexpected movement %+v", movement)
	}
	if got := productStock(t, conn, product.ID); got != 8 {
		t.Fatalf("stock = %d, want 8", got)
	}
}

func TestApplySaidaFloorsAtZero(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, 2)

	movement, err := svc.Apply(context.Background(), ApplyInput{
		ProductID: product.ID,
		Type:      "saida",
		Quantity:  10,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if movement.StockAfter != 0 {
		t.Fatalf("stock_after = %d, want 0", movement.StockAfter)
	}
	if got := productStock(t, conn, product.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}

func TestApplyAjusteSetsBalance(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, 50)

	movement, err := svc.Apply(context.Background(), ApplyInput{
		ProductID: product.ID,
		Type:      "ajuste",
		Quantity:  12,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if movement.Type != enums.MovementTypeAjuste || movement.StockAfter != 12 {
		t.Fatalf("unexpected movement %+v", movement)
	}
	if got := productStock(t, conn, product.ID); got != 12 {
		t.Fatalf("stock = %d, want 12", got)
	}
}

func TestApplyValidation(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, 1)

	cases := []ApplyInput{
		{ProductID: product.ID, Type: "bogus", Quantity: 1},
		{ProductID: uuid.Nil, Type: "entrada", Quantity: 1},
		{ProductID: product.ID, Type: "entrada", Quantity: 0},
		{ProductID: product.ID, Type: "saida", Quantity: -1},
	}
	for i, input := range cases {
		if _, err := svc.Apply(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}

	if _, err := svc.Apply(context.Background(), ApplyInput{ProductID: uuid.New(), Type: "entrada", Quantity: 1}); !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListByProduct(t *testing.T) {
	svc, conn := newTestService(t)
	product := mustCreateProduct(t, conn, 0)

	for i := 0; i < 3; i++ {
		if _, err := svc.Apply(context.Background(), ApplyInput{
			ProductID: product.ID,
			Type:      "entrada",
			Quantity:  i + 1,
		}); err != nil {
			t.Fatalf("Apply %d: %v", i, err)
		}
	}

	movements, err := svc.ListByProduct(context.Background(), product.ID, 0)
	if err != nil {
		t.Fatalf("ListByProduct: %v", err)
	}
	if len(movements) != 3 {
		t.Fatalf("got %d movements, want 3", len(movements))
	}
}
