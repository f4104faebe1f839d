package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
)

func newTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.ErpOrderLink{},
	)
	if err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return NewRepository(conn), conn
}

func mustCreateOrder(t *testing.T, repo *Repository, mutate func(*models.Order)) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            uuid.New(),
		CustomerName:  "Ana Souza",
		CustomerEmail: "ana@example.com",
		Subtotal:      decimal.NewFromInt(100),
		ShippingCost:  decimal.NewFromFloat(29.90),
		Total:         decimal.NewFromFloat(129.90),
		Status:        enums.OrderStatusPending,
		Items: []models.OrderItem{
			{ID: uuid.New(), Name: "Bike", UnitPrice: decimal.NewFromInt(100), Qty: 1, Total: decimal.NewFromInt(100)},
		},
	}
	if mutate != nil {
		mutate(order)
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestCreateAndFindByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := mustCreateOrder(t, repo, nil)

	loaded, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].Name != "Bike" {
		t.Fatalf("items not loaded: %+v", loaded.Items)
	}
	if loaded.ErpLink != nil {
		t.Fatal("expected no erp link yet")
	}
}

func TestListFiltersByStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	mustCreateOrder(t, repo, nil)
	mustCreateOrder(t, repo, func(o *models.Order) {
		o.ID = uuid.New()
		o.Status = enums.OrderStatusShipped
		o.Items[0].ID = uuid.New()
	})

	list, _, err := repo.List(context.Background(), ListFilter{Status: "shipped"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	repo, conn := newTestRepo(t)
	product := &models.Product{
		ID:    uuid.New(),
		Name:  "Capacete",
		Slug:  "capacete",
		Price: decimal.NewFromInt(80),
		Stock: 2,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := repo.DecrementStock(context.Background(), product.ID, 5); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}

	var reloaded models.Product
	if err := conn.First(&reloaded, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("stock = %d, want 0", reloaded.Stock)
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	err := repo.UpdateStatus(context.Background(), uuid.New(), "shipped")
	if err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestErpLinkLifecycle(t *testing.T) {
	repo, _ := newTestRepo(t)
	order := mustCreateOrder(t, repo, nil)

	link, err := repo.FindErpLink(context.Background(), order.ID)
	if err != nil || link != nil {
		t.Fatalf("expected nil link, got %+v/%v", link, err)
	}

	created := &models.ErpOrderLink{
		ID:           uuid.New(),
		OrderID:      order.ID,
		BlingOrderID: 555,
		ContactID:    77,
		Status:       enums.ErpLinkStatusOrderCreated,
	}
	if err := repo.CreateErpLink(context.Background(), created); err != nil {
		t.Fatalf("CreateErpLink: %v", err)
	}

	updates := map[string]any{
		"nfe_id": int64(900),
		"status": enums.ErpLinkStatusNfeIssued,
	}
	if err := repo.UpdateErpLink(context.Background(), created.ID, updates); err != nil {
		t.Fatalf("UpdateErpLink: %v", err)
	}

	link, err = repo.FindErpLink(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("FindErpLink: %v", err)
	}
	if link.Status != enums.ErpLinkStatusNfeIssued || link.NfeID == nil || *link.NfeID != 900 {
		t.Fatalf("unexpected link %+v", link)
	}
}
